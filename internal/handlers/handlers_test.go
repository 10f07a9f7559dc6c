package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/middleware"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/margdarshan-ai/margdarshan/internal/ratelimit"
	"github.com/margdarshan-ai/margdarshan/internal/services/cache"
	"github.com/margdarshan-ai/margdarshan/internal/services/identity"
	"github.com/margdarshan-ai/margdarshan/internal/store"
)

// mockAI counts calls so tests can assert that cached and rejected requests
// never reach the generation layer.
type mockAI struct {
	roadmapCalls   int
	simulatorCalls int
	validatorCalls int
	seedCalls      int
}

func (m *mockAI) GenerateRoadmap(ctx context.Context, targetRole string, skills []string, hoursPerWeek, weeks, budget int) (*models.Roadmap, error) {
	m.roadmapCalls++
	return &models.Roadmap{Roadmap: models.RoadmapBody{
		TargetRole: targetRole,
		TotalWeeks: weeks,
		Phases: []models.RoadmapPhase{{
			Title: "Foundation",
			Weeks: []models.RoadmapWeek{{Week: "1-2", Topics: []string{"SQL"}, Resource: "https://example.com"}},
		}},
	}}, nil
}

func (m *mockAI) SimulateCareerPath(ctx context.Context, profile *models.StudentProfile, paths []models.CareerPath) (*models.SimulationResult, error) {
	m.simulatorCalls++
	return &models.SimulationResult{OverallRecommendation: "Data Analyst"}, nil
}

func (m *mockAI) ValidateCourse(ctx context.Context, course *models.Course, profile *models.StudentProfile) (*models.CourseValidation, error) {
	m.validatorCalls++
	return &models.CourseValidation{FitScore: 82, AIRecommendation: "RECOMMENDED"}, nil
}

func (m *mockAI) GenerateCareerReport(ctx context.Context, profile *models.StudentProfile) (*models.CareerReport, error) {
	return &models.CareerReport{}, nil
}

func (m *mockAI) RecommendCareers(ctx context.Context, profile *models.StudentProfile) (*models.CareerRecommendations, error) {
	return &models.CareerRecommendations{}, nil
}

func (m *mockAI) ChatWithMentor(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	return "Focus on fundamentals first.", nil
}

func (m *mockAI) GenerateSeedData(ctx context.Context, dataType string, count int) ([]map[string]interface{}, error) {
	m.seedCalls++
	rows := make([]map[string]interface{}, count)
	for i := range rows {
		rows[i] = map[string]interface{}{"name": fmt.Sprintf("%s %d", dataType, i)}
	}
	return rows, nil
}

type testEnv struct {
	handler *Handler
	router  http.Handler
	store   store.Store
	ai      *mockAI
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{TokenSecret: "test-secret", TokenTTL: time.Hour},
		Cache: config.CacheConfig{
			Enabled:      true,
			RoadmapTTL:   time.Hour,
			SimulatorTTL: time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			Enabled: true,
			Window:  time.Hour,
			Endpoints: map[string]int{
				config.EndpointRoadmap:   100,
				config.EndpointSimulator: 100,
				config.EndpointValidator: 100,
				config.EndpointChat:      100,
			},
		},
		I18n: config.I18nConfig{
			DefaultLanguage: "en",
			Languages:       []string{"en"},
			Directory:       "../../configs/i18n",
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st := store.NewMemoryStore(&config.MemoryConfig{}, logger)
	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	require.NoError(t, err)

	aiMock := &mockAI{}
	h := NewHandler(
		cfg,
		st,
		identity.NewProvider(&cfg.Auth, st, logger),
		ratelimit.NewLimiter(&cfg.RateLimit, st, logger),
		cache.NewCache(&cfg.Cache, st, logger),
		aiMock,
		localizer,
		middleware.NewMetrics(),
		logger,
	)

	return &testEnv{handler: h, router: h.Router(nil), store: st, ai: aiMock}
}

func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	userID, err := e.handler.identity.CreateUser(context.Background(), email, "secret123")
	require.NoError(t, err)
	return e.handler.identity.IssueToken(userID)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func errorCode(t *testing.T, envelope map[string]interface{}) string {
	t.Helper()
	require.Equal(t, false, envelope["success"])
	errBody, ok := envelope["error"].(map[string]interface{})
	require.True(t, ok)
	code, _ := errBody["code"].(string)
	return code
}

func TestMissingTokenRejectedBeforeGeneration(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, envelope := env.do(t, http.MethodPost, "/api/roadmap/generate", "",
		map[string]interface{}{"targetRole": "Data Analyst"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeNoToken, errorCode(t, envelope))
	assert.Equal(t, 0, env.ai.roadmapCalls)
}

func TestInvalidTokenRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, envelope := env.do(t, http.MethodPost, "/api/roadmap/generate", "not-a-token",
		map[string]interface{}{"targetRole": "Data Analyst"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidToken, errorCode(t, envelope))
	assert.Equal(t, 0, env.ai.roadmapCalls)
}

func TestRoadmapMissingTargetRole(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup(t, "student@example.com")

	rec, envelope := env.do(t, http.MethodPost, "/api/roadmap/generate", token,
		map[string]interface{}{"weeks": 8})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeMissingField, errorCode(t, envelope))
}

func TestRoadmapCachedOnSecondCall(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup(t, "student@example.com")
	body := map[string]interface{}{"targetRole": "Data Analyst", "weeks": 8}

	rec, envelope := env.do(t, http.MethodPost, "/api/roadmap/generate", token, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope["success"])
	assert.Equal(t, "Success", envelope["message"])
	assert.Equal(t, 1, env.ai.roadmapCalls)

	rec2, envelope2 := env.do(t, http.MethodPost, "/api/roadmap/generate", token, body)
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "Retrieved from cache", envelope2["message"])
	assert.Equal(t, 1, env.ai.roadmapCalls)
	assert.Equal(t, envelope["data"], envelope2["data"])
}

func TestRoadmapCacheSharedAcrossUsers(t *testing.T) {
	env := newTestEnv(t, nil)
	first := env.signup(t, "first@example.com")
	second := env.signup(t, "second@example.com")
	body := map[string]interface{}{"targetRole": "Backend Developer", "weeks": 12}

	rec, _ := env.do(t, http.MethodPost, "/api/roadmap/generate", first, body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec2, envelope2 := env.do(t, http.MethodPost, "/api/roadmap/generate", second, body)
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "Retrieved from cache", envelope2["message"])
	assert.Equal(t, 1, env.ai.roadmapCalls)
}

func TestRoadmapRateLimitBoundary(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.RateLimit.Endpoints[config.EndpointRoadmap] = 3
	})
	token := env.signup(t, "student@example.com")
	body := map[string]interface{}{"targetRole": "Data Analyst"}

	for i := 0; i < 3; i++ {
		rec, _ := env.do(t, http.MethodPost, "/api/roadmap/generate", token, body)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should be admitted", i+1)
	}

	rec, envelope := env.do(t, http.MethodPost, "/api/roadmap/generate", token, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, errorCode(t, envelope))
	// Cache absorbed the repeats, so only the first admitted request
	// reached the generation layer.
	assert.Equal(t, 1, env.ai.roadmapCalls)
}

func TestRateLimitIsolatedPerUser(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.RateLimit.Endpoints[config.EndpointRoadmap] = 1
	})
	first := env.signup(t, "first@example.com")
	second := env.signup(t, "second@example.com")
	body := map[string]interface{}{"targetRole": "Data Analyst"}

	rec, _ := env.do(t, http.MethodPost, "/api/roadmap/generate", first, body)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, http.MethodPost, "/api/roadmap/generate", first, body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/roadmap/generate", second, body)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignupLoginFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, envelope := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "new@example.com",
		"password": "secret123",
		"name":     "New Student",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := envelope["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	assert.NotEmpty(t, user["uid"])
	assert.Equal(t, "new@example.com", user["email"])

	// Duplicate email is refused.
	rec, envelope = env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "new@example.com",
		"password": "secret123",
		"name":     "New Student",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeSignupFailed, errorCode(t, envelope))

	rec, envelope = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "new@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data = envelope["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	// The issued token is accepted by a protected endpoint.
	rec, _ = env.do(t, http.MethodPost, "/api/roadmap/generate", token,
		map[string]interface{}{"targetRole": "Data Analyst"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signup(t, "student@example.com")

	rec, envelope := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "student@example.com",
		"password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidToken, errorCode(t, envelope))
}

func TestValidatorCourseNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup(t, "student@example.com")

	rec, envelope := env.do(t, http.MethodPost, "/api/validator/analyze", token,
		map[string]interface{}{"courseId": "missing"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeRowNotFound, errorCode(t, envelope))
	assert.Equal(t, 0, env.ai.validatorCalls)
}

func TestValidatorAnalyzesStoredCourse(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup(t, "student@example.com")

	ids, err := env.store.SeedRows(context.Background(), "courses", []map[string]interface{}{
		{"name": "SQL Bootcamp", "provider": "Acme", "price": 4999},
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	rec, envelope := env.do(t, http.MethodPost, "/api/validator/analyze", token,
		map[string]interface{}{"courseId": ids[0], "userProfile": map[string]interface{}{"budget": 10000}})

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "RECOMMENDED", data["aiRecommendation"])
	assert.Equal(t, float64(82), data["fitScore"])
	assert.Equal(t, 1, env.ai.validatorCalls)
}

func TestCommunityPostLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, envelope := env.do(t, http.MethodPost, "/api/community/posts", "", map[string]interface{}{
		"title":    "Which course for SQL?",
		"content":  "Budget is 5k.",
		"category": "courses",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]interface{})
	assert.NotEmpty(t, data["postId"])

	rec, envelope = env.do(t, http.MethodPost, "/api/community/posts", "", map[string]interface{}{
		"title":    "Mock interview partners",
		"content":  "Anyone preparing for analyst roles?",
		"category": "interviews",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	_, envelope = env.do(t, http.MethodGet, "/api/community/posts", "", nil)
	data = envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["totalCount"])

	_, envelope = env.do(t, http.MethodGet, "/api/community/posts?category=courses", "", nil)
	data = envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["totalCount"])
	posts := data["posts"].([]interface{})
	post := posts[0].(map[string]interface{})
	assert.Equal(t, "Which course for SQL?", post["title"])
}

func TestCreatePostMissingFields(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, envelope := env.do(t, http.MethodPost, "/api/community/posts", "",
		map[string]interface{}{"title": "No content"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeMissingField, errorCode(t, envelope))
}

func TestSeedDataEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, envelope := env.do(t, http.MethodPost, "/api/admin/seed-data", "",
		map[string]interface{}{"dataType": "careerPaths", "count": 2})

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
	assert.Contains(t, envelope["message"], "careerPaths")

	paths, err := env.store.ListCareerPaths(context.Background())
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestSimulatorRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup(t, "student@example.com")

	rec, envelope := env.do(t, http.MethodPost, "/api/simulator/analyze", token,
		map[string]interface{}{"profile": map[string]interface{}{"branch": "CSE", "cgpa": 8.1}})

	require.Equal(t, http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "Data Analyst", data["overallRecommendation"])
	assert.Equal(t, 1, env.ai.simulatorCalls)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
