package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/middleware"
	"github.com/margdarshan-ai/margdarshan/internal/ratelimit"
	"github.com/margdarshan-ai/margdarshan/internal/services/ai"
	"github.com/margdarshan-ai/margdarshan/internal/services/cache"
	"github.com/margdarshan-ai/margdarshan/internal/services/identity"
	"github.com/margdarshan-ai/margdarshan/internal/store"
	"github.com/sirupsen/logrus"
)

// Handler wires the API endpoints to the backing services.
type Handler struct {
	cfg       *config.Config
	store     store.Store
	identity  *identity.Provider
	limiter   *ratelimit.Limiter
	cache     *cache.Cache
	ai        ai.Service
	localizer *i18n.Localizer
	metrics   *middleware.Metrics
	logger    *logrus.Logger
}

func NewHandler(
	cfg *config.Config,
	st store.Store,
	idp *identity.Provider,
	limiter *ratelimit.Limiter,
	responseCache *cache.Cache,
	aiService ai.Service,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     st,
		identity:  idp,
		limiter:   limiter,
		cache:     responseCache,
		ai:        aiService,
		localizer: localizer,
		metrics:   metrics,
		logger:    logger,
	}
}

// Router builds the API router with middleware applied.
func (h *Handler) Router(ipLimiter *middleware.IPLimiter) http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signup", h.Signup).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/roadmap/generate", h.GenerateRoadmap).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/simulator/analyze", h.AnalyzeSimulation).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/validator/analyze", h.ValidateCourse).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/report/generate", h.GenerateReport).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/recommendations", h.RecommendCareers).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/chat/mentor", h.MentorChat).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/community/posts", h.ListPosts).Methods(http.MethodGet)
	api.HandleFunc("/community/posts", h.CreatePost).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/admin/seed-data", h.SeedData).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	handler := middleware.CORS(router)
	if ipLimiter != nil {
		handler = ipLimiter.Middleware(handler)
	}
	return handler
}

// authenticate verifies the bearer credential on a request. A missing or
// malformed header never reaches the rate limiter or the orchestrator.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		writeError(w, http.StatusUnauthorized, CodeNoToken, "No token provided", "Include an Authorization: Bearer header")
		return nil, false
	}

	token := strings.TrimPrefix(header, "Bearer ")
	id, err := h.identity.VerifyToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token", "Sign in again to refresh your session")
		return nil, false
	}
	return id, true
}
