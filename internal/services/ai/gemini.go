package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrModelNotFound indicates a misconfigured model identifier; it is
	// never retried.
	ErrModelNotFound = errors.New("model not found")
	// ErrBadResponse indicates generated text that failed JSON parsing.
	ErrBadResponse = errors.New("malformed generation response")
)

// Service is the text-generation surface consumed by the handlers.
type Service interface {
	GenerateRoadmap(ctx context.Context, targetRole string, skills []string, hoursPerWeek, weeks, budget int) (*models.Roadmap, error)
	SimulateCareerPath(ctx context.Context, profile *models.StudentProfile, paths []models.CareerPath) (*models.SimulationResult, error)
	ValidateCourse(ctx context.Context, course *models.Course, profile *models.StudentProfile) (*models.CourseValidation, error)
	GenerateCareerReport(ctx context.Context, profile *models.StudentProfile) (*models.CareerReport, error)
	RecommendCareers(ctx context.Context, profile *models.StudentProfile) (*models.CareerRecommendations, error)
	ChatWithMentor(ctx context.Context, history []models.ChatMessage, message string) (string, error)
	GenerateSeedData(ctx context.Context, dataType string, count int) ([]map[string]interface{}, error)
}

// Client calls a Gemini-style generateContent endpoint with retry and
// backoff. The model identifier is resolved once at startup and never
// changes afterwards.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(cfg *config.AIConfig, logger *logrus.Logger) *Client {
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: retries,
		backoff:    2 * time.Second,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

// Model returns the model identifier the client is using.
func (c *Client) Model() string {
	return c.model
}

type modelListResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ResolveModel checks the configured model against the upstream model list
// and switches to a fallback when it is unavailable. Called once before the
// server starts serving; the selection is fixed for the process lifetime.
func (c *Client) ResolveModel(ctx context.Context, fallbacks []string) error {
	url := fmt.Sprintf("%s/models?key=%s", c.baseURL, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("Model list unavailable, keeping configured model")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warn("Model list request failed, keeping configured model")
		return nil
	}

	var list modelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("failed to parse model list: %w", err)
	}

	available := make(map[string]bool, len(list.Models))
	var names []string
	for _, m := range list.Models {
		name := strings.TrimPrefix(m.Name, "models/")
		available[name] = true
		names = append(names, name)
	}

	if available[c.model] {
		return nil
	}

	for _, fb := range fallbacks {
		if available[fb] {
			c.logger.WithFields(logrus.Fields{
				"configured": c.model,
				"fallback":   fb,
			}).Warn("Configured model unavailable, switching to fallback")
			c.model = fb
			return nil
		}
	}
	for _, name := range names {
		if strings.Contains(name, "flash") {
			c.logger.WithField("fallback", name).Warn("No preferred fallback available, using first flash model")
			c.model = name
			return nil
		}
	}
	if len(names) > 0 {
		c.logger.WithField("fallback", names[0]).Warn("No flash model available, using first listed model")
		c.model = names[0]
		return nil
	}

	return fmt.Errorf("%w: %s", ErrModelNotFound, c.model)
}

// Generate runs a prompt through the model with retry on transient upstream
// failures. A 404 fails immediately since it indicates misconfiguration, not
// a transient condition.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		text, retryable, err := c.generateOnce(ctx, prompt, attempt)
		if err == nil {
			return text, nil
		}
		if !retryable {
			return "", err
		}

		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"model":   c.model,
			"error":   err.Error(),
		}).Warn("Generation request failed, retrying...")

		if attempt < c.maxRetries {
			// Exponential backoff: 2s, 4s, 8s
			waitTime := c.backoff << uint(attempt-1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return "", fmt.Errorf("all retry attempts failed: %w", lastErr)
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) generateOnce(ctx context.Context, prompt string, attempt int) (string, bool, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"model":   c.model,
		"attempt": attempt,
	}).Debug("Sending generation request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return "", false, fmt.Errorf("%w: %s", ErrModelNotFound, c.model)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", true, fmt.Errorf("generation failed with status %d: %s", resp.StatusCode, string(body))
		}
		return "", false, fmt.Errorf("generation failed with client error %d: %s", resp.StatusCode, string(body))
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", false, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error.Message != "" {
		return "", false, fmt.Errorf("generation error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 ||
		len(result.Candidates[0].Content.Parts) == 0 ||
		result.Candidates[0].Content.Parts[0].Text == "" {
		return "", true, errors.New("empty response from model")
	}

	return result.Candidates[0].Content.Parts[0].Text, false, nil
}

// generateJSON runs a prompt and parses the generated text into out after
// stripping any markdown code fences.
func (c *Client) generateJSON(ctx context.Context, prompt string, out interface{}) error {
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return err
	}

	cleaned := StripFences(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		c.logger.WithError(err).WithField("model", c.model).Error("Generated text is not valid JSON")
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// StripFences removes markdown code-fence wrapping from generated text.
// Models sometimes wrap JSON in ```json fences even when told not to.
func StripFences(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
