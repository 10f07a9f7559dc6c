package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/ratelimit"
	"github.com/margdarshan-ai/margdarshan/internal/services/ai"
	"github.com/margdarshan-ai/margdarshan/internal/services/identity"
)

// Error codes surfaced in the error envelope.
const (
	CodeMissingField    = "VAL_002"
	CodeNoToken         = "AUTH_001"
	CodeInvalidToken    = "AUTH_002"
	CodeSignupFailed    = "AUTH_005"
	CodeRateLimited     = "RATE_002"
	CodeStoreRead       = "DB_001"
	CodeStoreWrite      = "DB_002"
	CodeRowNotFound     = "DB_003"
	CodeGeneration      = "AI_001"
	CodeModelConfig     = "AI_002"
	CodeInternal        = "SRV_001"
)

type successEnvelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
}

type errorEnvelope struct {
	Success   bool      `json:"success"`
	Error     errorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}

type errorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, successEnvelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeError(w http.ResponseWriter, status int, code, message, suggestion string) {
	writeJSON(w, status, errorEnvelope{
		Success:   false,
		Error:     errorBody{Code: code, Message: message, Suggestion: suggestion},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// requestLanguage picks the envelope language from the Accept-Language
// header; the localizer falls back to the default for unknown values.
func requestLanguage(r *http.Request) string {
	lang := r.Header.Get("Accept-Language")
	if idx := strings.IndexAny(lang, ",;-"); idx >= 0 {
		lang = lang[:idx]
	}
	return strings.TrimSpace(lang)
}

// writeServiceError maps a failure from the service layer to the uniform
// error envelope. Every handler path terminates here or in writeSuccess; no
// error escapes as an unhandled fault.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var limitErr *ratelimit.LimitError
	switch {
	case errors.As(err, &limitErr):
		h.metrics.RecordRateLimitExceeded(endpoint)
		msg := h.localizer.Get(requestLanguage(r), i18n.MsgRateLimitExceeded, map[string]interface{}{
			"Endpoint": limitErr.Endpoint,
			"Minutes":  limitErr.RetryAfterMinutes(),
		})
		writeError(w, http.StatusTooManyRequests, CodeRateLimited, msg, "Wait for the window to reset before retrying")
	case errors.Is(err, identity.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token", "Sign in again to refresh your session")
	case errors.Is(err, ai.ErrModelNotFound):
		writeError(w, http.StatusBadGateway, CodeModelConfig, err.Error(), "Check the configured model identifier")
	case errors.Is(err, ai.ErrBadResponse):
		writeError(w, http.StatusBadGateway, CodeGeneration, "The AI response could not be parsed", "Please resubmit the request")
	default:
		h.logger.WithError(err).WithField("endpoint", endpoint).Error("Request failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error(), "")
	}
}
