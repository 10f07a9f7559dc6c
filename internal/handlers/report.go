package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/models"
)

type profileRequest struct {
	Profile *models.StudentProfile `json:"profile"`
}

// GenerateReport produces the full career analyst report for a profile.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	endpoint := config.EndpointReport

	id, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.limiter.Allow(r.Context(), id.UserID, endpoint); err != nil {
		h.writeServiceError(w, r, endpoint, err)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}
	if req.Profile == nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Profile is required", "")
		return
	}

	aiStarted := time.Now()
	report, err := h.ai.GenerateCareerReport(r.Context(), req.Profile)
	if err != nil {
		h.metrics.RecordAIRequest(endpoint, "error", time.Since(aiStarted))
		h.metrics.RecordAPIRequest(endpoint, "error", time.Since(started))
		h.writeServiceError(w, r, endpoint, err)
		return
	}
	h.metrics.RecordAIRequest(endpoint, "success", time.Since(aiStarted))

	h.metrics.RecordAPIRequest(endpoint, "success", time.Since(started))
	writeSuccess(w, http.StatusOK, report, h.localizer.Get(requestLanguage(r), i18n.MsgSuccess, nil))
}

// RecommendCareers suggests top career paths for a profile.
func (h *Handler) RecommendCareers(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	endpoint := "recommendations"

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}
	if req.Profile == nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Profile is required", "")
		return
	}

	aiStarted := time.Now()
	recs, err := h.ai.RecommendCareers(r.Context(), req.Profile)
	if err != nil {
		h.metrics.RecordAIRequest(endpoint, "error", time.Since(aiStarted))
		h.metrics.RecordAPIRequest(endpoint, "error", time.Since(started))
		h.writeServiceError(w, r, endpoint, err)
		return
	}
	h.metrics.RecordAIRequest(endpoint, "success", time.Since(aiStarted))

	h.metrics.RecordAPIRequest(endpoint, "success", time.Since(started))
	writeSuccess(w, http.StatusOK, recs, h.localizer.Get(requestLanguage(r), i18n.MsgSuccess, nil))
}
