package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/margdarshan-ai/margdarshan/internal/store"
)

type validatorRequest struct {
	CourseID    string                 `json:"courseId"`
	UserProfile *models.StudentProfile `json:"userProfile"`
}

// ValidateCourse analyzes a stored course against a student profile.
// Validation results are profile-specific and not cached.
func (h *Handler) ValidateCourse(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	endpoint := config.EndpointValidator

	id, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.limiter.Allow(r.Context(), id.UserID, endpoint); err != nil {
		h.writeServiceError(w, r, endpoint, err)
		return
	}

	var req validatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}
	if req.CourseID == "" {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Course ID is required", "")
		return
	}
	if req.UserProfile == nil {
		req.UserProfile = &models.StudentProfile{}
	}

	course, err := h.store.GetCourse(r.Context(), req.CourseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeRowNotFound, "Course not found", "")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeStoreRead, err.Error(), "")
		return
	}

	aiStarted := time.Now()
	analysis, err := h.ai.ValidateCourse(r.Context(), course, req.UserProfile)
	if err != nil {
		h.metrics.RecordAIRequest(endpoint, "error", time.Since(aiStarted))
		h.metrics.RecordAPIRequest(endpoint, "error", time.Since(started))
		h.writeServiceError(w, r, endpoint, err)
		return
	}
	h.metrics.RecordAIRequest(endpoint, "success", time.Since(aiStarted))

	h.metrics.RecordAPIRequest(endpoint, "success", time.Since(started))
	writeSuccess(w, http.StatusOK, analysis, h.localizer.Get(requestLanguage(r), i18n.MsgSuccess, nil))
}
