package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/models"
)

type chatRequest struct {
	History []models.ChatMessage `json:"history"`
	Message string               `json:"message"`
}

// MentorChat answers one mentor-chat turn. Responses are conversational and
// never cached.
func (h *Handler) MentorChat(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	endpoint := config.EndpointChat

	id, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.limiter.Allow(r.Context(), id.UserID, endpoint); err != nil {
		h.writeServiceError(w, r, endpoint, err)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Message is required", "")
		return
	}

	aiStarted := time.Now()
	reply, err := h.ai.ChatWithMentor(r.Context(), req.History, req.Message)
	if err != nil {
		h.metrics.RecordAIRequest(endpoint, "error", time.Since(aiStarted))
		h.metrics.RecordAPIRequest(endpoint, "error", time.Since(started))
		h.writeServiceError(w, r, endpoint, err)
		return
	}
	h.metrics.RecordAIRequest(endpoint, "success", time.Since(aiStarted))

	h.metrics.RecordAPIRequest(endpoint, "success", time.Since(started))
	writeSuccess(w, http.StatusOK, map[string]string{"reply": reply},
		h.localizer.Get(requestLanguage(r), i18n.MsgSuccess, nil))
}
