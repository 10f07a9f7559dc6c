package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	cachekey "github.com/margdarshan-ai/margdarshan/internal/services/cache"
	"github.com/margdarshan-ai/margdarshan/pkg/logger"
)

type roadmapRequest struct {
	TargetRole    string   `json:"targetRole"`
	CurrentSkills []string `json:"currentSkills"`
	HoursPerWeek  int      `json:"hoursPerWeek"`
	Weeks         int      `json:"weeks"`
	Budget        int      `json:"budget"`
}

// GenerateRoadmap produces a study roadmap, cached for a week per
// (role, weeks) fingerprint.
func (h *Handler) GenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	endpoint := config.EndpointRoadmap

	id, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.limiter.Allow(r.Context(), id.UserID, endpoint); err != nil {
		h.writeServiceError(w, r, endpoint, err)
		return
	}

	req := roadmapRequest{HoursPerWeek: 20, Weeks: 8, Budget: 100000}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}
	if req.TargetRole == "" {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Target role is required", "")
		return
	}

	fingerprint := cachekey.RoadmapKey(req.TargetRole, req.Weeks)

	response, cached, err := h.cache.GetOrGenerate(r.Context(), fingerprint, h.cfg.Cache.RoadmapTTL,
		func(ctx context.Context) (json.RawMessage, error) {
			logger.WithRequest(h.logger, id.UserID, endpoint).Info("Generating roadmap")

			aiStarted := time.Now()
			roadmap, err := h.ai.GenerateRoadmap(ctx, req.TargetRole, req.CurrentSkills, req.HoursPerWeek, req.Weeks, req.Budget)
			if err != nil {
				h.metrics.RecordAIRequest(endpoint, "error", time.Since(aiStarted))
				return nil, err
			}
			h.metrics.RecordAIRequest(endpoint, "success", time.Since(aiStarted))
			return json.Marshal(roadmap)
		})
	if err != nil {
		h.metrics.RecordAPIRequest(endpoint, "error", time.Since(started))
		h.writeServiceError(w, r, endpoint, err)
		return
	}

	message := h.localizer.Get(requestLanguage(r), i18n.MsgSuccess, nil)
	if cached {
		h.metrics.RecordCacheHit(endpoint)
		message = h.localizer.Get(requestLanguage(r), i18n.MsgCacheHit, nil)
	} else {
		h.metrics.RecordCacheMiss(endpoint)
	}

	h.metrics.RecordAPIRequest(endpoint, "success", time.Since(started))
	writeSuccess(w, http.StatusOK, response, message)
}
