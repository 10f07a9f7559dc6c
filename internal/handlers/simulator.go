package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	cachekey "github.com/margdarshan-ai/margdarshan/internal/services/cache"
	"github.com/margdarshan-ai/margdarshan/pkg/logger"
)

type simulatorRequest struct {
	Profile *models.StudentProfile `json:"profile"`
}

// AnalyzeSimulation ranks the stored career paths for a student profile.
// Results are cached for a day under a hash of the serialized profile.
func (h *Handler) AnalyzeSimulation(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	endpoint := config.EndpointSimulator

	id, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.limiter.Allow(r.Context(), id.UserID, endpoint); err != nil {
		h.writeServiceError(w, r, endpoint, err)
		return
	}

	var req simulatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}
	if req.Profile == nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Profile is required", "")
		return
	}

	fingerprint, err := cachekey.ProfileKey(req.Profile)
	if err != nil {
		h.writeServiceError(w, r, endpoint, err)
		return
	}

	response, cached, err := h.cache.GetOrGenerate(r.Context(), fingerprint, h.cfg.Cache.SimulatorTTL,
		func(ctx context.Context) (json.RawMessage, error) {
			logger.WithRequest(h.logger, id.UserID, endpoint).Info("Running career simulation")

			paths, err := h.store.ListCareerPaths(ctx)
			if err != nil {
				return nil, err
			}

			aiStarted := time.Now()
			result, err := h.ai.SimulateCareerPath(ctx, req.Profile, paths)
			if err != nil {
				h.metrics.RecordAIRequest(endpoint, "error", time.Since(aiStarted))
				return nil, err
			}
			h.metrics.RecordAIRequest(endpoint, "success", time.Since(aiStarted))
			return json.Marshal(result)
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
