package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/i18n"
)

type seedRequest struct {
	DataType string `json:"dataType"`
	Count    int    `json:"count"`
}

// SeedData generates placeholder rows with the AI and pushes them under the
// requested collection.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}
	if req.DataType == "" {
		writeError(w, http.StatusBadRequest, CodeMissingField, "DataType is required", "")
		return
	}
	if req.Count <= 0 {
		req.Count = 10
	}

	rows, err := h.ai.GenerateSeedData(r.Context(), req.DataType, req.Count)
	if err != nil {
		h.writeServiceError(w, r, "seed", err)
		return
	}

	now := time.Now().UnixMilli()
	for _, row := range rows {
		row["metadata"] = map[string]interface{}{
			"createdAt": now,
			"verified":  true,
			"seeded":    true,
		}
	}

	ids, err := h.store.SeedRows(r.Context(), req.DataType, rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeStoreWrite, err.Error(), "")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]int{"count": len(ids)},
		h.localizer.Get(requestLanguage(r), i18n.MsgSeeded, map[string]interface{}{
			"Count":      len(ids),
			"Collection": req.DataType,
		}))
}
