package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/models"
)

// ListPosts returns the most recent forum posts, newest first, optionally
// filtered by category.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	category := r.URL.Query().Get("category")

	posts, err := h.store.ListForumPosts(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeStoreRead, err.Error(), "")
		return
	}

	if category != "" {
		filtered := make([]models.ForumPost, 0, len(posts))
		for _, post := range posts {
			if post.Category == category {
				filtered = append(filtered, post)
			}
		}
		posts = filtered
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"posts":      posts,
		"totalCount": len(posts),
	}, h.localizer.Get(requestLanguage(r), i18n.MsgSuccess, nil))
}

type createPostRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// CreatePost appends a forum post with fresh engagement counters.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Missing required fields: title or content", "")
		return
	}

	post := &models.ForumPost{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
		Metadata: models.PostMetadata{
			CreatedAt: time.Now().UnixMilli(),
			Status:    "open",
		},
	}

	postID, err := h.store.PushForumPost(r.Context(), post)
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeStoreWrite, err.Error(), "")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"postId": postID},
		h.localizer.Get(requestLanguage(r), i18n.MsgPostCreated, nil))
}
