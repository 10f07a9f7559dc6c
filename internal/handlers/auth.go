package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/margdarshan-ai/margdarshan/internal/services/identity"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	UserType string `json:"userType"`
}

// Signup creates an identity record and an initial profile row. The two
// writes are not transactional: if the profile write fails the identity is
// left orphaned, which is logged and surfaced as a signup failure.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Missing required fields: email, password, or name", "")
		return
	}
	if req.UserType == "" {
		req.UserType = "student"
	}

	userID, err := h.identity.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) || errors.Is(err, identity.ErrWeakPassword) {
			writeError(w, http.StatusBadRequest, CodeSignupFailed, err.Error(), "")
			return
		}
		h.writeServiceError(w, r, "signup", err)
		return
	}

	now := time.Now().UnixMilli()
	profile := &models.UserProfile{
		Email:     req.Email,
		Name:      req.Name,
		UserType:  req.UserType,
		CreatedAt: now,
		LastLogin: now,
	}
	if err := h.store.SaveUserProfile(r.Context(), userID, profile); err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Profile write failed after identity creation, identity orphaned")
		writeError(w, http.StatusInternalServerError, CodeSignupFailed, "Signup failed", "Please try again")
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]interface{}{
		"user": map[string]string{
			"uid":   userID,
			"email": req.Email,
			"name":  req.Name,
		},
	}, h.localizer.Get(requestLanguage(r), i18n.MsgAccountCreated, nil))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Invalid request body", "")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeMissingField, "Missing required fields: email or password", "")
		return
	}

	userID, err := h.identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid email or password", "")
			return
		}
		h.writeServiceError(w, r, "login", err)
		return
	}

	// Best-effort last-login touch.
	if profile, err := h.store.GetUserProfile(r.Context(), userID); err == nil && profile != nil {
		profile.LastLogin = time.Now().UnixMilli()
		if err := h.store.SaveUserProfile(r.Context(), userID, profile); err != nil {
			h.logger.WithError(err).WithField("user_id", userID).Warn("Failed to update last login")
		}
	}

	writeSuccess(w, http.StatusOK, map[string]string{
		"uid":   userID,
		"token": h.identity.IssueToken(userID),
	}, h.localizer.Get(requestLanguage(r), i18n.MsgLoginSuccess, nil))
}
