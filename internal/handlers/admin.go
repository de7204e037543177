package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tubebrief-backend/internal/middleware"
	"tubebrief-backend/internal/models"
)

type adminUserStore interface {
	List(ctx context.Context) ([]*models.User, error)
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type adminAuthService interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	InviteUser(ctx context.Context, req models.InviteUserRequest) (*models.User, string, error)
}

type adminSummaryLister interface {
	ListAll(ctx context.Context) ([]*models.Summary, error)
}

// AdminHandler serves user management and the cross-user summary listing.
// Every route is behind the admin middleware.
type AdminHandler struct {
	users     adminUserStore
	auth      adminAuthService
	summaries adminSummaryLister
}

func NewAdminHandler(users adminUserStore, auth adminAuthService, summaries adminSummaryLister) *AdminHandler {
	return &AdminHandler{users: users, auth: auth, summaries: summaries}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Username is required", r))
		return
	}

	user, err := h.auth.CreateUser(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AdminHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	var req models.InviteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	user, token, err := h.auth.InviteUser(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":             user,
		"invitation_token": token,
	})
}

func (h *AdminHandler) SetUserAdmin(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	var req struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	// An admin cannot demote themselves, so there is always at least one left.
	if middleware.GetUserID(r.Context()) == targetID && !req.IsAdmin {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "You cannot revoke your own admin access", r))
		return
	}

	if err := h.users.SetAdmin(r.Context(), targetID, req.IsAdmin); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}

	if middleware.GetUserID(r.Context()) == targetID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "You cannot delete your own account", r))
		return
	}

	if err := h.users.Delete(r.Context(), targetID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// ListAllSummaries returns every user's summaries, for the admin dashboard.
func (h *AdminHandler) ListAllSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.summaries.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}
