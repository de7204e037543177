package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                       uuid.UUID  `json:"id"`
	Username                 string     `json:"username"`
	PasswordHash             string     `json:"-"`
	IsAdmin                  bool       `json:"is_admin"`
	InvitationToken          *string    `json:"-"`
	TokenExpiry              *time.Time `json:"token_expiry,omitempty"`
	IsPasswordChangeRequired bool       `json:"is_password_change_required"`
	CreatedAt                time.Time  `json:"created_at"`
	LastLoginAt              *time.Time `json:"last_login_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type InviteUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type InvitationInfo struct {
	Username    string    `json:"username"`
	TokenExpiry time.Time `json:"token_expiry"`
}

type AcceptInvitationRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
