package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse carries the profile, its token and what the role may do.
type LoginResponse struct {
	Profile     ProfileResponse `json:"profile"`
	Auth        AuthResponse    `json:"auth"`
	Permissions []string        `json:"permissions"`
}

// CreateUserRequest payload for POST /users.
type CreateUserRequest struct {
	FullName       string          `json:"full_name" validate:"required,max=200"`
	Email          string          `json:"email" validate:"required,email"`
	Password       string          `json:"password" validate:"required,min=8"`
	Role           domain.UserRole `json:"role" validate:"omitempty,oneof=reporter maintenance housekeeper sub_director admin"`
	TelegramChatID *string         `json:"telegram_chat_id"`
}

// ProfileResponse is the public view of a profile.
type ProfileResponse struct {
	ID             string          `json:"id"`
	FullName       string          `json:"full_name"`
	Email          string          `json:"email"`
	Role           domain.UserRole `json:"role"`
	RoleLabel      string          `json:"role_label"`
	TelegramChatID *string         `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
