package dto

import (
	"time"

	"github.com/stelaryous/ticketflow/internal/domain"
)

// RegisterUserRequest payload.
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and routing flags.
type LoginResponse struct {
	Token               string      `json:"token"`
	ExpiresAt           time.Time   `json:"expires_at"`
	Username            string      `json:"username"`
	Role                domain.Role `json:"role"`
	IsTemporaryPassword bool        `json:"is_temporary_password"`
	HasProfile          bool        `json:"has_profile"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserResponse response.
type UserResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// RegisterProfileRequest payload.
type RegisterProfileRequest struct {
	FullName  string `json:"full_name"`
	Nickname  string `json:"nickname"`
	BirthDate string `json:"birth_date"`
	PixKey    string `json:"pix_key"`
	Whatsapp  string `json:"whatsapp"`
	Email     string `json:"email"`
}

// ProfileResponse response.
type ProfileResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Nickname  string    `json:"nickname"`
	BirthDate time.Time `json:"birth_date"`
	PixKey    string    `json:"pix_key"`
	Whatsapp  string    `json:"whatsapp"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
