package dto

import "time"

// UserRegisterRequest payload for requester self-registration.
type UserRegisterRequest struct {
	DNI        string  `json:"dni"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Department *string `json:"department"`
}

// LoginRequest payload for user and technician logins.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload for initiating a reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordSetRequest payload for consuming a one-time setup token.
type PasswordSetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public shape of a requester account.
type UserResponse struct {
	ID         string  `json:"id"`
	DNI        string  `json:"dni"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Department *string `json:"department"`
	Role       string  `json:"role"`
}
