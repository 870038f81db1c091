// Package auth owns the authentication core: user accounts, password
// hashing, token issuance and verification, and the session lifecycle
// (register, login, logout, refresh, revoke). Handlers call the service;
// the service calls the repositories. No SQL or HTTP leaks between layers.
package auth

import (
	"time"
)

// User is the identity record. The password hash and reset-token fields are
// never serialized to clients.
type User struct {
	ID           string     `json:"id"`
	Firstname    string     `json:"firstname"`
	Lastname     string     `json:"lastname"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON responses.
	ResetHash    *string    `json:"-"` // SHA-256 of the pending reset token. Never expose.
	ResetExpires *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RefreshToken is the stored credential backing one session. At most one
// live row exists per user after any issuance (delete-all then insert);
// rotation overwrites the same row in place.
type RefreshToken struct {
	ID        string    `json:"-"`
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenPair is the result of a successful register/login/refresh: the
// access token goes in the JSON body, the refresh token in the cookie.
type TokenPair struct {
	Access  string
	Refresh string
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted on registration.
type RegisterRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest holds the login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest asks for a reset email.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the anonymous reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest changes the password of an authenticated user.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the sanitized input for creating a new user.
type RegisterInput struct {
	Firstname string
	Lastname  string
	Email     string
	Password  string
}

// LoginInput is the input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

// TokenInfo describes the current refresh token for diagnostics.
type TokenInfo struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
