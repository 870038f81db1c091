// Package apperror provides domain-specific error types for taskforge.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 401, 409, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "authentication_error").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Details carries field-level validation messages, when present.
	Details []string `json:"details,omitempty"`

	// Suggestions carries static remediation hints shown next to Details.
	Suggestions []string `json:"suggestions,omitempty"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Status returns "fail" for 4xx errors and "error" for everything else,
// matching the response envelope {status, message} used by all handlers.
func (e *AppError) Status() string {
	if e.Code >= 400 && e.Code < 500 {
		return "fail"
	}
	return "error"
}

// --- Constructors for the error taxonomy ---

// NewValidation creates a 400 Bad Request error for malformed input,
// policy violations, or missing required fields.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "validation_error",
		Message: message,
	}
}

// NewValidationDetails creates a 400 error carrying a list of individual
// violations (e.g., every failed password-policy rule at once) plus
// remediation suggestions.
func NewValidationDetails(message string, details, suggestions []string) *AppError {
	return &AppError{
		Code:        http.StatusBadRequest,
		Type:        "validation_error",
		Message:     message,
		Details:     details,
		Suggestions: suggestions,
	}
}

// NewAuthentication creates a 401 Unauthorized error for a missing, invalid
// or expired token, bad credentials, or a missing refresh cookie.
func NewAuthentication(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "authentication_error",
		Message: message,
	}
}

// NewNotFound creates a 404 Not Found error for a resource that is absent
// or not owned by the caller.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewConflict creates a 409 Conflict error for duplicate unique fields.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "conflict_error",
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
