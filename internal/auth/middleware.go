package auth

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mleroux/taskforge/internal/apperror"
)

// Context key for the authenticated user id. Other packages read it via
// the exported getter below.
const contextKeyUserID = "auth_user_id"

// RequireAuth returns middleware that gates protected routes. It requires
// an `Authorization: Bearer <token>` header, verifies the access token's
// signature and expiry, re-resolves the user by id (a deleted account may
// still hold an unexpired token), and attaches the user id to the request
// context. It never writes anything.
func RequireAuth(tokens *TokenService, users UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return apperror.NewAuthentication("Token missing or malformed")
			}

			claims, err := tokens.VerifyAccessToken(token)
			if err != nil {
				// Expired and invalid produce the same 401; the reason is
				// only for diagnostics.
				slog.Debug("access token rejected",
					slog.Any("reason", err),
					slog.String("path", c.Request().URL.Path),
				)
				if errors.Is(err, ErrTokenExpired) {
					return apperror.NewAuthentication("Token expired")
				}
				return apperror.NewAuthentication("Token invalid")
			}

			if _, err := users.FindByID(c.Request().Context(), claims.UserID); err != nil {
				// Only a missing user is an auth failure; a database error
				// must not tell the client their account is gone.
				if apperror.SafeCode(err) == 404 {
					return apperror.NewAuthentication("User no longer exists")
				}
				return apperror.NewInternal(err)
			}

			c.Set(contextKeyUserID, claims.UserID)
			return next(c)
		}
	}
}

// OptionalAuth returns middleware that attaches the user id when a valid
// bearer token is present but never rejects the request. Used by logout,
// which accepts both authenticated and cookie-only callers.
func OptionalAuth(tokens *TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := bearerToken(c); ok {
				if claims, err := tokens.VerifyAccessToken(token); err == nil {
					c.Set(contextKeyUserID, claims.UserID)
				}
			}
			return next(c)
		}
	}
}

// UserID retrieves the authenticated user's id from the Echo context.
// Returns empty string if the request is not authenticated.
func UserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

// bearerToken extracts the token from the Authorization header. Returns
// false when the header is missing or lacks the "Bearer " prefix.
func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
