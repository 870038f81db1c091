package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mleroux/taskforge/internal/apperror"
	"github.com/mleroux/taskforge/internal/password"
	"github.com/mleroux/taskforge/internal/sanitize"
)

// refreshCookieName is the HTTP cookie carrying the refresh token.
const refreshCookieName = "refreshToken"

// Handler handles HTTP requests for authentication. Handlers are thin:
// they bind the request, call the service, and render the response.
// No business logic lives here.
type Handler struct {
	service    AuthService
	production bool
}

// NewHandler creates a new auth handler. production controls the Secure
// flag on the refresh cookie.
func NewHandler(service AuthService, production bool) *Handler {
	return &Handler{service: service, production: production}
}

// Register creates an account and opens a session (POST /auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	input := RegisterInput{
		Firstname: sanitize.Text(req.Firstname),
		Lastname:  sanitize.Text(req.Lastname),
		Email:     sanitize.Email(req.Email),
		Password:  req.Password,
	}

	user, pair, err := h.service.Register(c.Request().Context(), input)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.Refresh)

	body := map[string]any{
		"status":  "success",
		"message": "User registered successfully",
		"token":   pair.Access,
		"user":    user,
	}
	// Attached by the strength middleware; informational only.
	if strength, ok := password.StrengthFromContext(c); ok {
		body["passwordStrength"] = strength
	}

	return c.JSON(http.StatusCreated, body)
}

// Login authenticates and opens a session (POST /auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	user, pair, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    sanitize.Email(req.Email),
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.Refresh)

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "User logged in successfully",
		"token":   pair.Access,
		"user":    user,
	})
}

// Logout deletes all of the acting user's refresh tokens and clears the
// cookie (POST /auth/logout). Always returns 200: repeated logouts with no
// token anywhere are fine.
func (h *Handler) Logout(c echo.Context) error {
	_ = h.service.Logout(c.Request().Context(), UserID(c), h.refreshCookie(c))

	h.clearRefreshCookie(c)

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "User logged out successfully",
	})
}

// Refresh rotates the refresh token and mints a new access token
// (POST /auth/refresh). No bearer token required; the cookie is the
// credential.
func (h *Handler) Refresh(c echo.Context) error {
	cookie := h.refreshCookie(c)
	if cookie == "" {
		return apperror.NewAuthentication("Refresh token missing")
	}

	pair, err := h.service.Refresh(c.Request().Context(), cookie)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.Refresh)

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Token refreshed successfully",
		"token":   pair.Access,
	})
}

// Revoke deletes the presented refresh token (POST /auth/revoke).
func (h *Handler) Revoke(c echo.Context) error {
	cookie := h.refreshCookie(c)
	if cookie == "" {
		return apperror.NewAuthentication("Refresh token missing")
	}

	if err := h.service.Revoke(c.Request().Context(), cookie); err != nil {
		return err
	}

	h.clearRefreshCookie(c)

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Token revoked successfully",
	})
}

// RevokeAll deletes every refresh token of the authenticated caller
// (POST /auth/revoke-all). Requires a bearer token.
func (h *Handler) RevokeAll(c echo.Context) error {
	if err := h.service.RevokeAll(c.Request().Context(), UserID(c)); err != nil {
		return err
	}

	h.clearRefreshCookie(c)

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "All tokens revoked successfully",
	})
}

// Me returns the authenticated user's public record (GET /auth/me).
func (h *Handler) Me(c echo.Context) error {
	user, err := h.service.CurrentUser(c.Request().Context(), UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"user":   user,
	})
}

// TokenInfo returns metadata about the presented refresh token
// (GET /auth/token-info).
func (h *Handler) TokenInfo(c echo.Context) error {
	cookie := h.refreshCookie(c)
	if cookie == "" {
		return apperror.NewAuthentication("Refresh token missing")
	}

	info, err := h.service.TokenInfo(c.Request().Context(), cookie)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    "success",
		"tokenInfo": info,
	})
}

// ForgotPassword starts the emailed reset flow (POST /auth/forgot-password).
// The response is the same whether or not the email matches an account.
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	if err := h.service.ForgotPassword(c.Request().Context(), sanitize.Email(req.Email)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "If the address matches an account, a reset email has been sent",
	})
}

// ResetPassword completes the emailed reset flow (POST /auth/reset-password).
func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	if err := h.service.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Password reset successfully",
	})
}

// ChangePassword changes the authenticated user's password
// (POST /auth/change-password).
func (h *Handler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}

	if err := h.service.ChangePassword(c.Request().Context(), UserID(c), req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Password changed successfully",
	})
}

// --- Cookie helpers ---

// refreshCookie reads the refresh token from the cookie, or "".
func (h *Handler) refreshCookie(c echo.Context) string {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setRefreshCookie sets the refresh-token cookie: HttpOnly (JS can't read
// it), SameSite=Strict, Partitioned, Secure in production, 7 day max age.
func (h *Handler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:        refreshCookieName,
		Value:       token,
		Path:        "/",
		HttpOnly:    true,
		Secure:      h.production,
		SameSite:    http.SameSiteStrictMode,
		Partitioned: true,
		MaxAge:      7 * 24 * 60 * 60, // 7 days in seconds
	})
}

// clearRefreshCookie removes the cookie by setting MaxAge to -1.
func (h *Handler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:        refreshCookieName,
		Value:       "",
		Path:        "/",
		HttpOnly:    true,
		Secure:      h.production,
		SameSite:    http.SameSiteStrictMode,
		Partitioned: true,
		MaxAge:      -1,
	})
}
