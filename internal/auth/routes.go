package auth

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mleroux/taskforge/internal/middleware"
	"github.com/mleroux/taskforge/internal/password"
)

// RegisterRoutes sets up all auth routes on the given Echo instance.
// The RequireAuth middleware is exported separately for other packages to
// use on their route groups.
//
// POST endpoints handling credentials are rate-limited to slow down
// brute-force and credential stuffing: 10 attempts per IP per minute for
// login, 5 for register and forgot-password.
func RegisterRoutes(e *echo.Echo, h *Handler, tokens *TokenService, users UserRepository, rdb *redis.Client) {
	g := e.Group("/auth")

	// Public routes -- no bearer token required.
	g.POST("/register", h.Register,
		middleware.RateLimit(rdb, "register", 5, time.Minute),
		password.CheckStrength(),
	)
	g.POST("/login", h.Login,
		middleware.RateLimit(rdb, "login", 10, time.Minute),
	)
	g.POST("/forgot-password", h.ForgotPassword,
		middleware.RateLimit(rdb, "forgot", 5, time.Minute),
	)
	g.POST("/reset-password", h.ResetPassword,
		password.CheckStrength(),
	)

	// Cookie-credential routes -- the refresh cookie is the credential.
	g.POST("/refresh", h.Refresh)
	g.POST("/revoke", h.Revoke)
	g.GET("/token-info", h.TokenInfo)

	// Logout accepts either an authenticated caller or a bare cookie.
	g.POST("/logout", h.Logout, OptionalAuth(tokens))

	// Bearer-token routes.
	authed := RequireAuth(tokens, users)
	g.POST("/revoke-all", h.RevokeAll, authed)
	g.GET("/me", h.Me, authed)
	g.POST("/change-password", h.ChangePassword, authed, password.CheckStrength())
}
