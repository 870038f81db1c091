package categories

import (
	"github.com/labstack/echo/v4"

	"github.com/mleroux/taskforge/internal/auth"
)

// RegisterRoutes mounts the category endpoints under /categories. Listing
// is open; mutations require an access token.
func RegisterRoutes(e *echo.Echo, h *Handler, tokens *auth.TokenService, users auth.UserRepository) {
	g := e.Group("/categories")

	g.GET("", h.List)

	protected := g.Group("", auth.RequireAuth(tokens, users))
	protected.POST("", h.Create)
	protected.DELETE("/:id", h.Delete)
}
