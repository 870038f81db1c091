package tasks

import (
	"github.com/labstack/echo/v4"

	"github.com/mleroux/taskforge/internal/auth"
)

// RegisterRoutes mounts the task endpoints under /tasks. Every route
// requires a valid access token.
func RegisterRoutes(e *echo.Echo, h *Handler, tokens *auth.TokenService, users auth.UserRepository) {
	g := e.Group("/tasks", auth.RequireAuth(tokens, users))

	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
