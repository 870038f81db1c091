package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mleroux/taskforge/internal/auth"
)

// Handler exposes the statistics endpoints.
type Handler struct {
	repo Repository
}

// NewHandler creates a stats handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// byBucket builds the handler for one granularity so the four routes share
// a single implementation.
func (h *Handler) byBucket(granularity string) echo.HandlerFunc {
	return func(c echo.Context) error {
		buckets, err := h.repo.CompletedByBucket(c.Request().Context(), auth.UserID(c), granularity)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status": "success",
			"stats":  buckets,
		})
	}
}

// RegisterRoutes mounts the statistics endpoints under /stats. Every route
// requires a valid access token.
func RegisterRoutes(e *echo.Echo, h *Handler, tokens *auth.TokenService, users auth.UserRepository) {
	g := e.Group("/stats", auth.RequireAuth(tokens, users))

	g.GET("/tasks/by-day", h.byBucket(ByDay))
	g.GET("/tasks/by-week", h.byBucket(ByWeek))
	g.GET("/tasks/by-month", h.byBucket(ByMonth))
	g.GET("/tasks/by-year", h.byBucket(ByYear))
}
