package categories

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mleroux/taskforge/internal/apperror"
)

// Handler exposes the category endpoints.
type Handler struct {
	service Service
}

// NewHandler creates a category handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /categories.
func (h *Handler) List(c echo.Context) error {
	categories, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "success",
		"categories": categories,
	})
}

// Create handles POST /categories.
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}
	category, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"status":   "success",
		"category": category,
	})
}

// Delete handles DELETE /categories/:id.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Category deleted",
	})
}
