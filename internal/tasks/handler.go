package tasks

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mleroux/taskforge/internal/apperror"
	"github.com/mleroux/taskforge/internal/auth"
)

// Handler exposes the task endpoints.
type Handler struct {
	service Service
}

// NewHandler creates a task handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /tasks.
func (h *Handler) List(c echo.Context) error {
	tasks, err := h.service.List(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"tasks":  tasks,
	})
}

// Get handles GET /tasks/:id.
func (h *Handler) Get(c echo.Context) error {
	task, err := h.service.Get(c.Request().Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"task":   task,
	})
}

// Create handles POST /tasks.
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}
	task, err := h.service.Create(c.Request().Context(), auth.UserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"status": "success",
		"task":   task,
	})
}

// Update handles PUT /tasks/:id.
func (h *Handler) Update(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("Invalid request body")
	}
	task, err := h.service.Update(c.Request().Context(), c.Param("id"), auth.UserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"task":   task,
	})
}

// Delete handles DELETE /tasks/:id.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), auth.UserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Task deleted",
	})
}
