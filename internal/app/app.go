// Package app assembles the HTTP server: Echo instance, middleware chain,
// centralized error handling, and route registration for every resource.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mleroux/taskforge/internal/apperror"
	"github.com/mleroux/taskforge/internal/config"
	"github.com/mleroux/taskforge/internal/middleware"
)

// App holds the assembled server and its shared resources.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Redis  *redis.Client
	Echo   *echo.Echo
}

// New builds the Echo instance with the full middleware chain and the
// centralized error handler. Routes are mounted separately by
// RegisterRoutes so tests can assemble partial apps.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = errorHandler

	// Recovery first so panics in later middleware are caught too.
	e.Use(middleware.Recovery())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	middleware.TrustedProxies(e, cfg.TrustedProxies)

	return &App{Config: cfg, DB: db, Redis: rdb, Echo: e}
}

// Start listens on the configured port until the context is canceled, then
// drains in-flight requests.
func (a *App) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", a.Config.Port)
		slog.Info("server listening", "addr", addr, "env", a.Config.Env)
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Echo.Shutdown(shutdownCtx)
}

// errorHandler maps every error that escapes a handler to the JSON envelope
// {status, message [, details, suggestions]}. AppError values keep their
// status code and safe message; everything else becomes an opaque 500.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := map[string]any{
		"status":  "error",
		"message": "Internal server error",
	}

	var appErr *apperror.AppError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		body["status"] = appErr.Status()
		body["message"] = appErr.Message
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		if len(appErr.Suggestions) > 0 {
			body["suggestions"] = appErr.Suggestions
		}
		if appErr.Internal != nil {
			slog.Error("request failed", "type", appErr.Type, "error", appErr.Internal)
		}
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if code < http.StatusInternalServerError {
			body["status"] = "fail"
		}
		if msg, ok := httpErr.Message.(string); ok {
			body["message"] = msg
		} else {
			body["message"] = http.StatusText(code)
		}
	default:
		slog.Error("unhandled error", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(code); err != nil {
			slog.Error("writing error response", "error", err)
		}
		return
	}
	if err := c.JSON(code, body); err != nil {
		slog.Error("writing error response", "error", err)
	}
}
