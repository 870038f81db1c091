package app

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mleroux/taskforge/internal/auth"
	"github.com/mleroux/taskforge/internal/categories"
	"github.com/mleroux/taskforge/internal/mailer"
	"github.com/mleroux/taskforge/internal/stats"
	"github.com/mleroux/taskforge/internal/tasks"
)

// RegisterRoutes wires repositories, services and handlers for every
// resource and mounts their routes. Returns the token sweeper so the
// caller can run it on its own schedule.
func (a *App) RegisterRoutes() *auth.Sweeper {
	a.Echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	users := auth.NewUserRepository(a.DB)
	store := auth.NewTokenRepository(a.DB)
	tokenSvc := auth.NewTokenService(a.Config.Auth)
	mail := mailer.New(a.Config.SMTP)
	authSvc := auth.NewAuthService(users, store, tokenSvc, mail, a.Config.Auth.ResetTTL)
	auth.RegisterRoutes(a.Echo, auth.NewHandler(authSvc, a.Config.IsProduction()), tokenSvc, users, a.Redis)

	categorySvc := categories.NewService(categories.NewMariaDBRepository(a.DB))
	categories.RegisterRoutes(a.Echo, categories.NewHandler(categorySvc), tokenSvc, users)

	taskSvc := tasks.NewService(tasks.NewMariaDBRepository(a.DB), categorySvc)
	tasks.RegisterRoutes(a.Echo, tasks.NewHandler(taskSvc), tokenSvc, users)

	stats.RegisterRoutes(a.Echo, stats.NewHandler(stats.NewMariaDBRepository(a.DB)), tokenSvc, users)

	return auth.NewSweeper(store, time.Hour)
}
