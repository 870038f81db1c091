// Command server runs the taskforge HTTP API: user accounts with JWT
// sessions, tasks, categories and completion statistics, backed by MariaDB
// and Redis.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mleroux/taskforge/internal/app"
	"github.com/mleroux/taskforge/internal/config"
	"github.com/mleroux/taskforge/internal/database"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg)

	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to MariaDB: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to Redis: %w", err)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, db, rdb)
	sweeper := a.RegisterRoutes()
	go sweeper.Start(ctx)

	return a.Start(ctx)
}

// setupLogging installs the default slog handler: human-readable text in
// development, JSON in production.
func setupLogging(cfg *config.Config) {
	level := parseLevel(cfg.LogLevel)
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
