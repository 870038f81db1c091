package auth

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically removes refresh tokens that are past expiry or
// whose owning user no longer exists. Account deletion does not cascade
// to tokens transactionally; this sweep is the eventual cleanup.
type Sweeper struct {
	store    TokenRepository
	interval time.Duration
}

// NewSweeper creates a sweeper running at the given interval.
func NewSweeper(store TokenRepository, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval}
}

// Start runs the sweep loop until ctx is cancelled. Call in a goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// One sweep at startup so a long-stopped instance catches up immediately.
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one cleanup pass. Failures are logged, never fatal: the next
// tick retries.
func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.store.DeleteExpired(ctx)
	if err != nil {
		slog.Warn("expired token sweep failed", slog.Any("error", err))
	}

	orphans, err := s.store.DeleteOrphans(ctx)
	if err != nil {
		slog.Warn("orphan token sweep failed", slog.Any("error", err))
	}

	if expired > 0 || orphans > 0 {
		slog.Info("refresh token sweep",
			slog.Int64("expired_deleted", expired),
			slog.Int64("orphans_deleted", orphans),
		)
	}
}
