package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/bindiq/onboarding-server/internal/store"
)

const (
	cleanupInterval     = 5 * time.Minute
	completedSessionTTL = 7 * 24 * time.Hour
)

// StartCleanupWorker launches the background sweep that closes sockets for
// idle users and prunes completed sessions. It stops when ctx is cancelled.
func StartCleanupWorker(ctx context.Context, repo store.Repository, sessions *SessionManager, idleTTL time.Duration) {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		slog.Info("Cleanup worker started", "interval", cleanupInterval, "idle_ttl", idleTTL)
		for {
			select {
			case <-ticker.C:
				sweep(ctx, repo, sessions, idleTTL)
			case <-ctx.Done():
				slog.Info("Cleanup worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, repo store.Repository, sessions *SessionManager, idleTTL time.Duration) {
	idle, err := repo.GetIdleUsers(ctx, idleTTL)
	if err != nil {
		slog.Error("Failed to list idle users", "error", err)
	} else {
		for _, userID := range idle {
			sessions.CloseSessions(userID)
		}
		if len(idle) > 0 {
			slog.Info("Closed idle conversations", "count", len(idle))
		}
	}

	deleted, err := repo.CleanupCompletedSessions(ctx, completedSessionTTL)
	if err != nil {
		slog.Error("Failed to prune completed sessions", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Pruned completed sessions", "count", deleted)
	}
}
