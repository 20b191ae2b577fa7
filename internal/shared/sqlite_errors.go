// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// IsSQLiteBusyError checks if the error is a SQLITE_BUSY error.
// This occurs when the database is locked by another connection.
func IsSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "SQLITE_BUSY")
}

// IsSQLiteLockedError checks if the error is a "database is locked" error.
// This is another form of SQLite concurrency error.
func IsSQLiteLockedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "database is locked")
}

// IsSQLiteConflictError checks if the error is either a SQLITE_BUSY
// or "database is locked" error. These are both SQLite concurrency
// errors that typically warrant retry logic.
func IsSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	return IsSQLiteBusyError(err) || IsSQLiteLockedError(err)
}

// RetryOnConflict runs op, retrying with exponential backoff while it fails
// with a SQLite concurrency error. Non-conflict errors return immediately.
func RetryOnConflict(ctx context.Context, name string, op func() error) error {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = op()
		if err == nil || !IsSQLiteConflictError(err) {
			return err
		}
		if i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // 50ms, 100ms, 200ms
			slog.Debug("Database locked, retrying", "op", name, "attempt", i+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return err
			}
		}
	}
	return err
}
