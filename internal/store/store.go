// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/bindiq/onboarding-server/internal/domain"
)

// Repository defines the interface for persisting onboarding data.
type Repository interface {
	// GetUser retrieves a user by ID. Returns (nil, nil) when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateProfile applies the non-nil fields of update to a user.
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// GetSession retrieves conversation state for a user. Returns (nil, nil)
	// when absent.
	GetSession(ctx context.Context, userID string) (*domain.Session, error)

	// UpdateSessionState sets the current state and, when data is non-nil,
	// the serialized session scratch data.
	UpdateSessionState(ctx context.Context, userID string, state string, data *domain.SessionData) error

	// SaveMessage appends a chat message to a user's history.
	SaveMessage(ctx context.Context, userID, role, content string) error

	// GetMessages returns a user's chat history in chronological order.
	GetMessages(ctx context.Context, userID string) ([]domain.ChatMessage, error)

	// SaveVehicle persists a finalized vehicle record.
	SaveVehicle(ctx context.Context, vehicle *domain.Vehicle) error

	// GetVehicles returns all vehicles recorded for a user.
	GetVehicles(ctx context.Context, userID string) ([]domain.Vehicle, error)

	// GetIdleUsers returns IDs of users not seen within the TTL.
	GetIdleUsers(ctx context.Context, ttl time.Duration) ([]string, error)

	// CleanupCompletedSessions removes completed sessions idle beyond the TTL.
	CleanupCompletedSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
