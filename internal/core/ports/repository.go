package ports

import (
	"context"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
)

// SessionRepository owns all live session records, keyed by user ID.
// Implementations must hand out copies: a Get must never observe a
// partially-applied mutation from a concurrent Put.
type SessionRepository interface {
	// Get returns the user's active session, or domain.ErrNoActiveSet.
	Get(ctx context.Context, userID string) (*domain.Session, error)

	// Put stores the session, replacing any prior one for the same
	// user in a single atomic swap.
	Put(ctx context.Context, sess *domain.Session) error

	// Delete removes the user's session. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, userID string) error
}

// SetArchive persists snapshots of active sets outside the process so
// they survive a restart. Archive writes are best-effort and happen off
// the request path.
type SetArchive interface {
	// SaveSnapshot writes the session's current state, replacing any
	// earlier snapshot of the same set.
	SaveSnapshot(ctx context.Context, sess *domain.Session) error

	// Snapshots returns the archived state of every user's most recent
	// set, used to warm the session repository at startup.
	Snapshots(ctx context.Context) ([]*domain.Session, error)
}
