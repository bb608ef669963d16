// Package memory provides the in-process session repository backing
// live sets.
package memory

import (
	"context"
	"sync"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
	"github.com/ewilliams-labs/crossfade/internal/core/ports"
)

// Repository keeps one session per user in a map guarded by an RWMutex.
// Sessions are cloned on the way in and out, so each Put is an atomic
// swap and readers never see a half-applied commit.
type Repository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

var _ ports.SessionRepository = (*Repository)(nil)

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{sessions: make(map[string]*domain.Session)}
}

func (r *Repository) Get(ctx context.Context, userID string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[userID]
	if !ok {
		return nil, domain.ErrNoActiveSet
	}
	return sess.Clone(), nil
}

func (r *Repository) Put(ctx context.Context, sess *domain.Session) error {
	if sess == nil || sess.UserID == "" {
		return domain.ErrInvalidSession
	}
	cp := sess.Clone()
	r.mu.Lock()
	r.sessions[sess.UserID] = cp
	r.mu.Unlock()
	return nil
}

func (r *Repository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
	return nil
}
