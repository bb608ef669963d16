// Package worker provides background persistence of set snapshots.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
	"github.com/ewilliams-labs/crossfade/internal/core/ports"
)

const snapshotTimeout = 5 * time.Second

// Pool writes session snapshots to the archive off the request path.
// Submissions are dropped, not blocked on, when the queue is full: the
// archive is best-effort by design and the live session store remains
// the source of truth.
type Pool struct {
	archive ports.SetArchive
	logger  zerolog.Logger
	jobs    chan *domain.Session
	wg      sync.WaitGroup
}

// NewPool creates a snapshot pool with the given queue size.
func NewPool(archive ports.SetArchive, queueSize int, logger zerolog.Logger) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		archive: archive,
		logger:  logger.With().Str("component", "worker").Logger(),
		jobs:    make(chan *domain.Session, queueSize),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for sess := range p.jobs {
				p.persist(sess)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight snapshots to finish.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a snapshot without blocking.
func (p *Pool) Submit(sess *domain.Session) {
	select {
	case p.jobs <- sess:
	default:
		p.logger.Warn().Str("user_id", sess.UserID).Msg("snapshot queue full, dropping snapshot")
	}
}

func (p *Pool) persist(sess *domain.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if err := p.archive.SaveSnapshot(ctx, sess); err != nil {
		p.logger.Warn().Err(err).
			Str("user_id", sess.UserID).
			Str("set_id", sess.SetID).
			Msg("failed to archive snapshot")
		return
	}
	p.logger.Debug().
		Str("user_id", sess.UserID).
		Str("set_id", sess.SetID).
		Int("tracks", len(sess.SetList)).
		Msg("snapshot archived")
}
