// Package services contains the application core: the set sequencing
// protocol and the greedy next-track recommender.
package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
	"github.com/ewilliams-labs/crossfade/internal/core/ports"
)

// Archiver receives session snapshots for best-effort persistence off
// the request path. Implemented by the worker pool.
type Archiver interface {
	Submit(sess *domain.Session)
}

// Options tune the recommender. Zero values fall back to the defaults
// from the reference behaviour.
type Options struct {
	// TopN is the number of suggestions returned per cycle.
	TopN int

	// BPMTolerance is the tempo-match window in BPM.
	BPMTolerance float64

	// SourceTimeout bounds each track-source call.
	SourceTimeout time.Duration
}

const (
	defaultTopN          = 5
	defaultSourceTimeout = 10 * time.Second
)

// SetService coordinates the session repository, the external track
// source, and the compatibility engine. It serializes mutations per
// user; operations for different users run in parallel.
type SetService struct {
	source  ports.TrackSource
	repo    ports.SessionRepository
	archive Archiver // optional
	logger  zerolog.Logger
	opts    Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSetService constructs a SetService. archive may be nil when no
// persistence is configured.
func NewSetService(source ports.TrackSource, repo ports.SessionRepository, archive Archiver, logger zerolog.Logger, opts Options) *SetService {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.BPMTolerance <= 0 {
		opts.BPMTolerance = domain.DefaultBPMTolerance
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = defaultSourceTimeout
	}
	return &SetService{
		source:  source,
		repo:    repo,
		archive: archive,
		logger:  logger.With().Str("component", "sets").Logger(),
		opts:    opts,
	}
}

// userLock returns the mutex serializing operations for one user.
func (s *SetService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// StartSet creates a fresh session for the user, replacing any prior
// one, and seeds the surfaced pool from the trending fetch. Genre and
// country pass through unvalidated; an empty scope is legitimate.
func (s *SetService) StartSet(ctx context.Context, userID, genre, country string) (*domain.Session, error) {
	sess, err := domain.NewSession(uuid.NewString(), userID, genre, country)
	if err != nil {
		return nil, fmt.Errorf("service: start set: %w", err)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// Seed the exclusion set with what the trending surface already
	// showed the user. A failed fetch degrades to an empty seed.
	trending := s.fetchTrending(ctx, genre, country)
	sess.MarkSurfaced(trending)

	if err := s.repo.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("service: start set: %w", err)
	}
	s.snapshot(sess)

	s.logger.Info().
		Str("user_id", userID).
		Str("set_id", sess.SetID).
		Str("genre", genre).
		Str("country", country).
		Int("trending_seeded", len(trending)).
		Msg("set started")
	return sess, nil
}

// CommitTrack appends a track to the user's set and re-derives the
// suggestion pool against the new anchor. The track is enriched from
// the source when possible; a failed lookup commits a bare-ID stub
// instead of blocking the commit.
func (s *SetService) CommitTrack(ctx context.Context, userID, trackID string) (domain.Track, domain.ResolutionStatus, error) {
	if trackID == "" {
		return domain.Track{}, domain.TrackStub, fmt.Errorf("service: commit track: %w", domain.ErrInvalidSession)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.Track{}, domain.TrackStub, fmt.Errorf("service: commit track: %w", err)
	}

	// 1. Resolve detail first so the new anchor carries its real
	// key/BPM into the recommendation below.
	track, status := s.resolveTrack(ctx, trackID)

	// 2. Mutate the set and refresh suggestions off the new anchor.
	sess.Commit(track)
	sess.ReplaceSuggestions(s.recommend(ctx, sess))

	// 3. Persist the updated session atomically.
	if err := s.repo.Put(ctx, sess); err != nil {
		return domain.Track{}, status, fmt.Errorf("service: commit track: %w", err)
	}
	s.snapshot(sess)

	return track, status, nil
}

// SuggestNext re-derives and returns the ranked suggestion pool for the
// user's current anchor. The returned tracks become part of the
// surfaced set and will not be offered again this session.
func (s *SetService) SuggestNext(ctx context.Context, userID string) ([]domain.Track, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: suggest next: %w", err)
	}

	suggestions := s.recommend(ctx, sess)
	sess.ReplaceSuggestions(suggestions)

	if err := s.repo.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("service: suggest next: %w", err)
	}
	s.snapshot(sess)

	return suggestions, nil
}

// SetList returns the user's committed tracks in playback order, or an
// empty slice when no session exists. It never errors.
func (s *SetService) SetList(ctx context.Context, userID string) []domain.Track {
	sess, err := s.repo.Get(ctx, userID)
	if err != nil {
		return []domain.Track{}
	}
	return sess.SetList
}

// Trending exposes the trending pool for a scope without touching any
// session state.
func (s *SetService) Trending(ctx context.Context, genre, country string) []domain.Track {
	return s.fetchTrending(ctx, genre, country)
}

type scoredTrack struct {
	track domain.Track
	score float64
}

// recommend runs the filter/score/rank pipeline against the session's
// anchor. An empty set list yields nil: with no anchor there is nothing
// to mix from.
func (s *SetService) recommend(ctx context.Context, sess *domain.Session) []domain.Track {
	anchor, ok := sess.Anchor()
	if !ok {
		return nil
	}

	candidates := s.fetchCandidates(ctx, sess)
	used := sess.UsedIDs()

	scored := make([]scoredTrack, 0, len(candidates))
	for _, cand := range candidates {
		// Hard invariant: never recommend a track already in the set.
		if _, played := used[cand.ID]; played {
			continue
		}
		// Defensive re-check of the provider's exclusion contract.
		if sess.IsSurfaced(cand.ID) {
			continue
		}
		if !domain.KeysCompatible(anchor.MixKey(), cand.MixKey()) {
			continue
		}
		if !domain.TempoCompatible(anchor.MixBPM(), cand.MixBPM(), s.opts.BPMTolerance) {
			continue
		}
		scored = append(scored, scoredTrack{track: cand, score: domain.MixScore(anchor, cand)})
	}

	// Score descending; ID ascending as a deterministic tie-break.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].track.ID < scored[j].track.ID
	})

	n := s.opts.TopN
	if n > len(scored) {
		n = len(scored)
	}
	out := make([]domain.Track, 0, n)
	for _, st := range scored[:n] {
		out = append(out, st.track)
	}
	return out
}

// fetchCandidates asks the source for a fresh scoped pool, passing the
// surfaced IDs as an exclusion hint. Failure degrades to an empty pool.
func (s *SetService) fetchCandidates(ctx context.Context, sess *domain.Session) []domain.Track {
	ctx, cancel := context.WithTimeout(ctx, s.opts.SourceTimeout)
	defer cancel()

	candidates, err := s.source.FetchCandidates(ctx, sess.Genre, sess.Country, sess.SurfacedIDs())
	if err != nil {
		s.logger.Warn().Err(err).
			Str("user_id", sess.UserID).
			Msg("candidate fetch failed, degrading to empty pool")
		return nil
	}
	return candidates
}

func (s *SetService) fetchTrending(ctx context.Context, genre, country string) []domain.Track {
	ctx, cancel := context.WithTimeout(ctx, s.opts.SourceTimeout)
	defer cancel()

	trending, err := s.source.FetchTrending(ctx, genre, country)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("genre", genre).
			Str("country", country).
			Msg("trending fetch failed, degrading to empty pool")
		return nil
	}
	return trending
}

// resolveTrack enriches a bare ID, falling back to a stub on any
// failure. Resolution failure must never block a commit.
func (s *SetService) resolveTrack(ctx context.Context, trackID string) (domain.Track, domain.ResolutionStatus) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.SourceTimeout)
	defer cancel()

	track, err := s.source.ResolveTrack(ctx, trackID)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("track_id", trackID).
			Msg("track resolution failed, committing stub")
		return domain.Track{ID: trackID}, domain.TrackStub
	}
	return track, domain.TrackResolved
}

func (s *SetService) snapshot(sess *domain.Session) {
	if s.archive == nil {
		return
	}
	s.archive.Submit(sess.Clone())
}
