package ports

import (
	"context"
	"errors"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
)

// ErrTrackNotFound indicates the track source has no track for the
// requested ID.
var ErrTrackNotFound = errors.New("ports: track not found")

// TrackSource is the external provider of track metadata. All three
// calls hit a third-party catalog over the network; callers must treat
// every one of them as fallible and degrade rather than fail.
type TrackSource interface {
	// FetchCandidates returns a fresh pool of tracks scoped to
	// genre/country, excluding the given IDs where the provider is able
	// to. Callers must still filter by ID defensively; a provider is
	// not assumed to honour the exclusion faithfully.
	FetchCandidates(ctx context.Context, genre, country string, excludeIDs []string) ([]domain.Track, error)

	// FetchTrending returns the trending pool for a scope, used once at
	// session start to seed the surfaced set.
	FetchTrending(ctx context.Context, genre, country string) ([]domain.Track, error)

	// ResolveTrack enriches a bare track ID into full metadata
	// (title/artist/artwork/key/BPM). Returns ErrTrackNotFound when the
	// catalog has no such track.
	ResolveTrack(ctx context.Context, id string) (domain.Track, error)
}
