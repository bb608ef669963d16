// Package spotify adapts the Spotify Web API to the track source port.
// Auth is the client-credentials flow; no user identity is involved.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
	"github.com/ewilliams-labs/crossfade/internal/core/ports"
)

const (
	defaultSearchLimit = 50
	// Candidate fetches randomize the search offset so repeated cycles
	// in one session see varied pools.
	searchOffsetRange = 100

	defaultRequestsPerSecond = 10
)

// Config holds the adapter's credentials and tuning knobs.
type Config struct {
	ClientID          string
	ClientSecret      string
	SearchLimit       int
	RequestsPerSecond float64
}

// Client implements ports.TrackSource against the Spotify Web API.
type Client struct {
	api         *spotifyapi.Client
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]domain.Track]
	logger      zerolog.Logger
	searchLimit int
}

// compile-time interface assertion
var _ ports.TrackSource = (*Client)(nil)

// NewClient builds an authenticated client. The context governs token
// refresh for the lifetime of the client, not a single call.
func NewClient(ctx context.Context, cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify adapter: missing client credentials")
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaultSearchLimit
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := creds.Client(ctx)

	breaker := gobreaker.NewCircuitBreaker[[]domain.Track](gobreaker.Settings{
		Name: "spotify-search",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		api:         spotifyapi.New(httpClient),
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)),
		breaker:     breaker,
		logger:      logger.With().Str("component", "spotify").Logger(),
		searchLimit: cfg.SearchLimit,
	}, nil
}

// FetchCandidates searches the catalog for fresh tracks in scope and
// filters out the excluded IDs. Key/BPM are filled from a best-effort
// audio-features batch lookup; tracks the lookup misses keep zero
// values and the engine's defaults apply.
func (c *Client) FetchCandidates(ctx context.Context, genre, country string, excludeIDs []string) ([]domain.Track, error) {
	offset := rand.Intn(searchOffsetRange)
	tracks, err := c.search(ctx, genre, country, offset)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	candidates := tracks[:0]
	for _, t := range tracks {
		if _, skip := excluded[t.ID]; skip {
			continue
		}
		candidates = append(candidates, t)
	}

	c.annotateFeatures(ctx, candidates)
	return candidates, nil
}

// FetchTrending returns the top search results for the scope, the
// closest the public API offers to a trending chart for a genre.
func (c *Client) FetchTrending(ctx context.Context, genre, country string) ([]domain.Track, error) {
	return c.search(ctx, genre, country, 0)
}

// ResolveTrack enriches a bare track ID with catalog metadata and
// key/tempo from the audio-features endpoint.
func (c *Client) ResolveTrack(ctx context.Context, id string) (domain.Track, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Track{}, fmt.Errorf("spotify adapter: %w", err)
	}

	full, err := withRetry(ctx, func() (*spotifyapi.FullTrack, error) {
		return c.api.GetTrack(ctx, spotifyapi.ID(id))
	})
	if err != nil {
		if isNotFound(err) {
			return domain.Track{}, ports.ErrTrackNotFound
		}
		return domain.Track{}, fmt.Errorf("spotify adapter: get track: %w", err)
	}
	track := mapFullTrack(*full)

	// Features are additive detail; their failure does not fail the
	// resolution.
	features, err := c.api.GetAudioFeatures(ctx, spotifyapi.ID(id))
	if err != nil || len(features) == 0 || features[0] == nil {
		c.logger.Warn().Err(err).Str("track_id", id).Msg("audio features unavailable")
		return track, nil
	}
	track.Key = keyLabel(int(features[0].Key), int(features[0].Mode))
	track.BPM = math.Round(float64(features[0].Tempo))
	return track, nil
}

// search runs one rate-limited, breaker-guarded catalog search.
func (c *Client) search(ctx context.Context, genre, country string, offset int) ([]domain.Track, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("spotify adapter: %w", err)
	}

	query := fmt.Sprintf("genre:%q", genre)
	opts := []spotifyapi.RequestOption{
		spotifyapi.Limit(c.searchLimit),
		spotifyapi.Offset(offset),
		spotifyapi.Market(marketFor(country)),
	}

	tracks, err := c.breaker.Execute(func() ([]domain.Track, error) {
		result, err := withRetry(ctx, func() (*spotifyapi.SearchResult, error) {
			return c.api.Search(ctx, query, spotifyapi.SearchTypeTrack, opts...)
		})
		if err != nil {
			return nil, err
		}
		if result.Tracks == nil {
			return nil, nil
		}
		out := make([]domain.Track, 0, len(result.Tracks.Tracks))
		for _, ft := range result.Tracks.Tracks {
			out = append(out, mapFullTrack(ft))
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: search: %w", err)
	}
	return tracks, nil
}

// annotateFeatures fills key/BPM for up to 100 tracks in one batch.
// Failure leaves the zero values in place.
func (c *Client) annotateFeatures(ctx context.Context, tracks []domain.Track) {
	if len(tracks) == 0 {
		return
	}
	ids := make([]spotifyapi.ID, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, spotifyapi.ID(t.ID))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return
	}
	features, err := c.api.GetAudioFeatures(ctx, ids...)
	if err != nil {
		c.logger.Warn().Err(err).Int("tracks", len(tracks)).Msg("batch audio features unavailable")
		return
	}
	byID := make(map[string]*spotifyapi.AudioFeatures, len(features))
	for _, f := range features {
		if f != nil {
			byID[string(f.ID)] = f
		}
	}
	for i := range tracks {
		f, ok := byID[tracks[i].ID]
		if !ok {
			continue
		}
		tracks[i].Key = keyLabel(int(f.Key), int(f.Mode))
		tracks[i].BPM = math.Round(float64(f.Tempo))
	}
}

func isNotFound(err error) bool {
	var apiErr spotifyapi.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
