package domain

import "errors"

var (
	// ErrNoActiveSet indicates an operation that needs a session was
	// invoked for a user who never started one.
	ErrNoActiveSet = errors.New("domain: no active set")

	// ErrInvalidSession indicates session parameters that fail
	// validation before any state mutation.
	ErrInvalidSession = errors.New("domain: invalid session")
)

// Session holds one user's in-progress DJ set: the immutable
// genre/country scope chosen at start, the ordered list of committed
// tracks, the cumulative exclusion set of already-surfaced track IDs,
// and the most recent ranked suggestions.
//
// At most one session exists per user; starting a new one replaces any
// prior session outright.
type Session struct {
	SetID       string              `json:"set_id"`
	UserID      string              `json:"user_id"`
	Genre       string              `json:"genre"`
	Country     string              `json:"country"`
	SetList     []Track             `json:"set_list"`
	Surfaced    map[string]struct{} `json:"-"`
	Suggestions []Track             `json:"suggestions,omitempty"`
}

// NewSession creates an empty session for userID scoped to
// genre/country. Genre and country may legitimately be empty ("no
// scope") and are passed through to the track source as-is; only a
// missing user is rejected.
func NewSession(setID, userID, genre, country string) (*Session, error) {
	if userID == "" {
		return nil, ErrInvalidSession
	}
	return &Session{
		SetID:    setID,
		UserID:   userID,
		Genre:    genre,
		Country:  country,
		SetList:  []Track{},
		Surfaced: make(map[string]struct{}),
	}, nil
}

// Anchor returns the most recently committed track, the sole basis for
// the next recommendation. ok is false while the set list is empty.
func (s *Session) Anchor() (Track, bool) {
	if len(s.SetList) == 0 {
		return Track{}, false
	}
	return s.SetList[len(s.SetList)-1], true
}

// Commit appends a track to the set list. Playback order is insertion
// order.
func (s *Session) Commit(t Track) {
	s.SetList = append(s.SetList, t)
}

// UsedIDs returns the IDs of every committed track. A used track must
// never be recommended again within the session.
func (s *Session) UsedIDs() map[string]struct{} {
	used := make(map[string]struct{}, len(s.SetList))
	for _, t := range s.SetList {
		used[t.ID] = struct{}{}
	}
	return used
}

// IsSurfaced reports whether a track ID has already been shown to the
// user, either in the session-start trending pool or in an earlier
// suggestion cycle.
func (s *Session) IsSurfaced(id string) bool {
	_, ok := s.Surfaced[id]
	return ok
}

// MarkSurfaced adds the given tracks to the exclusion set. The set only
// grows: once surfaced, a track stays excluded for the session's
// lifetime.
func (s *Session) MarkSurfaced(tracks []Track) {
	if s.Surfaced == nil {
		s.Surfaced = make(map[string]struct{}, len(tracks))
	}
	for _, t := range tracks {
		s.Surfaced[t.ID] = struct{}{}
	}
}

// ReplaceSuggestions swaps in a fresh suggestion cycle's output and
// marks it surfaced so the next cycle will not re-offer it.
func (s *Session) ReplaceSuggestions(tracks []Track) {
	s.Suggestions = tracks
	s.MarkSurfaced(tracks)
}

// SurfacedIDs returns the exclusion set as a slice, for passing to the
// track source as a fetch hint.
func (s *Session) SurfacedIDs() []string {
	ids := make([]string, 0, len(s.Surfaced))
	for id := range s.Surfaced {
		ids = append(ids, id)
	}
	return ids
}

// Clone returns a deep copy. Repositories store and return clones so a
// concurrent reader never observes a partially-applied commit.
func (s *Session) Clone() *Session {
	cp := &Session{
		SetID:    s.SetID,
		UserID:   s.UserID,
		Genre:    s.Genre,
		Country:  s.Country,
		SetList:  make([]Track, len(s.SetList)),
		Surfaced: make(map[string]struct{}, len(s.Surfaced)),
	}
	copy(cp.SetList, s.SetList)
	for id := range s.Surfaced {
		cp.Surfaced[id] = struct{}{}
	}
	if s.Suggestions != nil {
		cp.Suggestions = make([]Track, len(s.Suggestions))
		copy(cp.Suggestions, s.Suggestions)
	}
	return cp
}
