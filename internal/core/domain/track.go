package domain

// Default attributes assumed when the track source cannot supply real
// key/tempo values. Candidates and anchors fall back to these so the
// engine always has something to mix against.
const (
	DefaultKey = "C"
	DefaultBPM = 128
)

// Track represents one playable audio item in the domain layer.
type Track struct {
	ID       string  `json:"id"`
	Title    string  `json:"title,omitempty"`
	Artist   string  `json:"artist,omitempty"`
	Key      string  `json:"key,omitempty"` // musical key label, e.g. "C", "Am", "F#m"
	BPM      float64 `json:"bpm,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
}

// MixKey returns the key used for compatibility checks, defaulting to
// DefaultKey when the source did not supply one.
func (t Track) MixKey() string {
	if t.Key == "" {
		return DefaultKey
	}
	return t.Key
}

// MixBPM returns the tempo used for compatibility checks, defaulting to
// DefaultBPM when the source did not supply one.
func (t Track) MixBPM() float64 {
	if t.BPM <= 0 {
		return DefaultBPM
	}
	return t.BPM
}

// ResolutionStatus tags a committed track as fully resolved against the
// track source or left as a bare-ID stub after a failed lookup.
type ResolutionStatus string

const (
	TrackResolved ResolutionStatus = "resolved"
	TrackStub     ResolutionStatus = "stub"
)
