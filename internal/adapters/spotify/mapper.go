package spotify

import (
	"strings"

	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
)

// countryMarkets maps the country names the UI offers to Spotify market
// codes. Unknown countries fall back to US.
var countryMarkets = map[string]string{
	"united states":  "US",
	"germany":        "DE",
	"united kingdom": "GB",
	"france":         "FR",
	"canada":         "CA",
	"australia":      "AU",
	"brazil":         "BR",
	"india":          "IN",
	"japan":          "JP",
	"mexico":         "MX",
}

// marketFor resolves a country value to a market code. Two-letter
// inputs are assumed to already be ISO codes and pass through.
func marketFor(country string) string {
	if len(country) == 2 {
		return strings.ToUpper(country)
	}
	if market, ok := countryMarkets[strings.ToLower(country)]; ok {
		return market
	}
	return "US"
}

// pitchClasses is Spotify's pitch-class numbering (0 = C … 11 = B).
var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// keyLabel converts a Spotify pitch class and mode into the engine's
// key spelling. Mode 0 is minor. An out-of-range pitch class (Spotify
// reports -1 when detection failed) maps to the default key.
func keyLabel(pitchClass, mode int) string {
	note := domain.DefaultKey
	if pitchClass >= 0 && pitchClass < len(pitchClasses) {
		note = pitchClasses[pitchClass]
	}
	if mode == 0 {
		return note + "m"
	}
	return note
}

// mapFullTrack converts a raw API track to a clean domain track.
// Key/BPM stay zero here; audio features are annotated separately.
func mapFullTrack(ft spotifyapi.FullTrack) domain.Track {
	artist := ""
	if len(ft.Artists) > 0 {
		artist = ft.Artists[0].Name
	}
	imageURL := ""
	if len(ft.Album.Images) > 0 {
		imageURL = ft.Album.Images[0].URL
	}
	return domain.Track{
		ID:       string(ft.ID),
		Title:    ft.Name,
		Artist:   artist,
		ImageURL: imageURL,
	}
}
