package domain

import (
	"fmt"
	"math"
)

// DefaultBPMTolerance is the acceptable tempo-adjustment range, in BPM,
// for a live transition.
const DefaultBPMTolerance = 5

const (
	exactKeyWeight      = 1.0
	compatibleKeyWeight = 0.8
)

// noteNames lists the twelve pitch classes in the sharps spelling the
// track source emits.
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// keyWheel maps every major and minor key to its set of harmonically
// mixable keys: the key itself, its relative major/minor, the two
// circle-of-fifths neighbours, and the neighbours' relatives. A
// simplified Camelot wheel; a minor key shares its relative major's
// neighbourhood.
var keyWheel = buildKeyWheel()

func buildKeyWheel() map[string]map[string]struct{} {
	wheel := make(map[string]map[string]struct{}, 24)
	for root := 0; root < 12; root++ {
		major := noteNames[root]
		minor := relativeMinor(root)
		up := (root + 7) % 12   // fifth up
		down := (root + 5) % 12 // fifth down

		neighbours := []string{
			major,
			minor,
			noteNames[up],
			noteNames[down],
			relativeMinor(up),
			relativeMinor(down),
		}
		entry := make(map[string]struct{}, len(neighbours))
		for _, k := range neighbours {
			entry[k] = struct{}{}
		}
		wheel[major] = entry
		wheel[minor] = entry
	}
	return wheel
}

func relativeMinor(majorRoot int) string {
	return noteNames[(majorRoot+9)%12] + "m"
}

func init() {
	// The wheel must be a total, reflexive relation over all 24 keys.
	// A gap would silently degrade mixing to exact-match only, so a
	// malformed table is a programming error worth crashing on.
	if len(keyWheel) != 24 {
		panic(fmt.Sprintf("domain: key wheel covers %d keys, want 24", len(keyWheel)))
	}
	for key, set := range keyWheel {
		if _, ok := set[key]; !ok {
			panic(fmt.Sprintf("domain: key wheel entry for %q does not include itself", key))
		}
	}
}

// KeysCompatible reports whether target can be mixed harmonically out
// of current. Keys outside the wheel degrade to exact-match only.
func KeysCompatible(current, target string) bool {
	set, ok := keyWheel[current]
	if !ok {
		return current == target
	}
	_, ok = set[target]
	return ok
}

// TempoCompatible reports whether two tempos can be beatmatched within
// tolerance BPM, counting double-time and half-time as a match.
func TempoCompatible(current, target, tolerance float64) bool {
	return math.Abs(current-target) <= tolerance ||
		math.Abs(current*2-target) <= tolerance ||
		math.Abs(current/2-target) <= tolerance
}

// MixScore ranks candidate as the next track after anchor. An exact key
// match outranks a merely compatible one, and a smaller tempo distance
// always scores at least as high as a larger one. The division form is
// a continuous tie-break, not a step function. Scores are an internal
// ranking artifact and never leave the recommender.
func MixScore(anchor, candidate Track) float64 {
	weight := compatibleKeyWeight
	if anchor.MixKey() == candidate.MixKey() {
		weight = exactKeyWeight
	}
	return weight / (1 + math.Abs(anchor.MixBPM()-candidate.MixBPM()))
}
