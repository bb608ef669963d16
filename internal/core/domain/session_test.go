package domain

import (
	"errors"
	"testing"
)

func TestNewSession(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		genre   string
		country string
		wantErr error
	}{
		{name: "valid", userID: "u1", genre: "techno", country: "Germany"},
		{name: "empty scope is permitted", userID: "u1"},
		{name: "missing user", userID: "", genre: "techno", wantErr: ErrInvalidSession},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sess, err := NewSession("set-1", tc.userID, tc.genre, tc.country)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("NewSession error = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				return
			}
			if len(sess.SetList) != 0 {
				t.Errorf("new session has %d committed tracks, want 0", len(sess.SetList))
			}
			if _, ok := sess.Anchor(); ok {
				t.Error("empty session reported an anchor")
			}
		})
	}
}

func TestSessionCommitAndAnchor(t *testing.T) {
	sess, err := NewSession("set-1", "u1", "techno", "Germany")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	sess.Commit(Track{ID: "t1", Key: "Am", BPM: 128})
	sess.Commit(Track{ID: "t2", Key: "C", BPM: 130})

	anchor, ok := sess.Anchor()
	if !ok || anchor.ID != "t2" {
		t.Fatalf("anchor = %+v ok=%v, want most recent commit t2", anchor, ok)
	}

	used := sess.UsedIDs()
	for _, id := range []string{"t1", "t2"} {
		if _, ok := used[id]; !ok {
			t.Errorf("UsedIDs missing %q", id)
		}
	}
}

func TestSessionSurfacedIsCumulative(t *testing.T) {
	sess, err := NewSession("set-1", "u1", "", "")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	sess.MarkSurfaced([]Track{{ID: "a"}})
	sess.ReplaceSuggestions([]Track{{ID: "b"}})
	sess.ReplaceSuggestions([]Track{{ID: "c"}})

	// The second replacement must not forget earlier cycles.
	for _, id := range []string{"a", "b", "c"} {
		if !sess.IsSurfaced(id) {
			t.Errorf("IsSurfaced(%q) = false after replacement, want true", id)
		}
	}
	if len(sess.Suggestions) != 1 || sess.Suggestions[0].ID != "c" {
		t.Errorf("Suggestions = %+v, want just the latest cycle", sess.Suggestions)
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	sess, err := NewSession("set-1", "u1", "techno", "Germany")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	sess.Commit(Track{ID: "t1"})
	sess.MarkSurfaced([]Track{{ID: "s1"}})

	cp := sess.Clone()
	cp.Commit(Track{ID: "t2"})
	cp.MarkSurfaced([]Track{{ID: "s2"}})

	if len(sess.SetList) != 1 {
		t.Errorf("original set list length %d after mutating clone, want 1", len(sess.SetList))
	}
	if sess.IsSurfaced("s2") {
		t.Error("original surfaced set observed clone mutation")
	}
}

func TestTrackDefaults(t *testing.T) {
	bare := Track{ID: "t"}
	if got := bare.MixKey(); got != DefaultKey {
		t.Errorf("MixKey() = %q, want %q", got, DefaultKey)
	}
	if got := bare.MixBPM(); got != DefaultBPM {
		t.Errorf("MixBPM() = %v, want %v", got, float64(DefaultBPM))
	}

	full := Track{ID: "t", Key: "F#m", BPM: 174}
	if got := full.MixKey(); got != "F#m" {
		t.Errorf("MixKey() = %q, want F#m", got)
	}
	if got := full.MixBPM(); got != 174 {
		t.Errorf("MixBPM() = %v, want 174", got)
	}
}
