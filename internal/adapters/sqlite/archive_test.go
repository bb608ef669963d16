package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := NewArchive(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t)

	sess, err := domain.NewSession("set-1", "u1", "techno", "Germany")
	require.NoError(t, err)
	sess.Commit(domain.Track{ID: "t1", Title: "Opener", Artist: "A", Key: "Am", BPM: 128, ImageURL: "https://img.test/1.jpg"})
	sess.Commit(domain.Track{ID: "t2", Key: "C", BPM: 130})
	sess.MarkSurfaced([]domain.Track{{ID: "s1"}, {ID: "s2"}})

	require.NoError(t, a.SaveSnapshot(ctx, sess))

	snapshots, err := a.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	got := snapshots[0]
	assert.Equal(t, "set-1", got.SetID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "techno", got.Genre)
	assert.Equal(t, "Germany", got.Country)

	require.Len(t, got.SetList, 2)
	assert.Equal(t, "t1", got.SetList[0].ID, "playback order must survive the round trip")
	assert.Equal(t, "Opener", got.SetList[0].Title)
	assert.Equal(t, "Am", got.SetList[0].Key)
	assert.Equal(t, float64(128), got.SetList[0].BPM)
	assert.Equal(t, "t2", got.SetList[1].ID)

	assert.True(t, got.IsSurfaced("s1"))
	assert.True(t, got.IsSurfaced("s2"))
}

func TestArchiveSnapshotReplacesPrior(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t)

	first, err := domain.NewSession("set-1", "u1", "techno", "Germany")
	require.NoError(t, err)
	first.Commit(domain.Track{ID: "t1"})
	require.NoError(t, a.SaveSnapshot(ctx, first))

	// Same set grows by a track.
	first.Commit(domain.Track{ID: "t2"})
	require.NoError(t, a.SaveSnapshot(ctx, first))

	snapshots, err := a.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Len(t, snapshots[0].SetList, 2)

	// A brand new set for the same user replaces the snapshot outright.
	second, err := domain.NewSession("set-2", "u1", "house", "France")
	require.NoError(t, err)
	require.NoError(t, a.SaveSnapshot(ctx, second))

	snapshots, err = a.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "set-2", snapshots[0].SetID)
	assert.Empty(t, snapshots[0].SetList)
}

func TestArchiveMultipleUsers(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t)

	for _, userID := range []string{"u1", "u2"} {
		sess, err := domain.NewSession("set-"+userID, userID, "techno", "Germany")
		require.NoError(t, err)
		require.NoError(t, a.SaveSnapshot(ctx, sess))
	}

	snapshots, err := a.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}

func TestArchiveEmpty(t *testing.T) {
	a := newTestArchive(t)
	snapshots, err := a.Snapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}
