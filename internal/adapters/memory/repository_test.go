package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/crossfade/internal/core/domain"
)

func newSession(t *testing.T, userID string) *domain.Session {
	t.Helper()
	sess, err := domain.NewSession("set-1", userID, "techno", "Germany")
	require.NoError(t, err)
	return sess
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := NewRepository()
	_, err := repo.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNoActiveSet)
}

func TestRepositoryPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	sess := newSession(t, "u1")
	sess.Commit(domain.Track{ID: "t1", Key: "Am", BPM: 128})
	require.NoError(t, repo.Put(ctx, sess))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	require.Len(t, got.SetList, 1)
	assert.Equal(t, "t1", got.SetList[0].ID)
}

func TestRepositoryHandsOutCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	sess := newSession(t, "u1")
	require.NoError(t, repo.Put(ctx, sess))

	// Mutating what Put received must not leak into the store.
	sess.Commit(domain.Track{ID: "after-put"})

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.SetList, "stored session observed caller mutation")

	// Mutating what Get returned must not leak either.
	got.Commit(domain.Track{ID: "after-get"})
	again, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, again.SetList, "stored session observed reader mutation")
}

func TestRepositoryPutReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	first := newSession(t, "u1")
	first.Commit(domain.Track{ID: "t1"})
	require.NoError(t, repo.Put(ctx, first))

	second, err := domain.NewSession("set-2", "u1", "house", "France")
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, second))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "set-2", got.SetID)
	assert.Empty(t, got.SetList)
}

func TestRepositoryPutInvalid(t *testing.T) {
	repo := NewRepository()
	assert.ErrorIs(t, repo.Put(context.Background(), &domain.Session{}), domain.ErrInvalidSession)
}

func TestRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.Put(ctx, newSession(t, "u1")))
	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNoActiveSet)

	// Deleting a missing session is not an error.
	require.NoError(t, repo.Delete(ctx, "nobody"))
}
