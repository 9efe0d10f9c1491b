package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/PodStudio/internal/models"
)

func newStore(t *testing.T) *TokenStore {
	t.Helper()
	return NewTokenStore(filepath.Join(t.TempDir(), "podstudio", "session.json"))
}

func TestLoad_FileNotExist(t *testing.T) {
	s := newStore(t)

	sess, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sess.Token)
}

func TestSaveLoad(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	want := Session{
		Server: "http://localhost:5000",
		Token:  "abc.def.ghi",
		User:   models.User{ID: "u1", Username: "alice", Email: "alice@example.com"},
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSave_Overwrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Session{Token: "first"}))
	require.NoError(t, s.Save(ctx, Session{Token: "second"}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Token)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".session-", "temporary file left behind")
	}
}

func TestClear(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Session{Token: "tok"}))
	require.NoError(t, s.Clear(ctx))

	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))

	// clearing twice is fine
	require.NoError(t, s.Clear(ctx))
}

func TestLoad_Corrupted(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	_, err := s.Load(context.Background())
	assert.ErrorContains(t, err, "decode session file")
}

func TestLocked(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, Session{Token: "tok"}))

	other := flock.New(s.Path() + ".lock")
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = other.Unlock() }()

	shortCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = s.Load(shortCtx)
	assert.ErrorIs(t, err, ErrLocked)
}
