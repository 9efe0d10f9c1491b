// Package storage persists the CLI session (server URL, token and user) in a
// local JSON file readable only by its owner. Access is serialized across
// processes with a lock file next to it.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/atinyakov/PodStudio/internal/models"
)

const (
	fileMode      = 0o600
	lockRetry     = 50 * time.Millisecond
	lockTimeout   = 2 * time.Second
	defaultFolder = "podstudio"
	defaultFile   = "session.json"
)

// ErrLocked is returned when another process holds the session file lock.
var ErrLocked = errors.New("session file is locked by another process")

// Session is the persisted login state.
type Session struct {
	Server string      `json:"server,omitempty"`
	Token  string      `json:"token"`
	User   models.User `json:"user"`
}

// TokenStore reads and writes a Session file.
type TokenStore struct {
	path string
	lock *flock.Flock
}

// NewTokenStore returns a store backed by path. The file is created on
// first Save.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// DefaultPath returns the session file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, defaultFolder, defaultFile), nil
}

// Path returns the session file location.
func (s *TokenStore) Path() string {
	return s.path
}

func (s *TokenStore) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	ok, err := s.lock.TryLockContext(lockCtx, lockRetry)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrLocked
		}
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer func() { _ = s.lock.Unlock() }()

	return fn()
}

// Load returns the stored session. A missing file yields an empty Session.
func (s *TokenStore) Load(ctx context.Context) (Session, error) {
	var sess Session
	err := s.withLock(ctx, func() error {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("decode session file: %w", err)
		}
		return nil
	})
	return sess, err
}

// Save replaces the stored session. The file is written to a temporary
// sibling first and renamed into place.
func (s *TokenStore) Save(ctx context.Context, sess Session) error {
	return s.withLock(ctx, func() error {
		data, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			return err
		}

		tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
		if err != nil {
			return err
		}
		defer func() { _ = os.Remove(tmp.Name()) }()

		if err := tmp.Chmod(fileMode); err != nil {
			_ = tmp.Close()
			return err
		}
		if _, err := tmp.Write(data); err != nil {
			_ = tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return err
		}
		return os.Rename(tmp.Name(), s.path)
	})
}

// Clear removes the stored session. Clearing a missing file is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
}
