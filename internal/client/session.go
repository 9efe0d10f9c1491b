package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/PodStudio/internal/client/storage"
	"github.com/atinyakov/PodStudio/internal/models"
)

var (
	// ErrNoSession is returned when no token is stored.
	ErrNoSession = errors.New("not logged in")
	// ErrSessionExpired is returned when the server rejected the stored
	// token; the token has been removed.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// TokenStore persists the session between runs.
type TokenStore interface {
	Load(ctx context.Context) (storage.Session, error)
	Save(ctx context.Context, sess storage.Session) error
	Clear(ctx context.Context) error
}

// Session couples a Client with a persisted token.
type Session struct {
	Client *Client
	Store  TokenStore
}

// NewSession returns a Session using c and store.
func NewSession(c *Client, store TokenStore) *Session {
	return &Session{Client: c, Store: store}
}

// Token returns the stored token or ErrNoSession.
func (s *Session) Token(ctx context.Context) (string, error) {
	sess, err := s.Store.Load(ctx)
	if err != nil {
		return "", err
	}
	if sess.Token == "" {
		return "", ErrNoSession
	}
	return sess.Token, nil
}

// Validate restores the stored session by asking the server who the token
// belongs to. A 401 or 403 drops the token and returns ErrSessionExpired;
// network errors are retried by the Client and then returned as is.
func (s *Session) Validate(ctx context.Context) (models.User, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.Client.Me(ctx, token)
	if err != nil {
		switch StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			if clearErr := s.Store.Clear(ctx); clearErr != nil {
				return models.User{}, errors.Join(ErrSessionExpired, clearErr)
			}
			return models.User{}, ErrSessionExpired
		}
		return models.User{}, err
	}

	if err := s.save(ctx, token, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Register creates an account and stores its token.
func (s *Session) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	res, err := s.Client.Register(ctx, username, email, password)
	if err != nil {
		return res, err
	}
	return res, s.save(ctx, res.Token, res.User)
}

// Login signs in and stores the token.
func (s *Session) Login(ctx context.Context, email, password string) (AuthResult, error) {
	res, err := s.Client.Login(ctx, email, password)
	if err != nil {
		return res, err
	}
	return res, s.save(ctx, res.Token, res.User)
}

// Logout forgets the stored token. The server call is best effort; the
// local token is removed even when it fails.
func (s *Session) Logout(ctx context.Context) error {
	serverErr := s.Client.Logout(ctx)
	if err := s.Store.Clear(ctx); err != nil {
		return err
	}
	return serverErr
}

func (s *Session) save(ctx context.Context, token string, user models.User) error {
	return s.Store.Save(ctx, storage.Session{
		Server: s.Client.BaseURL(),
		Token:  token,
		User:   user,
	})
}
