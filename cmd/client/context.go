package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/atinyakov/PodStudio/internal/client"
	"github.com/atinyakov/PodStudio/internal/client/storage"
)

const (
	defaultServer = "http://localhost:5000"
	serverEnv     = "PODSTUDIO_SERVER"
)

type commandContext struct {
	serverFlag    string
	caFlag        string
	tokenFileFlag string

	getenv func(string) string
}

func newCommandContext() *commandContext {
	return &commandContext{getenv: os.Getenv}
}

func (c *commandContext) store() (*storage.TokenStore, error) {
	path := strings.TrimSpace(c.tokenFileFlag)
	if path == "" {
		var err error
		if path, err = storage.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return storage.NewTokenStore(path), nil
}

// serverURL picks the --server flag, then $PODSTUDIO_SERVER, then the
// server the stored session was created against, then the default.
func (c *commandContext) serverURL(ctx context.Context, store *storage.TokenStore) string {
	if s := strings.TrimSpace(c.serverFlag); s != "" {
		return s
	}
	if s := strings.TrimSpace(c.getenv(serverEnv)); s != "" {
		return s
	}
	if sess, err := store.Load(ctx); err == nil && sess.Server != "" {
		return sess.Server
	}
	return defaultServer
}

func (c *commandContext) session(ctx context.Context) (*client.Session, error) {
	store, err := c.store()
	if err != nil {
		return nil, err
	}

	var opts []client.Option
	if ca := strings.TrimSpace(c.caFlag); ca != "" {
		hc, err := client.NewTLSHTTPClient(ca)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithHTTPClient(hc))
	}

	api, err := client.New(c.serverURL(ctx, store), opts...)
	if err != nil {
		return nil, err
	}
	return client.NewSession(api, store), nil
}

// withToken runs fn with the stored token and maps a rejected token to a
// login hint.
func (c *commandContext) withToken(ctx context.Context, fn func(api *client.Client, token string) error) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	token, err := sess.Token(ctx)
	if err != nil {
		return wrapSessionError(err)
	}

	err = fn(sess.Client, token)
	if client.StatusCode(err) == http.StatusUnauthorized {
		_ = sess.Store.Clear(ctx)
		return wrapSessionError(client.ErrSessionExpired)
	}
	return err
}

func wrapSessionError(err error) error {
	if errors.Is(err, client.ErrNoSession) {
		return fmt.Errorf("%w; run `podstudio login` first", err)
	}
	return err
}
