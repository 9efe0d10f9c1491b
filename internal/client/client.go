// Package client is a Go client for the PodStudio REST API.
//
// Every authenticated call takes the bearer token as an explicit argument;
// the Client itself holds no credentials and is safe for concurrent use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atinyakov/PodStudio/internal/models"
)

const defaultTimeout = 10 * time.Second

// FieldError is one failed validation rule reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client talks to one PodStudio server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// New returns a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		retry:      DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

// ProjectEpisodes is the response of ProjectEpisodes.
type ProjectEpisodes struct {
	Count    int              `json:"count"`
	Episodes []models.Episode `json:"episodes"`
	Project  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"project"`
}

// NewEpisode is the body of CreateEpisode. Source may be empty.
type NewEpisode struct {
	Name       string        `json:"name"`
	Transcript string        `json:"transcript,omitempty"`
	ProjectID  string        `json:"projectId"`
	Source     models.Source `json:"source,omitempty"`
}

// EpisodeUpdate is the body of UpdateEpisode. Nil fields are left unchanged.
type EpisodeUpdate struct {
	Name       *string `json:"name,omitempty"`
	Transcript *string `json:"transcript,omitempty"`
}

type errorBody struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &res)
	return res, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	return res, err
}

// Logout notifies the server. The token stays valid until it expires.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", "", nil, nil)
}

// Me returns the user the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (models.User, error) {
	var res struct {
		User models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &res)
	return res.User, err
}

// ListProjects returns the caller's projects, newest first.
func (c *Client) ListProjects(ctx context.Context, token string) ([]models.Project, error) {
	var res struct {
		Projects []models.Project `json:"projects"`
	}
	err := c.do(ctx, http.MethodGet, "/api/projects", token, nil, &res)
	return res.Projects, err
}

// CreateProject creates a project named name.
func (c *Client) CreateProject(ctx context.Context, token, name string) (models.Project, error) {
	var res struct {
		Project models.Project `json:"project"`
	}
	err := c.do(ctx, http.MethodPost, "/api/projects", token, map[string]string{"name": name}, &res)
	return res.Project, err
}

// GetProject returns one of the caller's projects.
func (c *Client) GetProject(ctx context.Context, token, id string) (models.Project, error) {
	var res struct {
		Project models.Project `json:"project"`
	}
	err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id), token, nil, &res)
	return res.Project, err
}

// DeleteProject deletes a project and its episodes.
func (c *Client) DeleteProject(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), token, nil, nil)
}

// ProjectEpisodes lists a project's episodes, newest first.
func (c *Client) ProjectEpisodes(ctx context.Context, token, id string) (ProjectEpisodes, error) {
	var res ProjectEpisodes
	err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id)+"/episodes", token, nil, &res)
	return res, err
}

// CreateEpisode adds an episode to one of the caller's projects.
func (c *Client) CreateEpisode(ctx context.Context, token string, ep NewEpisode) (models.Episode, error) {
	var res struct {
		Episode models.Episode `json:"episode"`
	}
	err := c.do(ctx, http.MethodPost, "/api/episodes", token, ep, &res)
	return res.Episode, err
}

// GetEpisode returns an episode of one of the caller's projects.
func (c *Client) GetEpisode(ctx context.Context, token, id string) (models.Episode, error) {
	var res struct {
		Episode models.Episode `json:"episode"`
	}
	err := c.do(ctx, http.MethodGet, "/api/episodes/"+url.PathEscape(id), token, nil, &res)
	return res.Episode, err
}

// UpdateEpisode changes an episode's name and/or transcript.
func (c *Client) UpdateEpisode(ctx context.Context, token, id string, upd EpisodeUpdate) (models.Episode, error) {
	var res struct {
		Episode models.Episode `json:"episode"`
	}
	err := c.do(ctx, http.MethodPut, "/api/episodes/"+url.PathEscape(id), token, upd, &res)
	return res.Episode, err
}

// DeleteEpisode deletes an episode.
func (c *Client) DeleteEpisode(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/episodes/"+url.PathEscape(id), token, nil, nil)
}

// Health reports whether the server and its store are reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

// do sends one API request and decodes a 2xx body into out when out is
// non-nil. Transport failures of idempotent methods are retried per c.retry;
// POST is sent once, since the server may have committed it.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempts := 1
	if idempotent(method) {
		attempts = c.retry.attempts()
	}
	var (
		lastErr error
		tried   int
	)
	for tried < attempts {
		tried++
		resp, err := c.send(ctx, method, path, token, payload)
		if err == nil {
			return decodeResponse(resp, out)
		}
		lastErr = err
		if tried == attempts || !retryable(ctx, err) {
			break
		}
		if err := sleep(ctx, c.retry.delay(tried)); err != nil {
			return err
		}
	}
	if tried > 1 {
		return fmt.Errorf("%s %s: failed after %d attempts: %w", method, path, tried, lastErr)
	}
	return fmt.Errorf("%s %s: %w", method, path, lastErr)
}

func (c *Client) send(ctx context.Context, method, path, token string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Message = eb.Message
			apiErr.Fields = eb.Errors
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
