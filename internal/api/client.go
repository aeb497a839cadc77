// Package api is the HTTP gateway to the todo service.
package api

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

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/idilsaglam/tada/internal/model"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize bounds every response body read.
	MaxResponseSize int64 = 4 << 20
)

// Client implements tasksync.Gateway over the REST API.
type Client struct {
	baseURL        string
	http           *http.Client
	anon           *http.Client
	logger         zerolog.Logger
	onUnauthorized func()

	timeout time.Duration
	base    http.RoundTripper
}

type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUnauthorizedHook registers fn to run when the server answers 401 or
// 403 to an authenticated request.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// NewClient returns a client for baseURL. Authenticated requests carry the
// bearer token from source.
func NewClient(baseURL string, source oauth2.TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		logger:         zerolog.Nop(),
		onUnauthorized: func() {},
		timeout:        DefaultTimeout,
		base:           http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = &http.Client{
		Transport: &oauth2.Transport{Source: source, Base: c.base},
		Timeout:   c.timeout,
	}
	c.anon = &http.Client{Transport: c.base, Timeout: c.timeout}
	return c
}

func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var resp ListResponse
	if err := c.do(ctx, c.http, http.MethodGet, "/todos", nil, &resp); err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(resp.Todos))
	for _, todo := range resp.Todos {
		tasks = append(tasks, todo.Task())
	}
	return tasks, nil
}

func (c *Client) Create(ctx context.Context, task model.NewTask) (model.Task, error) {
	req := CreateRequest{
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate.UTC(),
	}
	var resp CreateResponse
	if err := c.do(ctx, c.http, http.MethodPost, "/todos", req, &resp); err != nil {
		return model.Task{}, err
	}
	return resp.Todo.Task(), nil
}

func (c *Client) Update(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	var todo Todo
	if err := c.do(ctx, c.http, http.MethodPut, todoPath(id), newUpdateRequest(patch), &todo); err != nil {
		return model.Task{}, err
	}
	return todo.Task(), nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, c.http, http.MethodDelete, todoPath(id), nil, nil)
}

// Login exchanges credentials for a bearer token. It sends no
// Authorization header.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp LoginResponse
	req := LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := c.do(ctx, c.anon, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: login response has no token", model.ErrNetwork)
	}
	return resp.Token, nil
}

func todoPath(id string) string {
	return "/todos/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", model.ErrNetwork, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, model.ErrAuth) {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		c.logger.Debug().
			Err(err).
			Str("method", method).
			Str("path", path).
			Msg("request failed")
		return fmt.Errorf("%w: %s %s: %w", model.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp.Body)
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", model.ErrNetwork, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(hc == c.http, method, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", model.ErrNetwork, method, path, err)
	}
	return nil
}

func (c *Client) statusError(authed bool, method, path string, status int, data []byte) error {
	msg := errorMessage(status, data)
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s %s: %w", method, path, &model.ValidationError{Message: msg})
	case http.StatusUnauthorized, http.StatusForbidden:
		if authed {
			c.logger.Warn().
				Int("status", status).
				Str("path", path).
				Msg("credential rejected")
			c.onUnauthorized()
		}
		return fmt.Errorf("%w: %s %s: %s", model.ErrAuth, method, path, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", model.ErrNotFound, method, path)
	default:
		return fmt.Errorf("%w: %s %s: %d %s", model.ErrNetwork, method, path, status, msg)
	}
}

func readResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// errorMessage prefers the server's {message} (or {error}) field and
// falls back to the status text.
func errorMessage(status int, data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(status)
}
