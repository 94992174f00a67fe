package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired is returned when a request fails with 401 and the session
// cannot be refreshed. The local session has been cleared by then.
var ErrSessionExpired = errors.New("session expired")

const refreshPath = "/api/v1/auth/refresh"

// authPaths never trigger the refresh interceptor: a 401 from login is a
// credentials problem, and a 401 from refresh is the end of the session.
var authPaths = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/auth/refresh",
	"/api/v1/auth/logout",
	"/api/v1/auth/password-reset",
}

func isAuthPath(path string) bool {
	for _, p := range authPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// refreshFlight coordinates concurrent refresh attempts. The first caller
// performs the refresh; the rest queue up and receive the shared result in
// arrival order.
type refreshFlight struct {
	mu       sync.Mutex
	inflight bool
	waiters  []chan error
}

// Client calls the pressrank API with automatic token refresh.
type Client struct {
	baseURL  string
	http     *http.Client
	store    *SessionStore
	flight   refreshFlight
	onLogout func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogoutHandler registers a callback invoked when the session dies, e.g.
// to redirect a UI to the login screen. Called at most once per session loss.
func WithLogoutHandler(fn func()) Option {
	return func(c *Client) { c.onLogout = fn }
}

// New creates a client for the API at baseURL.
func New(baseURL string, store *SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the session store backing this client.
func (c *Client) Store() *SessionStore {
	return c.store
}

// Do sends an API request. body (if non-nil) is JSON-encoded. The caller owns
// the response body.
//
// A 401 on a non-auth endpoint triggers one refresh attempt shared across all
// concurrent requests, followed by a single retry with the new token. A second
// 401 after the retry is a hard failure: the session is cleared and
// ErrSessionExpired is returned.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || isAuthPath(path) {
		return resp, nil
	}
	_ = resp.Body.Close()

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	resp, err = c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		c.expireSession()
		return nil, ErrSessionExpired
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}

// refresh exchanges the stored refresh token for a new pair. Only one
// exchange runs at a time; concurrent callers block until it finishes and
// share its outcome.
func (c *Client) refresh(ctx context.Context) error {
	c.flight.mu.Lock()
	if c.flight.inflight {
		waiter := make(chan error, 1)
		c.flight.waiters = append(c.flight.waiters, waiter)
		c.flight.mu.Unlock()

		select {
		case err := <-waiter:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.flight.inflight = true
	c.flight.mu.Unlock()

	err := c.doRefresh(ctx)

	c.flight.mu.Lock()
	waiters := c.flight.waiters
	c.flight.waiters = nil
	c.flight.inflight = false
	c.flight.mu.Unlock()

	for _, waiter := range waiters {
		waiter <- err
	}
	return err
}

func (c *Client) doRefresh(ctx context.Context) error {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		c.expireSession()
		return ErrSessionExpired
	}

	resp, err := c.send(ctx, http.MethodPost, refreshPath, map[string]string{
		"refreshToken": refreshToken,
	})
	if err != nil {
		// A refresh that cannot reach the server ends the session too; the
		// stored pair may already be half-rotated on the other side.
		c.expireSession()
		return fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.expireSession()
		return ErrSessionExpired
	}

	var result struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         *User  `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}

	c.store.Set(result.AccessToken, result.RefreshToken, result.User)
	return nil
}

func (c *Client) expireSession() {
	c.store.Clear()
	if c.onLogout != nil {
		c.onLogout()
	}
}

// Login authenticates and stores the resulting session.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         User   `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}

	// A success response without tokens is a contract violation, not a state
	// worth persisting.
	if result.AccessToken == "" || result.RefreshToken == "" {
		return nil, errors.New("login response is missing tokens")
	}

	c.store.Set(result.AccessToken, result.RefreshToken, &result.User)
	return &result.User, nil
}

// Logout revokes the server-side session and clears the local one. The local
// session is cleared even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	refreshToken := c.store.RefreshToken()
	c.store.Clear()

	if refreshToken == "" {
		return nil
	}

	resp, err := c.Do(ctx, http.MethodPost, "/api/v1/auth/logout", map[string]string{
		"refreshToken": refreshToken,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}
	return fmt.Errorf("api error: %s (%s)", body.Message, body.Error)
}
