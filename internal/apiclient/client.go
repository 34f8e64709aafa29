// Package apiclient is the single point of outbound HTTP communication with
// the authentication API. It attaches the stored bearer token to every
// request and turns an authorization failure on a protected endpoint into a
// forced logout.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"authgate/internal/models"
	"authgate/internal/tokenstore"
)

// endpoint identifies the logical operation behind a request. The 401
// special-case below keys on this identity, never on the URL text.
type endpoint int

const (
	epRegister endpoint = iota
	epLogin
	epProtected
	epUsers
	epHealth
)

func (e endpoint) path() string {
	switch e {
	case epRegister:
		return "/register"
	case epLogin:
		return "/login"
	case epProtected:
		return "/protected"
	case epUsers:
		return "/users"
	case epHealth:
		return "/health"
	}
	return ""
}

// authExempt marks the endpoints whose 401 means "bad credentials", not
// "dead session". Those pass through so the form can show the error.
func (e endpoint) authExempt() bool {
	return e == epLogin || e == epRegister
}

// APIError is the structured failure surfaced to callers for any non-2xx
// response. Detail carries the server's human-readable message when the
// body had one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// Client issues requests against one base URL resolved at startup.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  tokenstore.Store

	// OnUnauthorized runs after the token store has been cleared because a
	// protected endpoint returned 401. The app uses it to navigate back to
	// the login view.
	OnUnauthorized func()
}

func New(baseURL string, timeout time.Duration, tokens tokenstore.Store) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// Register creates an account. The response must be inspected by the caller:
// an empty token or confirmation-worded message means no session was opened.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	var resp models.RegisterResponse
	err := c.do(ctx, http.MethodPost, epRegister, req, &resp)
	return resp, err
}

// Login exchanges credentials for a token. Persisting the token is the
// caller's job; the client only reads the store.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.do(ctx, http.MethodPost, epLogin, req, &resp)
	return resp, err
}

// Protected fetches the bearer-gated profile payload.
func (c *Client) Protected(ctx context.Context) (models.ProtectedResponse, error) {
	var resp models.ProtectedResponse
	err := c.do(ctx, http.MethodGet, epProtected, nil, &resp)
	return resp, err
}

// Users lists the accounts visible to the current session.
func (c *Client) Users(ctx context.Context) (models.UsersResponse, error) {
	var resp models.UsersResponse
	err := c.do(ctx, http.MethodGet, epUsers, nil, &resp)
	return resp, err
}

// Health probes the liveness endpoint. The payload shape is up to the server.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var resp map[string]any
	err := c.do(ctx, http.MethodGet, epHealth, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method string, ep endpoint, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ep.path(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// The store is read freshly on every dispatch, so a logout that raced an
	// earlier request cannot resurrect its token here.
	if token, ok := c.tokens.Get(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", ep.path(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", ep.path(), err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response %s: %w", ep.path(), err)
		}
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode, Detail: extractDetail(data)}

	if resp.StatusCode == http.StatusUnauthorized && !ep.authExempt() {
		// The session token was rejected. Drop it before telling anyone,
		// then still propagate the failure to the caller.
		_ = c.tokens.Clear()
		if c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
	}

	return apiErr
}

func extractDetail(body []byte) string {
	var er models.ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return ""
	}
	return er.Detail
}
