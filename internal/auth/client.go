// Package auth implements the CareerOS authentication resolver: an ordered
// chain of strategies that establish the user's identity with the CareerOS
// service, with session caching, expiry and bounded retry.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"careeros/collector-service/internal/model"
)

const (
	headerExtensionID      = "X-Extension-ID"
	headerExtensionVersion = "X-Extension-Version"

	httpTimeout = 15 * time.Second
)

// requestedPermissions is the fixed scope list sent when negotiating an
// extension session.
var requestedPermissions = []string{"read:profile", "read:jobs", "write:jobs"}

// Client talks to the CareerOS authentication API. The base URL is resolved
// per call because the user can repoint the service in settings.
type Client struct {
	http             *http.Client
	baseURL          func(ctx context.Context) string
	extensionID      string
	extensionVersion string
}

// NewClient builds an API client. baseURL resolves the CareerOS origin,
// typically from the settings store.
func NewClient(baseURL func(ctx context.Context) string, extensionID, extensionVersion string) *Client {
	return &Client{
		http:             &http.Client{Timeout: httpTimeout},
		baseURL:          baseURL,
		extensionID:      extensionID,
		extensionVersion: extensionVersion,
	}
}

// BaseURL returns the CareerOS origin currently in effect.
func (c *Client) BaseURL(ctx context.Context) string {
	return c.baseURL(ctx)
}

// ValidateToken checks a bearer token against /api/auth/validate. Any 2xx
// response means the token is still good.
func (c *Client) ValidateToken(ctx context.Context, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(ctx)+"/api/auth/validate", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("validate token: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

// SessionResponse is the body of POST /api/auth/session.
type SessionResponse struct {
	Success    bool `json:"success"`
	HasSession bool `json:"hasSession"`
}

// CreateSession asks CareerOS whether a cookie session exists for this
// extension identity and scope list.
func (c *Client) CreateSession(ctx context.Context) (*SessionResponse, error) {
	body, err := json.Marshal(map[string]any{
		"extensionId":          c.extensionID,
		"extensionVersion":     c.extensionVersion,
		"requestedPermissions": requestedPermissions,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL(ctx)+"/api/auth/session", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setIdentityHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	var out SessionResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &out, nil
}

// ExtensionAuthResponse is the body of GET /api/auth/extension.
type ExtensionAuthResponse struct {
	Success       bool               `json:"success"`
	Authenticated bool               `json:"authenticated"`
	User          *model.AuthUser    `json:"user"`
	Token         string             `json:"token"`
	Session       *model.SessionInfo `json:"session"`
}

// ExtensionAuth mints a token via the dedicated extension-auth endpoint.
func (c *Client) ExtensionAuth(ctx context.Context) (*ExtensionAuthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(ctx)+"/api/auth/extension", nil)
	if err != nil {
		return nil, err
	}
	c.setIdentityHeaders(req)

	var out ExtensionAuthResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, fmt.Errorf("extension auth: %w", err)
	}
	return &out, nil
}

// FallbackAuthResponse is the body of GET /api/auth/fallback.
type FallbackAuthResponse struct {
	Success bool               `json:"success"`
	User    *model.AuthUser    `json:"user"`
	Token   string             `json:"token"`
	Session *model.SessionInfo `json:"session"`
}

// FallbackAuth is the last-resort auth endpoint.
func (c *Client) FallbackAuth(ctx context.Context) (*FallbackAuthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(ctx)+"/api/auth/fallback", nil)
	if err != nil {
		return nil, err
	}
	c.setIdentityHeaders(req)

	var out FallbackAuthResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, fmt.Errorf("fallback auth: %w", err)
	}
	return &out, nil
}

// Health fetches the auth health payload. The body is opaque to the
// collector and surfaced to diagnostics as-is.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	return c.opaque(ctx, http.MethodGet)
}

// Diagnostic posts a diagnostic probe and returns the opaque payload.
func (c *Client) Diagnostic(ctx context.Context) (map[string]any, error) {
	return c.opaque(ctx, http.MethodPost)
}

func (c *Client) opaque(ctx context.Context, method string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(ctx)+"/api/auth/extension/health", nil)
	if err != nil {
		return nil, err
	}
	c.setIdentityHeaders(req)

	var out map[string]any
	if err := c.doJSON(req, &out); err != nil {
		return nil, fmt.Errorf("auth health: %w", err)
	}
	return out, nil
}

func (c *Client) setIdentityHeaders(req *http.Request) {
	req.Header.Set(headerExtensionID, c.extensionID)
	req.Header.Set(headerExtensionVersion, c.extensionVersion)
	req.Header.Set("Accept", "application/json")
}

// doJSON executes req and decodes a JSON body. Non-2xx responses are
// returned as errors carrying the status code.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// StatusError marks a non-2xx response; the chain maps it to a strategy
// failure reason rather than a transport error.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
