// Package careeros is the client for the CareerOS job sync API.
package careeros

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"careeros/collector-service/internal/model"
)

const connectionTestTimeout = 10 * time.Second

// Client pushes job records to CareerOS. The base URL is resolved per call
// from user settings.
type Client struct {
	http    *http.Client
	baseURL func(ctx context.Context) string
}

// NewClient builds a sync client.
func NewClient(baseURL func(ctx context.Context) string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
	}
}

// SyncJobs pushes the full bookmark list to POST /api/jobs/sync.
func (c *Client) SyncJobs(ctx context.Context, jobs []model.JobRecord) error {
	return c.post(ctx, "/api/jobs/sync", map[string]any{"jobs": jobs})
}

// BookmarkJob pushes a single freshly bookmarked record to
// POST /api/jobs/bookmark. Callers treat failures as non-fatal.
func (c *Client) BookmarkJob(ctx context.Context, job model.JobRecord) error {
	return c.post(ctx, "/api/jobs/bookmark", job)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL(ctx)+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: HTTP %d: %s", path, resp.StatusCode, resp.Status)
	}
	return nil
}

// ConnectionResult is the categorised outcome of a connectivity test.
type ConnectionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// TestConnection probes rawURL's /api/health endpoint with a 10s budget and
// maps failures to distinct user-facing categories: timeout, cross-origin
// rejection, or generic unreachability.
func (c *Client) TestConnection(ctx context.Context, rawURL string) ConnectionResult {
	if rawURL == "" {
		return ConnectionResult{Error: "URL is required"}
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "http://" + rawURL
	}

	ctx, cancel := context.WithTimeout(ctx, connectionTestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"/api/health", nil)
	if err != nil {
		return ConnectionResult{Error: fmt.Sprintf("Connection failed: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyConnectionError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ConnectionResult{Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)}
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		data = nil
	}
	return ConnectionResult{Success: true, Message: "Connection successful!", Data: data}
}

func classifyConnectionError(err error) ConnectionResult {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ConnectionResult{Error: "Connection timeout. Please check if the server is running."}
	case strings.Contains(err.Error(), "CORS"):
		return ConnectionResult{Error: "CORS error. The server may not be configured to allow extension requests."}
	case strings.Contains(err.Error(), "connection refused"), strings.Contains(err.Error(), "no such host"):
		return ConnectionResult{Error: "Cannot connect to server. Please check the URL and ensure the server is running."}
	default:
		return ConnectionResult{Error: fmt.Sprintf("Connection failed: %v", err)}
	}
}
