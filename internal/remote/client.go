// Package remote talks to the ListenUp server's progress and collection
// endpoints. The triage engine treats everything here as best-effort; the
// syncer owns retries.
package remote

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/listenupapp/listenup-triage/internal/ratelimit"
)

const (
	defaultRPS   = 5.0
	defaultBurst = 10

	defaultTimeout = 30 * time.Second
)

// Client pushes finished-state changes to the server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewClient creates a remote progress client.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// MarkFinished sets the book's remote progress to finished.
func (c *Client) MarkFinished(ctx context.Context, bookID string) error {
	return c.putProgress(ctx, bookID, "finished")
}

// MarkNotStarted clears the book's remote progress, used when a local
// classification is undone after its push already landed.
func (c *Client) MarkNotStarted(ctx context.Context, bookID string) error {
	return c.putProgress(ctx, bookID, "not-started")
}

// putProgress issues the status update. The endpoint is idempotent on the
// server side; setting a status the book already has returns 200 like any
// other success, so replays from flush retries are harmless.
func (c *Client) putProgress(ctx context.Context, bookID, status string) error {
	if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return fmt.Errorf("encode progress payload: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/v1/books/%s/progress", c.baseURL, bookID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		// The book vanished server-side. Nothing to retry; surface it once.
		c.logger.Warn("book missing on server", "book_id", bookID, "status", status)
		return nil
	default:
		return fmt.Errorf("server returned %d for %s", resp.StatusCode, bookID)
	}
}
