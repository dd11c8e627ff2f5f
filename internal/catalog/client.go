package catalog

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/ratelimit"
)

const (
	// Keep well under the server's inbound limits; the loader is a burst
	// of paginated calls at session start, not a steady stream.
	defaultRPS   = 5.0
	defaultBurst = 10

	defaultTimeout  = 30 * time.Second
	defaultPageSize = 200
)

// Client loads a catalog Snapshot from a ListenUp server's sync endpoints.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewClient creates a catalog loader for the given server.
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

// syncBook is the wire shape of a book in the server's sync payload.
type syncBook struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Series   string   `json:"series,omitempty"`
	Sequence *float64 `json:"sequence,omitempty"`
	Duration int64    `json:"total_duration"`
	Genres   []string `json:"genres,omitempty"`
}

type booksPage struct {
	Books      []syncBook `json:"books"`
	NextCursor string     `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}

// LoadSnapshot pulls every book from the server and builds an immutable
// snapshot. One snapshot serves the whole triage session; the engine never
// re-fetches mid-session.
func (c *Client) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var books []*domain.Book
	cursor := ""

	for {
		page, err := c.fetchPage(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("fetch books page: %w", err)
		}

		for _, sb := range page.Books {
			books = append(books, &domain.Book{
				ID:       sb.ID,
				Title:    sb.Title,
				Author:   sb.Author,
				Series:   sb.Series,
				Sequence: sb.Sequence,
				Duration: sb.Duration,
				Genres:   sb.Genres,
			})
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	c.logger.Info("catalog snapshot loaded", "book_count", len(books))

	return NewSnapshot(books), nil
}

// fetchPage retrieves one page of the sync books listing.
func (c *Client) fetchPage(ctx context.Context, cursor string) (*booksPage, error) {
	if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", defaultPageSize))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	reqURL := c.baseURL + "/api/v1/sync/books?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	// The server wraps list payloads in its response envelope.
	var envelope struct {
		Data booksPage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode books page: %w", err)
	}

	return &envelope.Data, nil
}
