package remote

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/ratelimit"
)

// LaterQueue adds deferred books to the server's listen-later collection.
type LaterQueue struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewLaterQueue creates a client for the listen-later collection.
func NewLaterQueue(baseURL, token string, logger *slog.Logger) *LaterQueue {
	return &LaterQueue{
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
func (q *LaterQueue) Close() {
	q.limiter.Stop()
}

// Enqueue adds a book to the listen-later collection. The call is made
// synchronously from the defer path but stays cheap; it is a single POST.
func (q *LaterQueue) Enqueue(book *domain.Book) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := q.limiter.Wait(ctx, q.baseURL); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(map[string]string{"book_id": book.ID})
	if err != nil {
		return fmt.Errorf("encode later payload: %w", err)
	}

	reqURL := q.baseURL + "/api/v1/collections/later/books"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if q.token != "" {
		req.Header.Set("Authorization", "Bearer "+q.token)
	}

	resp, err := q.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// 409 means the book is already in the collection; deferring twice is
	// not an error worth surfacing.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("server returned %d for %s", resp.StatusCode, book.ID)
	}

	q.logger.Debug("book deferred to later queue", "book_id", book.ID, "title", book.Title)
	return nil
}

// NoopLaterQueue satisfies the defer path when no server collection is
// configured; the local skip still applies.
type NoopLaterQueue struct{}

// Enqueue discards the book.
func (NoopLaterQueue) Enqueue(*domain.Book) error { return nil }
