// Package covers resolves cover art URLs for queue cards. Card builds happen
// on every queue refresh, so results are memoized for the life of the
// resolver and any failure degrades to "no cover" rather than an error.
package covers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/listenupapp/listenup-triage/internal/ratelimit"
)

const (
	headTimeout = 5 * time.Second

	checkRPS   = 10.0
	checkBurst = 20
)

// Resolver maps book IDs to cover URLs on the ListenUp server. The first
// lookup per book issues a HEAD to confirm the cover exists; the verdict is
// cached either way.
type Resolver struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]string // bookID -> URL, "" for confirmed-missing
}

// NewResolver creates a cover resolver for the given server.
func NewResolver(baseURL, token string, logger *slog.Logger) *Resolver {
	return &Resolver{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: headTimeout,
		},
		limiter: ratelimit.New(checkRPS, checkBurst),
		logger:  logger,
		cache:   make(map[string]string),
	}
}

// Close releases resources held by the resolver.
func (r *Resolver) Close() {
	r.limiter.Stop()
}

// CoverURLFor returns the cover URL for a book, or "" when the server has
// no cover or cannot be reached. Never returns an error; a queue build must
// not fail on art.
func (r *Resolver) CoverURLFor(bookID string) string {
	r.mu.Lock()
	if url, ok := r.cache[bookID]; ok {
		r.mu.Unlock()
		return url
	}
	r.mu.Unlock()

	url := r.check(bookID)

	r.mu.Lock()
	r.cache[bookID] = url
	r.mu.Unlock()
	return url
}

// check probes the server for the book's cover.
func (r *Resolver) check(bookID string) string {
	ctx, cancel := context.WithTimeout(context.Background(), headTimeout)
	defer cancel()

	if err := r.limiter.Wait(ctx, r.baseURL); err != nil {
		return ""
	}

	coverURL := fmt.Sprintf("%s/api/v1/books/%s/cover", r.baseURL, bookID)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, coverURL, nil)
	if err != nil {
		return ""
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		r.logger.Debug("cover probe failed", "book_id", bookID, "error", err)
		return ""
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	return coverURL
}
