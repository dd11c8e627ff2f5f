package covers_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/listenupapp/listenup-triage/internal/covers"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCoverURLForExistingCover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/books/bk_1/cover" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := covers.NewResolver(srv.URL, "", discardLogger())
	defer r.Close()

	assert.Equal(t, srv.URL+"/api/v1/books/bk_1/cover", r.CoverURLFor("bk_1"))
	assert.Equal(t, "", r.CoverURLFor("bk_2"))
}

func TestCoverURLMemoized(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := covers.NewResolver(srv.URL, "", discardLogger())
	defer r.Close()

	first := r.CoverURLFor("bk_1")
	second := r.CoverURLFor("bk_1")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCoverURLUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // resolver probes a dead address

	r := covers.NewResolver(srv.URL, "", discardLogger())
	defer r.Close()

	assert.Equal(t, "", r.CoverURLFor("bk_1"))
}
