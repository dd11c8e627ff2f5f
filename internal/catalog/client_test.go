package catalog_test

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-triage/internal/catalog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadSnapshotPaginates(t *testing.T) {
	pages := map[string]string{
		"": `{"data":{"books":[
			{"id":"b1","title":"The Final Empire","author":"Brandon Sanderson","series":"Mistborn","sequence":1,"total_duration":86400},
			{"id":"b2","title":"The Well of Ascension","author":"Brandon Sanderson","series":"Mistborn","sequence":2,"total_duration":90000}
		],"next_cursor":"c2","has_more":true}}`,
		"c2": `{"data":{"books":[
			{"id":"b3","title":"Elantris","author":"Brandon Sanderson","total_duration":70000}
		],"has_more":false}}`,
	}

	var authHeaders []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/sync/books", r.URL.Path)
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))

		body, ok := pages[r.URL.Query().Get("cursor")]
		require.True(t, ok, "unexpected cursor %q", r.URL.Query().Get("cursor"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	c := catalog.NewClient(srv.URL, "tok-123", discardLogger())
	defer c.Close()

	snap, err := c.LoadSnapshot(context.Background())
	require.NoError(t, err)

	books := snap.Books()
	require.Len(t, books, 3)
	assert.Equal(t, "b1", books[0].ID)
	require.NotNil(t, books[0].Sequence)
	assert.Equal(t, 1.0, *books[0].Sequence)
	assert.Nil(t, books[2].Sequence)

	require.Len(t, authHeaders, 2)
	for _, h := range authHeaders {
		assert.Equal(t, "Bearer tok-123", h)
	}
}

func TestLoadSnapshotServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := catalog.NewClient(srv.URL, "", discardLogger())
	defer c.Close()

	_, err := c.LoadSnapshot(context.Background())
	assert.Error(t, err)
}

func TestLoadSnapshotMalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":"not a page"}`)
	}))
	defer srv.Close()

	c := catalog.NewClient(srv.URL, "", discardLogger())
	defer c.Close()

	_, err := c.LoadSnapshot(context.Background())
	assert.Error(t, err)
}

func TestLoadSnapshotEmptyLibrary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.MarshalWrite(w, map[string]any{
			"data": map[string]any{"books": []any{}, "has_more": false},
		}))
	}))
	defer srv.Close()

	c := catalog.NewClient(srv.URL, "", discardLogger())
	defer c.Close()

	snap, err := c.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Books())
}
