package tmdb_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cinelytics/internal/config"
	"cinelytics/internal/logger"
	"cinelytics/internal/tmdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *tmdb.Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.TmdbConfig{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		Language:     "ko-KR",
	}
	return tmdb.NewClient(cfg, server.Client(), logger.NewLogger())
}

func TestLookupFirstResultWins(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "Alpha", r.URL.Query().Get("query"))
		assert.Equal(t, "ko-KR", r.URL.Query().Get("language"))

		w.Write([]byte(`{"results": [
			{"poster_path": "/p1.jpg", "vote_average": 7.5, "overview": "first", "id": 99},
			{"poster_path": "/p2.jpg", "vote_average": 9.0, "overview": "second", "id": 100}
		]}`))
	})

	enrichment := client.Lookup("Alpha")
	require.NotNil(t, enrichment)

	assert.Equal(t, "https://image.tmdb.org/t/p/w500/p1.jpg", *enrichment.PosterURL)
	assert.Equal(t, 7.5, *enrichment.Rating)
	assert.Equal(t, "first", *enrichment.Overview)
	assert.Equal(t, int64(99), *enrichment.TmdbID)
}

func TestLookupPartialFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [
			{"poster_path": "", "vote_average": 6.1, "overview": "", "id": 42}
		]}`))
	})

	enrichment := client.Lookup("Beta")
	require.NotNil(t, enrichment)

	assert.Nil(t, enrichment.PosterURL)
	assert.Nil(t, enrichment.Overview)
	assert.Equal(t, 6.1, *enrichment.Rating)
	assert.Equal(t, int64(42), *enrichment.TmdbID)
}

func TestLookupNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	})

	assert.Nil(t, client.Lookup("Unknown"))
}

func TestLookupServerErrorIsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	assert.Nil(t, client.Lookup("Alpha"))
}

func TestLookupMalformedResponseIsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	assert.Nil(t, client.Lookup("Alpha"))
}
