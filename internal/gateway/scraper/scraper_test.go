package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const playlistPage = `<!doctype html>
<html><head>
<title>New Music Friday | Spotify Playlist</title>
<meta property="og:title" content="New Music Friday">
<meta property="og:url" content="https://open.spotify.com/playlist/37i9dQZF1DX4JAvHpjipBk">
</head><body></body></html>`

func TestResolver_FollowsRedirectAndReadsMeta(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/s/abc", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/playlist/37i9dQZF1DX4JAvHpjipBk", http.StatusFound)
	})
	mux.HandleFunc("/playlist/37i9dQZF1DX4JAvHpjipBk", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(playlistPage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewResolver(nil, time.Second, RetryConfig{}, zap.NewNop())
	meta, err := r.Resolve(context.Background(), srv.URL+"/s/abc")
	require.NoError(t, err)

	assert.Equal(t, "https://open.spotify.com/playlist/37i9dQZF1DX4JAvHpjipBk", meta.URL)
	assert.Equal(t, "New Music Friday", meta.Title)
}

func TestResolver_FallsBackToTitleTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Deutschrap Brandneu | Deezer</title></head></html>`))
	}))
	defer srv.Close()

	r := NewResolver(nil, time.Second, RetryConfig{}, zap.NewNop())
	meta, err := r.Resolve(context.Background(), srv.URL+"/de/playlist/1111")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/de/playlist/1111", meta.URL)
	assert.Equal(t, "Deutschrap Brandneu", meta.Title)
}

func TestResolver_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r := NewResolver(nil, time.Second, RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond}, zap.NewNop())
	_, err := r.Resolve(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "New Music Friday", CleanTitle("  New Music Friday | Spotify Playlist "))
	assert.Equal(t, "Rap Hits", CleanTitle("Rap Hits | Deezer"))
	assert.Equal(t, "Plain", CleanTitle("Plain"))
}

func TestWithRetry(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), zap.NewNop(), cfg, func() error {
			calls++
			if calls < 3 {
				return errors.New("connection reset")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), zap.NewNop(), cfg, func() error {
			calls++
			return errors.New("connection reset")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry not found", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), zap.NewNop(), cfg, func() error {
			calls++
			return errors.New("Not Found")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
