package deezer

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

	"playlistscanner/internal/model"
)

const playlistJSON = `{
	"id": 1111,
	"title": "Deutschrap Brandneu",
	"description": "Die neuesten Tracks",
	"fans": 98765,
	"picture": "https://e-cdns-images.dzcdn.net/images/playlist/1111/120x120.jpg",
	"nb_tracks": 2,
	"creator": {"id": 2, "name": "Deezer Rap Editor"}
}`

const tracksJSON = `{
	"data": [
		{"id": 10, "title": "Intro", "rank": 5000, "artist": {"id": 7, "name": "Someone"}, "album": {"cover": "https://cdn/10.jpg"}},
		{"id": 11, "title": "Wildberry Lillet", "rank": 912345, "artist": {"id": 8, "name": "Nina Chuba"}, "album": {"cover": ""}}
	],
	"total": 2
}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/playlist/1111":
			_, _ = w.Write([]byte(playlistJSON))
		case "/playlist/1111/tracks":
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(tracksJSON))
		case "/playlist/404":
			_, _ = w.Write([]byte(`{"error":{"type":"DataException","message":"no data","code":800}}`))
		case "/playlist/quota":
			_, _ = w.Write([]byte(`{"error":{"type":"Exception","message":"Quota limit exceeded","code":4}}`))
		case "/playlist/broken/tracks":
			_, _ = w.Write([]byte(`{"data": [`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server, covers CoverFinder) *Client {
	return NewClient(srv.Client(), Options{BaseURL: srv.URL, RequestTimeout: time.Second, Covers: covers}, zap.NewNop())
}

func TestClient_FetchPlaylist(t *testing.T) {
	c := newClient(newServer(t), nil)

	info, err := c.FetchPlaylist(context.Background(), "1111")
	require.NoError(t, err)

	assert.Equal(t, "Deutschrap Brandneu", info.Name)
	assert.Equal(t, "Deezer Rap Editor", info.Owner)
	require.NotNil(t, info.Followers)
	assert.Equal(t, int64(98765), *info.Followers)
	assert.Equal(t, "https://www.deezer.com/playlist/1111", info.URL)
	assert.Equal(t, model.ProviderDeezer, info.Provider)
}

func TestClient_FetchPlaylist_Errors(t *testing.T) {
	c := newClient(newServer(t), nil)

	tests := []struct {
		id   string
		want error
	}{
		{id: "404", want: model.ErrPlaylistNotFound},
		{id: "quota", want: model.ErrProviderStatus},
		{id: "500", want: model.ErrProviderStatus},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := c.FetchPlaylist(context.Background(), tt.id)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestClient_FetchTracks(t *testing.T) {
	c := newClient(newServer(t), nil)

	tracks, err := c.FetchTracks(context.Background(), "1111")
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	got := tracks[1]
	assert.Equal(t, "11", got.ID)
	assert.Equal(t, "Wildberry Lillet", got.Name)
	assert.Equal(t, []model.Artist{{Name: "Nina Chuba", ExternalID: "8"}}, got.Artists)
	require.NotNil(t, got.Rank)
	assert.Equal(t, int64(912345), *got.Rank)
	assert.Nil(t, got.Streams)
	assert.Equal(t, "https://www.deezer.com/track/11", got.URL())
}

func TestClient_FetchTracks_Malformed(t *testing.T) {
	c := newClient(newServer(t), nil)

	_, err := c.FetchTracks(context.Background(), "broken")
	assert.ErrorIs(t, err, model.ErrMalformedPayload)
}

type coverStub struct {
	cover string
	err   error
	calls int
}

func (s *coverStub) SearchCover(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.cover, s.err
}

func TestClient_EnrichCoverFallback(t *testing.T) {
	stub := &coverStub{cover: "https://i.scdn.co/image/fallback"}
	c := newClient(newServer(t), stub)

	withCover := model.Track{Name: "Intro", CoverURL: "https://cdn/10.jpg", Artists: []model.Artist{{Name: "Someone"}}}
	require.NoError(t, c.Enrich(context.Background(), &withCover))
	assert.Equal(t, 0, stub.calls)

	noCover := model.Track{Name: "Wildberry Lillet", Artists: []model.Artist{{Name: "Nina Chuba"}}}
	require.NoError(t, c.Enrich(context.Background(), &noCover))
	assert.Equal(t, "https://i.scdn.co/image/fallback", noCover.CoverURL)

	stub.err = errors.New("search failed")
	other := model.Track{Name: "X", Artists: []model.Artist{{Name: "Y"}}}
	assert.Error(t, c.Enrich(context.Background(), &other))
	assert.Empty(t, other.CoverURL)
}

func TestClient_RequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
			_, _ = w.Write([]byte(playlistJSON))
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Options{BaseURL: srv.URL, RequestTimeout: 50 * time.Millisecond}, zap.NewNop())

	start := time.Now()
	_, err := c.FetchPlaylist(context.Background(), "1111")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), time.Second)
}
