package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"playlistscanner/internal/model"
)

type fakeAccounts struct {
	server     *httptest.Server
	valid      map[string]bool
	tokenCalls int32
	probeCalls int32
	// unavailable число ответов 503 на проверку перед нормальной работой
	unavailable int32
}

func newFakeAccounts(t *testing.T, valid ...string) *fakeAccounts {
	t.Helper()
	f := &fakeAccounts{valid: map[string]bool{"cc-token": true}}
	for _, v := range valid {
		f.valid[v] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/playlists/probe", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.probeCalls, 1)
		if atomic.AddInt32(&f.unavailable, -1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		token := r.Header.Get("Authorization")
		if len(token) > 7 && f.valid[token[7:]] {
			_, _ = w.Write([]byte(`{"id":"probe"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"cc-token","token_type":"Bearer","expires_in":3600}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAccounts) source(cfg TokenConfig) *TokenSource {
	cfg.APIBaseURL = f.server.URL + "/v1/"
	cfg.TokenURL = f.server.URL + "/api/token"
	cfg.ProbePlaylist = "probe"
	return NewTokenSource(cfg, f.server.Client(), zap.NewNop())
}

func TestTokenSource_StaticToken(t *testing.T) {
	f := newFakeAccounts(t, "harvested")
	file := filepath.Join(t.TempDir(), "token.txt")
	src := f.source(TokenConfig{StaticToken: "harvested", CacheFile: file})

	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "harvested", token)

	saved, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "harvested", string(saved))
}

func TestTokenSource_CachedFile(t *testing.T) {
	f := newFakeAccounts(t, "from-file")
	file := filepath.Join(t.TempDir(), "token.txt")
	require.NoError(t, os.WriteFile(file, []byte("from-file\n"), 0o600))

	src := f.source(TokenConfig{StaticToken: "expired", CacheFile: file})
	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-file", token)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.tokenCalls))
}

func TestTokenSource_ClientCredentials(t *testing.T) {
	f := newFakeAccounts(t)
	file := filepath.Join(t.TempDir(), "token.txt")
	require.NoError(t, os.WriteFile(file, []byte("stale"), 0o600))

	src := f.source(TokenConfig{ClientID: "id", ClientSecret: "secret", CacheFile: file})
	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cc-token", token)

	// второй вызов не обращается к accounts
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.tokenCalls))

	saved, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "cc-token", string(saved))
}

func TestTokenSource_Unavailable(t *testing.T) {
	f := newFakeAccounts(t)
	src := f.source(TokenConfig{StaticToken: "expired"})

	_, err := src.Token(context.Background())
	assert.ErrorIs(t, err, model.ErrTokenUnavailable)
}

func TestTokenSource_RefreshSkipsRejected(t *testing.T) {
	f := newFakeAccounts(t, "harvested")
	src := f.source(TokenConfig{StaticToken: "harvested", ClientID: "id", ClientSecret: "secret"})

	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "harvested", token)

	token, err = src.Refresh(context.Background(), "harvested")
	require.NoError(t, err)
	assert.Equal(t, "cc-token", token)
}

func TestTokenSource_RefreshKeepsNewerToken(t *testing.T) {
	f := newFakeAccounts(t, "harvested")
	src := f.source(TokenConfig{StaticToken: "harvested", ClientID: "id", ClientSecret: "secret"})

	_, err := src.Token(context.Background())
	require.NoError(t, err)

	first, err := src.Refresh(context.Background(), "harvested")
	require.NoError(t, err)

	// второй воркер получил 401 со старым токеном уже после обновления
	second, err := src.Refresh(context.Background(), "harvested")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTokenSource_ProbeOutageDoesNotRejectToken(t *testing.T) {
	f := newFakeAccounts(t, "good-token")
	f.unavailable = 1
	src := f.source(TokenConfig{StaticToken: "good-token"})

	_, err := src.Token(context.Background())
	assert.ErrorIs(t, err, model.ErrTokenUnavailable)
	assert.ErrorContains(t, err, "503")

	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "good-token", token)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.probeCalls))
}

func TestTokenSource_Probe(t *testing.T) {
	f := newFakeAccounts(t, "good-token")
	src := f.source(TokenConfig{})

	tests := []struct {
		name        string
		token       string
		unavailable int32
		want        ProbeResult
		wantErr     bool
	}{
		{"действующий токен", "good-token", 0, ProbeValid, false},
		{"отклоненный токен", "expired", 0, ProbeInvalid, false},
		{"сервис недоступен", "good-token", 1, ProbeUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atomic.StoreInt32(&f.unavailable, tt.unavailable)
			got, err := src.Probe(context.Background(), tt.token)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrProviderStatus)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTokenSource_ProbeNetworkError(t *testing.T) {
	f := newFakeAccounts(t, "good-token")
	src := f.source(TokenConfig{StaticToken: "good-token"})
	f.server.Close()

	_, err := src.Token(context.Background())
	assert.ErrorIs(t, err, model.ErrTokenUnavailable)
	_, rejected := src.rejected["good-token"]
	assert.False(t, rejected)
}
