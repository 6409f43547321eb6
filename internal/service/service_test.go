package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"playlistscanner/internal/domain/scan"
	"playlistscanner/internal/infrastructure/metrics"
	"playlistscanner/internal/model"
	"playlistscanner/internal/report"
	"playlistscanner/internal/storage/reports"
)

type fakeRegistry struct {
	refs []model.PlaylistRef
	err  error
}

func (r *fakeRegistry) Refs() ([]model.PlaylistRef, error) { return r.refs, r.err }

func (r *fakeRegistry) Add(_ context.Context, rawURL, name string) (model.PlaylistRef, error) {
	if rawURL == "bad" {
		return model.PlaylistRef{}, model.ErrUnsupportedURL
	}
	ref := model.PlaylistRef{ID: "new1", Provider: model.ProviderDeezer, Name: name}
	r.refs = append(r.refs, ref)
	return ref, nil
}

func (r *fakeRegistry) Remove(model.Provider, string) error { return nil }

type fakeSource struct {
	provider model.Provider
	infos    map[string]model.PlaylistInfo
	tracks   map[string][]model.Track
}

func (f *fakeSource) Provider() model.Provider { return f.provider }

func (f *fakeSource) FetchPlaylist(_ context.Context, id string) (*model.PlaylistInfo, error) {
	info, ok := f.infos[id]
	if !ok {
		return nil, fmt.Errorf("playlist %s: %w", id, model.ErrPlaylistNotFound)
	}
	return &info, nil
}

func (f *fakeSource) FetchTracks(_ context.Context, id string) ([]model.Track, error) {
	return f.tracks[id], nil
}

func (f *fakeSource) Enrich(context.Context, *model.Track) error { return nil }

type fakeTokens struct{ err error }

func (f fakeTokens) Token(context.Context) (string, error)   { return "tok", f.err }
func (f fakeTokens) Refresh(context.Context, string) (string, error) { return "tok", f.err }

type fakeHistory struct {
	runs []model.ScanRun
	err  error
}

func (h *fakeHistory) Create(_ context.Context, run *model.ScanRun) error {
	if h.err != nil {
		return h.err
	}
	h.runs = append(h.runs, *run)
	return nil
}

func (h *fakeHistory) GetByScanID(context.Context, string) (*model.ScanRun, error) { return nil, nil }

func (h *fakeHistory) GetRecent(_ context.Context, limit int) ([]model.ScanRun, error) {
	if limit > len(h.runs) {
		limit = len(h.runs)
	}
	return h.runs[:limit], nil
}

type failingRenderer struct{}

func (failingRenderer) RenderPDF(context.Context, *model.ScanResult) ([]byte, error) {
	return nil, errors.New("render failed")
}

func sources() (*fakeSource, *fakeSource) {
	followers := int64(900)
	glas := model.Track{Name: "Glas", Artists: []model.Artist{{Name: "Nina Chuba"}}}
	sp := &fakeSource{
		provider: model.ProviderSpotify,
		infos: map[string]model.PlaylistInfo{
			"sp1": {ID: "sp1", Provider: model.ProviderSpotify, Name: "Deutschrap Brandneu", Owner: "Spotify", Followers: &followers},
		},
		tracks: map[string][]model.Track{"sp1": {{Name: "Other"}, glas}},
	}
	dz := &fakeSource{
		provider: model.ProviderDeezer,
		infos: map[string]model.PlaylistInfo{
			"123": {ID: "123", Provider: model.ProviderDeezer, Name: "Deezer Rap", Owner: "Deezer Rap Editor"},
		},
		tracks: map[string][]model.Track{"123": {glas}},
	}
	return sp, dz
}

func testRefs() []model.PlaylistRef {
	return []model.PlaylistRef{
		{ID: "sp1", Provider: model.ProviderSpotify, Name: "Brandneu"},
		{ID: "123", Provider: model.ProviderDeezer, Name: "Rap"},
	}
}

func newScanService(t *testing.T, deps ScanDeps) *ScanService {
	t.Helper()
	sp, dz := sources()
	if deps.Registry == nil {
		deps.Registry = &fakeRegistry{refs: testRefs()}
	}
	if deps.Aggregator == nil {
		deps.Aggregator = scan.NewAggregator([]scan.Source{sp, dz}, 2, zap.NewNop())
	}
	if deps.Renderer == nil {
		deps.Renderer = report.NewRenderer(http.DefaultClient, report.Options{}, zap.NewNop())
	}
	if deps.Reports == nil {
		deps.Reports = reports.NewMemory(0, 10)
	}
	return NewScanService(deps, zap.NewNop())
}

func TestScanService_Scan(t *testing.T) {
	history := &fakeHistory{}
	m := metrics.NewMetrics(zap.NewNop())
	svc := newScanService(t, ScanDeps{Tokens: fakeTokens{}, History: history, Metrics: m})

	outcome, err := svc.Scan(context.Background(), "  nina chuba ", nil)
	require.NoError(t, err)
	require.NoError(t, outcome.ReportErr)

	result := outcome.Result
	assert.Equal(t, "nina chuba", result.Query)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 2, result.TotalListings)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 2, result.OrderedEntries()[0].Playlists[0].Position)
	assert.Equal(t, "/scans/"+result.ID+"/report.pdf", outcome.View.PDFURL)

	pdf, err := svc.Report(context.Background(), result.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	runs, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.ID, runs[0].ScanID)

	scans := m.GetStats()["scans"].(map[string]interface{})
	assert.Equal(t, int64(1), scans["total_scans"])
}

func TestScanService_ScanWithoutToken(t *testing.T) {
	tests := []struct {
		name   string
		tokens fakeTokens
		nilTok bool
	}{
		{"токен отклонен", fakeTokens{err: fmt.Errorf("probe: %w", model.ErrTokenUnavailable)}, false},
		{"ошибка получения токена", fakeTokens{err: errors.New("accounts down")}, false},
		{"токен не настроен", fakeTokens{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := ScanDeps{Tokens: tt.tokens}
			if tt.nilTok {
				deps.Tokens = nil
			}
			svc := newScanService(t, deps)

			outcome, err := svc.Scan(context.Background(), "glas", nil)
			require.NoError(t, err)

			result := outcome.Result
			require.Len(t, result.Failures, 1)
			assert.Equal(t, model.FailureTokenUnavailable, result.Failures[0].Reason)
			assert.Equal(t, "sp1", result.Failures[0].Ref.ID)
			assert.Equal(t, 1, result.TotalListings)
			assert.Equal(t, []string{"Deezer Rap"}, result.UniquePlaylistNames())
		})
	}
}

func TestScanService_ScanDeezerOnlySkipsTokenCheck(t *testing.T) {
	svc := newScanService(t, ScanDeps{
		Registry: &fakeRegistry{refs: testRefs()[1:]},
		Tokens:   fakeTokens{err: model.ErrTokenUnavailable},
	})

	outcome, err := svc.Scan(context.Background(), "glas", nil)
	require.NoError(t, err)
	assert.Empty(t, outcome.Result.Failures)
}

func TestScanService_ScanErrors(t *testing.T) {
	svc := newScanService(t, ScanDeps{Registry: &fakeRegistry{err: errors.New("bad json")}})

	_, err := svc.Scan(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.Scan(context.Background(), "glas", nil)
	assert.Error(t, err)
}

func TestScanService_RenderFailureKeepsResult(t *testing.T) {
	history := &fakeHistory{err: errors.New("db down")}
	svc := newScanService(t, ScanDeps{Tokens: fakeTokens{}, Renderer: failingRenderer{}, History: history})

	outcome, err := svc.Scan(context.Background(), "glas", nil)
	require.NoError(t, err)
	assert.Error(t, outcome.ReportErr)
	assert.Empty(t, outcome.View.PDFURL)
	assert.Equal(t, 2, outcome.Result.TotalListings)

	_, err = svc.Report(context.Background(), outcome.Result.ID)
	assert.ErrorIs(t, err, model.ErrReportNotFound)
}

func TestScanService_HistoryDisabled(t *testing.T) {
	svc := newScanService(t, ScanDeps{})

	runs, err := svc.History(context.Background(), 5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
}

func TestPlaylistService_Overview(t *testing.T) {
	sp, dz := sources()
	refs := append(testRefs(), model.PlaylistRef{ID: "gone", Provider: model.ProviderSpotify, Name: "Removed"})
	svc := NewPlaylistService(&fakeRegistry{refs: refs}, []scan.Source{sp, dz}, 2, zap.NewNop())

	view := svc.Overview(context.Background())

	require.Len(t, view.Sections, 2)
	assert.Equal(t, "Spotify", view.Sections[0].Provider)
	require.Len(t, view.Sections[0].Playlists, 2)
	first := view.Sections[0].Playlists[0]
	assert.Equal(t, "Deutschrap Brandneu", first.Name)
	assert.Equal(t, "900", first.Followers)
	assert.Equal(t, "https://open.spotify.com/playlist/sp1", first.URL)

	missing := view.Sections[0].Playlists[1]
	assert.Equal(t, "Removed", missing.Name)
	assert.Equal(t, model.NotAvailable, missing.Followers)
	assert.NotEmpty(t, missing.Error)

	deezer := view.Sections[1].Playlists[0]
	assert.Equal(t, "Deezer Rap Editor", deezer.Owner)
	assert.Equal(t, model.NotAvailable, deezer.Followers)
}

func TestPlaylistService_Add(t *testing.T) {
	registry := &fakeRegistry{}
	svc := NewPlaylistService(registry, nil, 1, zap.NewNop())

	ref, err := svc.Add(context.Background(), "https://www.deezer.com/de/playlist/new1", "Neu")
	require.NoError(t, err)
	assert.Equal(t, "new1", ref.ID)

	_, err = svc.Add(context.Background(), "bad", "")
	assert.ErrorIs(t, err, model.ErrUnsupportedURL)

	list, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPlaylistService_OverviewRegistryError(t *testing.T) {
	svc := NewPlaylistService(&fakeRegistry{err: errors.New("broken")}, nil, 1, zap.NewNop())

	view := svc.Overview(context.Background())
	assert.Empty(t, view.Sections)
	assert.Contains(t, view.Message, "broken")
}
