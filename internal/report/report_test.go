package report

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"playlistscanner/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 29, G: 185, B: 84, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newImageServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	cover := pngBytes(t, 640, 320)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		switch r.URL.Path {
		case "/cover.png", "/bg.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(cover)
		case "/broken.png":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sampleResult(coverURL, playlistCover string) *model.ScanResult {
	followers := int64(1250000)
	r := model.NewScanResult("scan-1", "nina chuba")
	r.PlaylistsTotal = 3
	song := model.Track{
		ID:          "7abc",
		Name:        "Ich hass dich",
		Artists:     []model.Artist{{Name: "Nina Chuba", ExternalID: "nc1"}},
		ReleaseDate: "2023-01-13",
		CoverURL:    coverURL,
		Provider:    model.ProviderSpotify,
	}
	for i, name := range []string{"New Music Friday", "Deutschrap Brandneu", "Pop Musik", "Hot Hits", "Release Radar"} {
		r.Add(song, model.PlaylistMatch{
			Name:        name,
			URL:         "https://open.spotify.com/playlist/p" + name[:3],
			Owner:       "Spotify",
			Followers:   &followers,
			Description: `Die besten <a href="spotify:user:x">@neuen</a> Songs – jeden Freitag 🎧`,
			Cover:       playlistCover,
			Position:    i + 1,
			Provider:    model.ProviderSpotify,
		})
	}
	r.AddFailure(model.PlaylistRef{ID: "123", Provider: model.ProviderDeezer, Name: "Deezer Hits"}, model.FailureTimeout, nil)
	r.FinishedAt = r.StartedAt.Add(time.Second)
	return r
}

func newTestRenderer(bg string) *Renderer {
	now := func() time.Time { return time.Date(2025, 3, 7, 14, 5, 9, 0, time.UTC) }
	return NewRenderer(http.DefaultClient, Options{BackgroundURL: bg, Now: now}, zap.NewNop())
}

func TestRenderPDF_WithImages(t *testing.T) {
	var hits int32
	srv := newImageServer(t, &hits)
	r := newTestRenderer(srv.URL + "/bg.png")

	data, err := r.RenderPDF(context.Background(), sampleResult(srv.URL+"/cover.png", srv.URL+"/cover.png"))

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	// фон один раз, обложка один раз из кэша отчета
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestRenderPDF_WithoutCover(t *testing.T) {
	r := newTestRenderer("")

	data, err := r.RenderPDF(context.Background(), sampleResult("", ""))

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderPDF_BrokenImagesAreSkipped(t *testing.T) {
	srv := newImageServer(t, nil)
	r := newTestRenderer(srv.URL + "/missing.png")

	data, err := r.RenderPDF(context.Background(), sampleResult(srv.URL+"/broken.png", srv.URL+"/missing.png"))

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderPDF_NotFound(t *testing.T) {
	r := newTestRenderer("")

	data, err := r.RenderPDF(context.Background(), model.NewScanResult("scan-2", "rammstein"))

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRender(t *testing.T) {
	r := newTestRenderer("")

	view, data, err := r.Render(context.Background(), sampleResult("", ""))

	require.NoError(t, err)
	assert.NotEmpty(t, data)
	require.NotNil(t, view)
	assert.Equal(t, "/scans/scan-1/report.pdf", view.PDFURL)
	require.Len(t, view.Entries, 1)
}

func TestBuildView(t *testing.T) {
	view := BuildView(sampleResult("https://i.scdn.co/image/abc", ""))

	assert.True(t, view.Found())
	require.Len(t, view.Entries, 1)
	entry := view.Entries[0]
	assert.Equal(t, "https://open.spotify.com/track/7abc", entry.TrackURL)
	assert.Equal(t, []Link{{Name: "Nina Chuba", URL: "https://open.spotify.com/artist/nc1"}}, entry.Artists)
	assert.Equal(t, []string{"Released: 2023-01-13"}, entry.Details)
	require.Len(t, entry.Playlists, 5)
	assert.Equal(t, "1.250.000", entry.Playlists[0].Followers)
	assert.Equal(t, "Die besten @neuen Songs – jeden Freitag 🎧", entry.Playlists[0].Description)

	require.Len(t, view.Failures, 1)
	assert.Equal(t, "Deezer", view.Failures[0].Provider)
	assert.Equal(t, "timeout", view.Failures[0].Reason)
	assert.Equal(t, "1 of 3 playlists unreachable", view.Summary.FailureHeadline)
}

func TestTemplates(t *testing.T) {
	tmpl, err := NewTemplates()
	require.NoError(t, err)

	t.Run("найденные треки", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, tmpl.Execute(&buf, PageResult, BuildView(sampleResult("", ""))))
		html := buf.String()
		assert.Contains(t, html, "Nina Chuba is placed in 5 playlists")
		assert.Contains(t, html, `href="/scans/scan-1/report.pdf"`)
		assert.Contains(t, html, "1 of 3 playlists unreachable")
		assert.Contains(t, html, "Deezer Hits")
		assert.Contains(t, html, `<small class="description">Die besten @neuen Songs`)
		assert.NotContains(t, html, "spotify:user:x")
	})

	t.Run("ничего не найдено", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, tmpl.Execute(&buf, PageResult, BuildView(model.NewScanResult("x", "rammstein"))))
		html := buf.String()
		assert.Contains(t, html, "I&#39;m sorry, rammstein couldn&#39;t be found.")
		assert.NotContains(t, html, "report.pdf")
	})

	t.Run("обзор плейлистов", func(t *testing.T) {
		var buf bytes.Buffer
		data := PlaylistsView{Sections: []PlaylistSection{{
			Provider:  "Spotify",
			Playlists: []PlaylistCard{{Name: "New Music Friday", Owner: "Spotify", Followers: "N/A", URL: "https://open.spotify.com/playlist/x"}},
		}}}
		require.NoError(t, tmpl.Execute(&buf, PagePlaylists, data))
		assert.Contains(t, buf.String(), "New Music Friday")
		// форма принимает и spotify:playlist:{id}
		assert.Contains(t, buf.String(), `<input type="text" name="url"`)
	})

	t.Run("неизвестная страница", func(t *testing.T) {
		assert.Error(t, tmpl.Execute(&bytes.Buffer{}, "missing.html", nil))
	})
}

func TestPDFText(t *testing.T) {
	assert.Equal(t, "Kurator: A \x96 B", pdfText("Kurator: A – B"))
	assert.Equal(t, "Caf\xe9 ", pdfText("Café 🎧"))
	assert.Equal(t, "link text", pdfText(`<a href="x">link</a> text`))
	assert.Equal(t, "", pdfText(""))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "plain", StripMarkup("plain"))
	assert.Equal(t, "Hello @diffus", StripMarkup(`Hello <a href="https://x">@diffus</a>`))
	assert.Equal(t, "Rock & Roll", StripMarkup("Rock &amp; Roll"))
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"широкое", 640, 320, 200, 100},
		{"высокое", 300, 600, 100, 200},
		{"маленькое не увеличивается", 64, 64, 64, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := toJPEG(pngBytes(t, tt.w, tt.h), MaxImageSide)
			require.NoError(t, err)
			img, err := jpeg.Decode(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}
}

func TestImageLoader_Errors(t *testing.T) {
	srv := newImageServer(t, nil)
	l := newImageLoader(http.DefaultClient, MaxImageSide, zap.NewNop())

	_, err := l.Load(context.Background(), "")
	assert.ErrorIs(t, err, errEmptyImageURL)

	_, err = l.Load(context.Background(), srv.URL+"/broken.png")
	assert.Error(t, err)

	_, err = l.Load(context.Background(), srv.URL+"/missing.png")
	assert.True(t, err != nil && strings.Contains(err.Error(), "404"))
}
