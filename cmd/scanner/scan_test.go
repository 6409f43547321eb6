package main

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlistscanner/internal/model"
	"playlistscanner/internal/report"
	"playlistscanner/internal/service"
)

func TestProgressPrinter_ConcurrentUpdates(t *testing.T) {
	var buf bytes.Buffer
	progress := progressPrinter(&buf)

	const total = 50
	var wg sync.WaitGroup
	for i := 1; i <= total; i++ {
		wg.Add(1)
		go func(done int) {
			defer wg.Done()
			progress(done, total)
		}(i)
	}
	wg.Wait()

	out := buf.String()
	require.True(t, strings.HasSuffix(out, "\rScanning playlists: 50/50\n"), "got %q", out)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestProgressPrinter_SkipsStaleUpdates(t *testing.T) {
	var buf bytes.Buffer
	progress := progressPrinter(&buf)

	progress(2, 2)
	progress(1, 2)

	assert.Equal(t, "\rScanning playlists: 2/2\n", buf.String())
}

func TestPrintOutcome(t *testing.T) {
	r := model.NewScanResult("scan-1", "nina chuba")
	r.PlaylistsTotal = 2
	r.Add(model.Track{Name: "Glas", Artists: []model.Artist{{Name: "Nina Chuba"}}},
		model.PlaylistMatch{Name: "New Music Friday", URL: "https://open.spotify.com/playlist/nmf", Position: 5})
	r.AddFailure(model.PlaylistRef{ID: "123", Provider: model.ProviderDeezer}, model.FailureTimeout, nil)

	var buf bytes.Buffer
	printOutcome(&buf, &service.Outcome{Result: r, View: report.BuildView(r)})

	out := buf.String()
	assert.Contains(t, out, "Nina Chuba is placed in 1 playlists")
	assert.Contains(t, out, "Glas by Nina Chuba")
	assert.Contains(t, out, "#5")
	assert.Contains(t, out, "1 of 2 playlists unreachable")
	assert.Contains(t, out, "deezer 123: timeout")
}
