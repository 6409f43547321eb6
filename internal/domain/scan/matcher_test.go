package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"playlistscanner/internal/model"
)

func track(name string, artists ...string) model.Track {
	t := model.Track{Name: name, Provider: model.ProviderSpotify}
	for _, a := range artists {
		t.Artists = append(t.Artists, model.Artist{Name: a})
	}
	return t
}

func TestMatchTracks(t *testing.T) {
	tracks := []model.Track{
		track("Wenn das Liebe ist", "Glasperlenspiel"),
		{},
		track("Ich hass dich", "Nina Chuba"),
		track("Wildberry Lillet", "Nina Chuba"),
		track("Nina", "Kasalla"),
	}

	tests := []struct {
		name      string
		query     string
		positions []int
	}{
		{"по исполнителю без учета регистра", "nina chuba", []int{3, 4}},
		{"по названию", "lillet", []int{4}},
		{"подстрока в названии и исполнителе", "nina", []int{3, 4, 5}},
		{"пробелы по краям", "  KASALLA ", []int{5}},
		{"пустой запрос", "", nil},
		{"только пробелы", "   ", nil},
		{"нет совпадений", "rammstein", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := MatchTracks(tracks, tt.query)
			var positions []int
			for _, m := range matches {
				positions = append(positions, m.Position)
			}
			assert.Equal(t, tt.positions, positions)
		})
	}
}

func TestMatches(t *testing.T) {
	tr := track("Glas", "Nina Chuba", "Chapo102")

	assert.True(t, Matches(&tr, "chapo"))
	assert.True(t, Matches(&tr, "GLAS"))
	assert.False(t, Matches(&tr, ""))
	assert.False(t, Matches(&tr, "apache"))
}
