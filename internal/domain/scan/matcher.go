package scan

import (
	"strings"

	"playlistscanner/internal/model"
)

// Match трек, совпавший с запросом, и его позиция в плейлисте (с 1)
type Match struct {
	Track    model.Track
	Position int
}

// MatchTracks возвращает треки, в названии или исполнителях которых встречается query.
// Позиция считается по исходному порядку провайдера. Пустой запрос ничего не находит.
func MatchTracks(tracks []model.Track, query string) []Match {
	q := normalizeQuery(query)
	if q == "" {
		return nil
	}

	var matches []Match
	for i := range tracks {
		if matchesTrack(&tracks[i], q) {
			matches = append(matches, Match{Track: tracks[i], Position: i + 1})
		}
	}
	return matches
}

// Matches проверяет один трек
func Matches(track *model.Track, query string) bool {
	q := normalizeQuery(query)
	return q != "" && matchesTrack(track, q)
}

func matchesTrack(track *model.Track, q string) bool {
	if strings.Contains(strings.ToLower(track.Name), q) {
		return true
	}
	for _, a := range track.Artists {
		if strings.Contains(strings.ToLower(a.Name), q) {
			return true
		}
	}
	return false
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
