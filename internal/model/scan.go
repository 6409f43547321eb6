// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: AggregateEntry, ScanResult, PlaylistFailure, ScanSummary
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// AggregateEntry объединяет все вхождения одного трека
type AggregateEntry struct {
	Key       TrackKey        `json:"key"`
	Track     Track           `json:"track"`
	Playlists []PlaylistMatch `json:"playlists"`
}

// DistinctPlaylists возвращает вхождения без повторов по (имя, ссылка)
func (e *AggregateEntry) DistinctPlaylists() []PlaylistMatch {
	type plKey struct{ name, url string }
	seen := make(map[plKey]struct{}, len(e.Playlists))
	out := make([]PlaylistMatch, 0, len(e.Playlists))
	for _, pl := range e.Playlists {
		k := plKey{pl.Name, pl.URL}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, pl)
	}
	return out
}

// PlaylistFailure описывает плейлист, пропущенный при сканировании
type PlaylistFailure struct {
	Ref    PlaylistRef   `json:"ref"`
	Reason FailureReason `json:"reason"`
	Error  string        `json:"error,omitempty"`
}

// ScanResult результат одного сканирования. После завершения не изменяется.
type ScanResult struct {
	ID              string                       `json:"id"`
	Query           string                       `json:"query"`
	StartedAt       time.Time                    `json:"started_at"`
	FinishedAt      time.Time                    `json:"finished_at"`
	Entries         map[TrackKey]*AggregateEntry `json:"entries"`
	Order           []TrackKey                   `json:"order"`
	TotalListings   int                          `json:"total_listings"`
	UniquePlaylists map[string]struct{}          `json:"-"`
	Failures        []PlaylistFailure            `json:"failures,omitempty"`
	PlaylistsTotal  int                          `json:"playlists_total"`
}

// NewScanResult создает пустой результат сканирования
func NewScanResult(id, query string) *ScanResult {
	return &ScanResult{
		ID:              id,
		Query:           query,
		StartedAt:       time.Now(),
		Entries:         make(map[TrackKey]*AggregateEntry),
		UniquePlaylists: make(map[string]struct{}),
	}
}

// Add добавляет вхождение трека. Не потокобезопасен: вызывается только на этапе свертки.
func (r *ScanResult) Add(track Track, match PlaylistMatch) {
	key := KeyOf(&track)
	entry, ok := r.Entries[key]
	if !ok {
		entry = &AggregateEntry{Key: key, Track: track}
		r.Entries[key] = entry
		r.Order = append(r.Order, key)
	}
	entry.Playlists = append(entry.Playlists, match)
	r.TotalListings++
	r.UniquePlaylists[match.Name] = struct{}{}
}

// AddFailure регистрирует пропущенный плейлист
func (r *ScanResult) AddFailure(ref PlaylistRef, reason FailureReason, err error) {
	f := PlaylistFailure{Ref: ref, Reason: reason}
	if err != nil {
		f.Error = err.Error()
	}
	r.Failures = append(r.Failures, f)
}

// OrderedEntries возвращает записи в порядке первого появления
func (r *ScanResult) OrderedEntries() []*AggregateEntry {
	out := make([]*AggregateEntry, 0, len(r.Order))
	for _, k := range r.Order {
		out = append(out, r.Entries[k])
	}
	return out
}

// IsEmpty проверяет, найден ли хотя бы один трек
func (r *ScanResult) IsEmpty() bool {
	return len(r.Entries) == 0
}

// UniquePlaylistNames возвращает отсортированные имена затронутых плейлистов
func (r *ScanResult) UniquePlaylistNames() []string {
	names := make([]string, 0, len(r.UniquePlaylists))
	for name := range r.UniquePlaylists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScanSummary сводка результата для отображения
type ScanSummary struct {
	Headline        string  `json:"headline"`
	Found           bool    `json:"found"`
	DistinctSongs   int     `json:"distinct_songs"`
	DistinctLists   int     `json:"distinct_playlists"`
	TotalListings   int     `json:"total_listings"`
	PlaylistsTotal  int     `json:"playlists_total"`
	PlaylistsFailed int     `json:"playlists_failed"`
	FailureHeadline string  `json:"failure_headline,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Summary строит сводку результата
func (r *ScanResult) Summary() ScanSummary {
	s := ScanSummary{
		Found:           !r.IsEmpty(),
		DistinctSongs:   len(r.Entries),
		DistinctLists:   len(r.UniquePlaylists),
		TotalListings:   r.TotalListings,
		PlaylistsTotal:  r.PlaylistsTotal,
		PlaylistsFailed: len(r.Failures),
	}
	if !r.FinishedAt.IsZero() {
		s.DurationSeconds = r.FinishedAt.Sub(r.StartedAt).Seconds()
	}

	switch {
	case r.IsEmpty():
		s.Headline = fmt.Sprintf("I'm sorry, %s couldn't be found.", r.Query)
	case r.matchedArtist() != "":
		s.Headline = fmt.Sprintf("%s is placed in %d playlists, with %d distinct song(s). They have been listed a total of %d times.",
			r.matchedArtist(), s.DistinctLists, s.DistinctSongs, s.TotalListings)
	default:
		first := r.Entries[r.Order[0]]
		s.Headline = fmt.Sprintf("%s is placed in %d playlists.", strings.TrimSpace(first.Track.Name), s.DistinctLists)
	}

	if s.PlaylistsFailed > 0 {
		s.FailureHeadline = fmt.Sprintf("%d of %d playlists unreachable", s.PlaylistsFailed, s.PlaylistsTotal)
	}
	return s
}

// matchedArtist ищет исполнителя, имя которого содержит запрос
func (r *ScanResult) matchedArtist() string {
	q := strings.ToLower(strings.TrimSpace(r.Query))
	if q == "" {
		return ""
	}
	for _, key := range r.Order {
		for _, a := range r.Entries[key].Track.Artists {
			if strings.Contains(strings.ToLower(a.Name), q) {
				return a.Name
			}
		}
	}
	return ""
}
