// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: Artist, Track, TrackKey
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Artist представляет исполнителя трека
type Artist struct {
	Name       string `json:"name"`
	ExternalID string `json:"external_id,omitempty"`
}

// URL возвращает ссылку на страницу исполнителя у провайдера
func (a Artist) URL(p Provider) string {
	if a.ExternalID == "" {
		return ""
	}
	switch p {
	case ProviderDeezer:
		return "https://www.deezer.com/artist/" + a.ExternalID
	case ProviderSpotify:
		return "https://open.spotify.com/artist/" + a.ExternalID
	default:
		return ""
	}
}

// Track представляет трек, приведенный к единому виду для обоих провайдеров
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Popularity  *int     `json:"popularity,omitempty"`
	Streams     *int64   `json:"streams,omitempty"`
	Rank        *int64   `json:"rank,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	Provider    Provider `json:"provider"`
}

// URL возвращает ссылку на трек у провайдера
func (t *Track) URL() string {
	if t.ID == "" {
		return ""
	}
	switch t.Provider {
	case ProviderDeezer:
		return "https://www.deezer.com/track/" + t.ID
	case ProviderSpotify:
		return "https://open.spotify.com/track/" + t.ID
	default:
		return ""
	}
}

// ArtistNames возвращает имена исполнителей через запятую
func (t *Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Details возвращает строки метаданных трека, известные на момент сканирования
func (t *Track) Details() []string {
	var details []string
	if t.ReleaseDate != "" {
		details = append(details, "Released: "+t.ReleaseDate)
	}
	if t.Popularity != nil {
		details = append(details, fmt.Sprintf("Popularity: %d", *t.Popularity))
	}
	if t.Streams != nil {
		details = append(details, "Streams: "+FormatNumber(*t.Streams))
	}
	if t.Rank != nil {
		details = append(details, "Rank: "+FormatNumber(*t.Rank))
	}
	return details
}

// TrackKey идентифицирует одну и ту же песню в разных плейлистах.
// Эвристика: совпадение нормализованного названия и множества исполнителей.
type TrackKey string

// KeyOf вычисляет TrackKey трека
func KeyOf(t *Track) TrackKey {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, normalizeKeyPart(a.Name))
	}
	sort.Strings(artists)
	return TrackKey(normalizeKeyPart(t.Name) + " - " + strings.Join(artists, "/"))
}

func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// FormatNumber форматирует число с точкой в качестве разделителя тысяч
func FormatNumber(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
