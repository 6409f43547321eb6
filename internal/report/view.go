package report

import (
	"strconv"

	"playlistscanner/internal/model"
)

// View данные HTML-представления результата сканирования
type View struct {
	ScanID   string
	Query    string
	Summary  model.ScanSummary
	Entries  []EntryView
	Failures []FailureView
	PDFURL   string
}

// Found проверяет, найдено ли что-нибудь
func (v *View) Found() bool {
	return v.Summary.Found
}

// EntryView блок одного трека
type EntryView struct {
	Name      string
	Artists   []Link
	TrackURL  string
	CoverURL  string
	Details   []string
	Playlists []PlaylistRow
}

// Link подпись со ссылкой. URL может быть пустым.
type Link struct {
	Name string
	URL  string
}

// PlaylistRow строка вхождения трека в плейлист
type PlaylistRow struct {
	Name        string
	Cover       string
	URL         string
	Owner       string
	Followers   string
	Description string
	Position    int
	Provider    string
}

// FailureView пропущенный плейлист
type FailureView struct {
	Provider string
	ID       string
	Name     string
	Reason   string
	URL      string
}

// BuildView строит представление в порядке первого появления треков
func BuildView(result *model.ScanResult) *View {
	v := &View{
		ScanID:  result.ID,
		Query:   result.Query,
		Summary: result.Summary(),
	}
	if !result.IsEmpty() {
		v.PDFURL = "/scans/" + result.ID + "/report.pdf"
	}

	for _, entry := range result.OrderedEntries() {
		v.Entries = append(v.Entries, buildEntry(entry))
	}

	for _, f := range result.Failures {
		v.Failures = append(v.Failures, FailureView{
			Provider: f.Ref.Provider.DisplayName(),
			ID:       f.Ref.ID,
			Name:     f.Ref.Name,
			Reason:   string(f.Reason),
			URL:      f.Ref.URL(),
		})
	}
	return v
}

func buildEntry(entry *model.AggregateEntry) EntryView {
	track := entry.Track
	e := EntryView{
		Name:     track.Name,
		TrackURL: track.URL(),
		CoverURL: track.CoverURL,
		Details:  track.Details(),
	}
	for _, a := range track.Artists {
		e.Artists = append(e.Artists, Link{Name: a.Name, URL: a.URL(track.Provider)})
	}
	for i := range entry.Playlists {
		pl := &entry.Playlists[i]
		e.Playlists = append(e.Playlists, PlaylistRow{
			Name:        pl.Name,
			Cover:       pl.Cover,
			URL:         pl.URL,
			Owner:       pl.OwnerText(),
			Followers:   pl.FollowersText(),
			Description: StripMarkup(pl.Description),
			Position:    pl.Position,
			Provider:    pl.Provider.DisplayName(),
		})
	}
	return e
}

// PositionText номер позиции для шаблона
func (r PlaylistRow) PositionText() string {
	if r.Position <= 0 {
		return "-"
	}
	return strconv.Itoa(r.Position)
}

// IndexView данные формы поиска
type IndexView struct {
	Query string
	Error string
}

// PlaylistsView обзор отслеживаемых плейлистов
type PlaylistsView struct {
	Sections []PlaylistSection
	Message  string
}

// PlaylistSection плейлисты одного провайдера
type PlaylistSection struct {
	Provider  string
	Playlists []PlaylistCard
}

// PlaylistCard актуальные метаданные плейлиста
type PlaylistCard struct {
	ID        string
	Name      string
	Owner     string
	Followers string
	CoverURL  string
	URL       string
	Error     string
}
