// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: PlaylistRef, PlaylistInfo, PlaylistMatch
package model

// PlaylistRef ссылается на отслеживаемый плейлист
type PlaylistRef struct {
	ID       string   `json:"id"`
	Provider Provider `json:"provider"`
	Name     string   `json:"name,omitempty"`
}

// Validate проверяет валидность ссылки на плейлист
func (r PlaylistRef) Validate() error {
	var errors ValidationErrors

	if err := ValidateRequired("id", r.ID); err != nil {
		errors = append(errors, err.(ValidationError))
	} else if err := ValidatePlaylistID("id", r.ID); err != nil {
		errors = append(errors, err.(ValidationError))
	}

	if err := ValidateEnum("provider", string(r.Provider), []string{string(ProviderSpotify), string(ProviderDeezer)}); err != nil {
		errors = append(errors, err.(ValidationError))
	}

	if errors.HasErrors() {
		return errors
	}

	return nil
}

// URL возвращает публичную ссылку на плейлист
func (r PlaylistRef) URL() string {
	switch r.Provider {
	case ProviderDeezer:
		return "https://www.deezer.com/playlist/" + r.ID
	case ProviderSpotify:
		return "https://open.spotify.com/playlist/" + r.ID
	default:
		return ""
	}
}

// PlaylistInfo содержит метаданные плейлиста от провайдера
type PlaylistInfo struct {
	ID          string   `json:"id"`
	Provider    Provider `json:"provider"`
	Name        string   `json:"name"`
	Owner       string   `json:"owner"`
	Followers   *int64   `json:"followers,omitempty"`
	Description string   `json:"description,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	URL         string   `json:"url"`
	TotalTracks int      `json:"total_tracks"`
}

// FollowersText возвращает число подписчиков или N/A
func (p *PlaylistInfo) FollowersText() string {
	return formatOptional(p.Followers)
}

// PlaylistMatch описывает одно вхождение трека в плейлист
type PlaylistMatch struct {
	Name        string   `json:"name"`
	Cover       string   `json:"cover,omitempty"`
	URL         string   `json:"url"`
	Owner       string   `json:"owner"`
	Followers   *int64   `json:"followers,omitempty"`
	Description string   `json:"description,omitempty"`
	Position    int      `json:"position"`
	Provider    Provider `json:"provider"`
}

// NewPlaylistMatch создает вхождение по метаданным плейлиста и позиции трека
func NewPlaylistMatch(info *PlaylistInfo, position int) PlaylistMatch {
	return PlaylistMatch{
		Name:        info.Name,
		Cover:       info.CoverURL,
		URL:         info.URL,
		Owner:       info.Owner,
		Followers:   info.Followers,
		Description: info.Description,
		Position:    position,
		Provider:    info.Provider,
	}
}

// FollowersText возвращает число подписчиков или N/A
func (m *PlaylistMatch) FollowersText() string {
	return formatOptional(m.Followers)
}

// OwnerText возвращает владельца плейлиста или N/A
func (m *PlaylistMatch) OwnerText() string {
	if m.Owner == "" {
		return NotAvailable
	}
	return m.Owner
}

func formatOptional(n *int64) string {
	if n == nil {
		return NotAvailable
	}
	return FormatNumber(*n)
}
