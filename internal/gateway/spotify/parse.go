package spotify

import (
	"fmt"

	"github.com/zmb3/spotify/v2"

	"playlistscanner/internal/model"
)

// Enrichment данные, полученные вторичными запросами по треку
type Enrichment struct {
	ReleaseDate string `json:"release_date,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	Popularity  *int   `json:"popularity,omitempty"`
	Streams     *int64 `json:"streams,omitempty"`
}

// apply переносит известные поля в трек, не затирая имеющиеся пустыми
func (e Enrichment) apply(t *model.Track) {
	if e.ReleaseDate != "" {
		t.ReleaseDate = e.ReleaseDate
	}
	if e.CoverURL != "" {
		t.CoverURL = e.CoverURL
	}
	if e.Popularity != nil {
		t.Popularity = e.Popularity
	}
	if e.Streams != nil {
		t.Streams = e.Streams
	}
}

func enrichmentFromTrack(t *spotify.FullTrack) Enrichment {
	if t == nil {
		return Enrichment{}
	}
	popularity := int(t.Popularity)
	return Enrichment{
		ReleaseDate: t.Album.ReleaseDate,
		CoverURL:    firstImage(t.Album.Images),
		Popularity:  &popularity,
	}
}

// parsePlaylist приводит ответ /playlists/{id} к PlaylistInfo
func parsePlaylist(id string, p *spotify.FullPlaylist) (*model.PlaylistInfo, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: empty playlist response for %s", model.ErrMalformedPayload, id)
	}
	if p.ID != "" && string(p.ID) != id {
		return nil, fmt.Errorf("%w: playlist id mismatch %s != %s", model.ErrMalformedPayload, p.ID, id)
	}

	followers := int64(p.Followers.Count)
	url := p.ExternalURLs["spotify"]
	if url == "" {
		url = model.PlaylistRef{ID: id, Provider: model.ProviderSpotify}.URL()
	}

	return &model.PlaylistInfo{
		ID:          id,
		Provider:    model.ProviderSpotify,
		Name:        p.Name,
		Owner:       p.Owner.DisplayName,
		Followers:   &followers,
		Description: p.Description,
		CoverURL:    firstImage(p.Images),
		URL:         url,
		TotalTracks: int(p.Tracks.Total),
	}, nil
}

// adaptItem приводит элемент плейлиста к Track. Эпизоды и удаленные треки дают пустую запись.
func adaptItem(item spotify.PlaylistItem) model.Track {
	if item.Track.Track == nil {
		return model.Track{Provider: model.ProviderSpotify}
	}
	return adaptTrack(item.Track.Track)
}

func adaptTrack(t *spotify.FullTrack) model.Track {
	artists := make([]model.Artist, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, model.Artist{Name: a.Name, ExternalID: string(a.ID)})
	}

	popularity := int(t.Popularity)
	return model.Track{
		ID:          string(t.ID),
		Name:        t.Name,
		Artists:     artists,
		ReleaseDate: t.Album.ReleaseDate,
		Popularity:  &popularity,
		CoverURL:    firstImage(t.Album.Images),
		Provider:    model.ProviderSpotify,
	}
}

func firstImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
