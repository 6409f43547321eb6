package deezer

import (
	"playlistscanner/internal/model"
)

func parsePlaylist(id string, p *Playlist) *model.PlaylistInfo {
	owner := ""
	switch {
	case p.Creator != nil && p.Creator.Name != "":
		owner = p.Creator.Name
	case p.User != nil:
		owner = p.User.Name
	}

	cover := p.Picture
	if cover == "" {
		cover = p.PictureMedium
	}

	return &model.PlaylistInfo{
		ID:          id,
		Provider:    model.ProviderDeezer,
		Name:        p.Title,
		Owner:       owner,
		Followers:   p.Fans,
		Description: p.Description,
		CoverURL:    cover,
		URL:         model.PlaylistRef{ID: id, Provider: model.ProviderDeezer}.URL(),
		TotalTracks: p.NbTracks,
	}
}

// adaptTrack приводит трек Deezer к Track. У Deezer один исполнитель на трек.
func adaptTrack(t *Track) model.Track {
	track := model.Track{
		ID:       t.ID.String(),
		Name:     t.Title,
		Rank:     t.Rank,
		Provider: model.ProviderDeezer,
	}
	if t.Artist != nil {
		track.Artists = []model.Artist{{Name: t.Artist.Name, ExternalID: t.Artist.ID.String()}}
	}
	if t.Album != nil {
		track.CoverURL = t.Album.Cover
	}
	return track
}
