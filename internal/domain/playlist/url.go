package playlist

import (
	"fmt"
	"net/url"
	"strings"

	"playlistscanner/internal/model"
)

var shortLinkHosts = map[string]struct{}{
	"spotify.link":     {},
	"spoti.fi":         {},
	"link.deezer.com":  {},
	"deezer.page.link": {},
}

// IsShortLink проверяет, является ли ссылка короткой ссылкой для шаринга
func IsShortLink(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	_, ok := shortLinkHosts[strings.ToLower(u.Hostname())]
	return ok
}

// ParsePlaylistURL разбирает ссылку на плейлист Spotify или Deezer.
// Поддерживает open.spotify.com/[intl-xx/]playlist/{id}, spotify:playlist:{id}
// и deezer.com/[lang/]playlist/{id}.
func ParsePlaylistURL(raw string) (model.PlaylistRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.PlaylistRef{}, fmt.Errorf("%w: empty", model.ErrUnsupportedURL)
	}

	if strings.HasPrefix(raw, "spotify:playlist:") {
		return newRef(strings.TrimPrefix(raw, "spotify:playlist:"), model.ProviderSpotify, raw)
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return model.PlaylistRef{}, fmt.Errorf("%w: %v", model.ErrUnsupportedURL, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var provider model.Provider
	switch host {
	case "open.spotify.com", "play.spotify.com":
		provider = model.ProviderSpotify
	case "deezer.com":
		provider = model.ProviderDeezer
	default:
		return model.PlaylistRef{}, fmt.Errorf("%w: %s", model.ErrUnsupportedURL, raw)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "playlist" {
			return newRef(segments[i+1], provider, raw)
		}
	}
	return model.PlaylistRef{}, fmt.Errorf("%w: no playlist id in %s", model.ErrUnsupportedURL, raw)
}

func newRef(id string, provider model.Provider, raw string) (model.PlaylistRef, error) {
	ref := model.PlaylistRef{ID: id, Provider: provider}
	if err := ref.Validate(); err != nil {
		return model.PlaylistRef{}, fmt.Errorf("%w: %s: %v", model.ErrUnsupportedURL, raw, err)
	}
	return ref, nil
}
