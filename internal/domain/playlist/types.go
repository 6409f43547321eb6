// Package playlist содержит реестр отслеживаемых плейлистов.
package playlist

import (
	"context"

	"playlistscanner/internal/gateway/scraper"
	"playlistscanner/internal/model"
)

// File формат playlists.json: провайдер -> (ID -> отображаемое имя)
type File struct {
	Spotify map[string]string `json:"spotify"`
	Deezer  map[string]string `json:"deezer"`
}

// NewFile создает пустой реестр
func NewFile() *File {
	return &File{
		Spotify: make(map[string]string),
		Deezer:  make(map[string]string),
	}
}

func (f *File) section(p model.Provider) map[string]string {
	switch p {
	case model.ProviderSpotify:
		if f.Spotify == nil {
			f.Spotify = make(map[string]string)
		}
		return f.Spotify
	case model.ProviderDeezer:
		if f.Deezer == nil {
			f.Deezer = make(map[string]string)
		}
		return f.Deezer
	default:
		return nil
	}
}

// PageResolver раскрывает короткие ссылки и читает название страницы
type PageResolver interface {
	Resolve(ctx context.Context, rawURL string) (scraper.PageMeta, error)
}

// RegistryInterface определяет интерфейс реестра плейлистов
type RegistryInterface interface {
	// Refs возвращает плейлисты для сканирования
	Refs() ([]model.PlaylistRef, error)

	// Add регистрирует плейлист по ссылке из каталога
	Add(ctx context.Context, rawURL, name string) (model.PlaylistRef, error)

	// Remove удаляет плейлист из реестра
	Remove(provider model.Provider, id string) error
}
