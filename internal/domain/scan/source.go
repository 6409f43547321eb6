// Package scan содержит поиск треков по плейлистам и агрегацию результатов.
package scan

import (
	"context"

	"playlistscanner/internal/model"
)

// Source клиент каталога одного провайдера
type Source interface {
	// Provider возвращает провайдера, которого обслуживает клиент
	Provider() model.Provider

	// FetchPlaylist получает метаданные плейлиста
	FetchPlaylist(ctx context.Context, id string) (*model.PlaylistInfo, error)

	// FetchTracks получает треки плейлиста в порядке провайдера
	FetchTracks(ctx context.Context, id string) ([]model.Track, error)

	// Enrich дополняет совпавший трек. Ошибка не отменяет совпадение.
	Enrich(ctx context.Context, track *model.Track) error
}
