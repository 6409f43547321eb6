package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"playlistscanner/internal/domain/playlist"
	"playlistscanner/internal/domain/scan"
	"playlistscanner/internal/infrastructure/worker"
	"playlistscanner/internal/model"
	"playlistscanner/internal/report"
)

// PlaylistService управляет реестром и показывает актуальные данные плейлистов
type PlaylistService struct {
	registry playlist.RegistryInterface
	sources  map[model.Provider]scan.Source
	workers  int
	logger   *zap.Logger
}

var _ PlaylistServiceInterface = (*PlaylistService)(nil)

// NewPlaylistService создает сервис плейлистов
func NewPlaylistService(registry playlist.RegistryInterface, sources []scan.Source, workers int, logger *zap.Logger) *PlaylistService {
	bySource := make(map[model.Provider]scan.Source, len(sources))
	for _, s := range sources {
		bySource[s.Provider()] = s
	}
	return &PlaylistService{registry: registry, sources: bySource, workers: workers, logger: logger}
}

// List возвращает отслеживаемые плейлисты
func (s *PlaylistService) List() ([]model.PlaylistRef, error) {
	return s.registry.Refs()
}

// Add регистрирует плейлист по ссылке
func (s *PlaylistService) Add(ctx context.Context, rawURL, name string) (model.PlaylistRef, error) {
	ref, err := s.registry.Add(ctx, rawURL, name)
	if err != nil {
		return model.PlaylistRef{}, err
	}
	s.logger.Info("Playlist registered",
		zap.String("provider", ref.Provider.String()),
		zap.String("playlist_id", ref.ID),
		zap.String("name", ref.Name))
	return ref, nil
}

// Remove убирает плейлист из реестра
func (s *PlaylistService) Remove(provider model.Provider, id string) error {
	return s.registry.Remove(provider, id)
}

// Overview загружает метаданные всех плейлистов. Недоступные плейлисты показываются с ошибкой.
func (s *PlaylistService) Overview(ctx context.Context) report.PlaylistsView {
	refs, err := s.registry.Refs()
	if err != nil {
		return report.PlaylistsView{Message: fmt.Sprintf("Failed to load playlists: %v", err)}
	}

	cards := make([]report.PlaylistCard, len(refs))
	pool := worker.NewWorkerPool(s.workers, 0, s.logger)
	pool.Start()
	for i, ref := range refs {
		i, ref := i, ref
		job := worker.Job{
			ID:   ref.ID,
			Name: "playlist_overview",
			Handler: func(_ context.Context) error {
				cards[i] = s.card(ctx, ref)
				return nil
			},
		}
		if err := pool.SubmitWait(ctx, job); err != nil {
			cards[i] = fallbackCard(ref, err)
		}
	}
	pool.Stop()

	var view report.PlaylistsView
	for _, p := range []model.Provider{model.ProviderSpotify, model.ProviderDeezer} {
		section := report.PlaylistSection{Provider: p.DisplayName()}
		for i, ref := range refs {
			if ref.Provider == p {
				section.Playlists = append(section.Playlists, cards[i])
			}
		}
		if len(section.Playlists) > 0 {
			view.Sections = append(view.Sections, section)
		}
	}
	return view
}

func (s *PlaylistService) card(ctx context.Context, ref model.PlaylistRef) report.PlaylistCard {
	src, ok := s.sources[ref.Provider]
	if !ok {
		return fallbackCard(ref, fmt.Errorf("no client for provider %q", ref.Provider))
	}

	info, err := src.FetchPlaylist(ctx, ref.ID)
	if err != nil {
		s.logger.Warn("Failed to load playlist metadata", zap.String("playlist_id", ref.ID), zap.Error(err))
		return fallbackCard(ref, err)
	}

	name := info.Name
	if name == "" {
		name = ref.Name
	}
	owner := info.Owner
	if owner == "" {
		owner = model.NotAvailable
	}
	return report.PlaylistCard{
		ID:        ref.ID,
		Name:      name,
		Owner:     owner,
		Followers: info.FollowersText(),
		CoverURL:  info.CoverURL,
		URL:       ref.URL(),
	}
}

func fallbackCard(ref model.PlaylistRef, err error) report.PlaylistCard {
	name := ref.Name
	if name == "" {
		name = ref.ID
	}
	return report.PlaylistCard{
		ID:        ref.ID,
		Name:      name,
		Owner:     model.NotAvailable,
		Followers: model.NotAvailable,
		URL:       ref.URL(),
		Error:     err.Error(),
	}
}
