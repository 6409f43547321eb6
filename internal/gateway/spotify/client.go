// Package spotify реализует клиент для работы с Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"playlistscanner/internal/infrastructure/cache"
	"playlistscanner/internal/model"
)

const (
	DefaultAPIBaseURL     = "https://api.spotify.com/v1/"
	DefaultPartnerURL     = "https://api-partner.spotify.com/pathfinder/v1/query"
	DefaultTokenURL       = "https://accounts.spotify.com/api/token"
	PlaylistTrackLimit    = 100
	defaultRequestTimeout = 15 * time.Second
)

// Options параметры клиента
type Options struct {
	APIBaseURL     string
	PartnerURL     string
	RequestTimeout time.Duration
	Cache          cache.Cache
	CacheTTL       time.Duration
	CacheStats     cache.StatsRecorder
}

// Client представляет клиент для работы с Spotify API
type Client struct {
	api        *spotify.Client
	httpClient *http.Client
	partnerURL string
	timeout    time.Duration
	enrichment *cache.Typed[Enrichment]
	logger     *zap.Logger
}

// NewClient создает клиент. httpClient задает транспорт (пул соединений, лимиты),
// токен подставляется из tokens в каждый запрос.
func NewClient(httpClient *http.Client, tokens TokenProvider, opts Options, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DefaultAPIBaseURL
	}
	if opts.PartnerURL == "" {
		opts.PartnerURL = DefaultPartnerURL
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	authorized := &http.Client{
		Transport: &tokenTransport{base: httpClient.Transport, tokens: tokens},
		Timeout:   httpClient.Timeout,
	}

	var enrichment *cache.Typed[Enrichment]
	if opts.Cache != nil {
		enrichment = cache.NewTyped[Enrichment](opts.Cache, opts.CacheTTL, logger).WithStats(opts.CacheStats)
	}

	return &Client{
		api:        spotify.New(authorized, spotify.WithBaseURL(opts.APIBaseURL)),
		httpClient: authorized,
		partnerURL: opts.PartnerURL,
		timeout:    opts.RequestTimeout,
		enrichment: enrichment,
		logger:     logger,
	}
}

// Provider возвращает провайдера клиента
func (c *Client) Provider() model.Provider {
	return model.ProviderSpotify
}

// FetchPlaylist получает метаданные плейлиста
func (c *Client) FetchPlaylist(ctx context.Context, id string) (*model.PlaylistInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	playlist, err := c.api.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist %s: %w", id, mapError(err))
	}

	info, err := parsePlaylist(id, playlist)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// FetchTracks получает первую страницу треков плейлиста (до 100 позиций).
// Позиции, не являющиеся треками, сохраняются пустыми записями, чтобы не сдвигать нумерацию.
func (c *Client) FetchTracks(ctx context.Context, id string) ([]model.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(id), spotify.Limit(PlaylistTrackLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks %s: %w", id, mapError(err))
	}

	tracks := make([]model.Track, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, adaptItem(item))
	}

	c.logger.Debug("Retrieved playlist items",
		zap.String("playlist_id", id),
		zap.Int("items", len(page.Items)),
		zap.Int("total_items", int(page.Total)))

	return tracks, nil
}

// Enrich дополняет совпавший трек датой релиза, обложкой, популярностью и числом прослушиваний.
// При ошибке трек сохраняет уже известные поля.
func (c *Client) Enrich(ctx context.Context, track *model.Track) error {
	if track.ID == "" {
		return nil
	}

	key := "spotify:track:" + track.ID
	if e, ok := c.enrichment.Get(ctx, key); ok {
		e.apply(track)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	full, err := c.api.GetTrack(ctx, spotify.ID(track.ID))
	if err != nil {
		return fmt.Errorf("failed to get track %s: %w", track.ID, mapError(err))
	}
	e := enrichmentFromTrack(full)

	playcount, err := c.fetchPlaycount(ctx, track.ID)
	if err != nil {
		e.apply(track)
		return fmt.Errorf("failed to get playcount %s: %w", track.ID, err)
	}
	e.Streams = playcount

	e.apply(track)
	c.enrichment.Set(ctx, key, e)
	return nil
}

// SearchCover ищет обложку трека по названию и исполнителю
func (c *Client) SearchCover(ctx context.Context, title, artist string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.api.Search(ctx, title+" "+artist, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return "", fmt.Errorf("failed to search cover: %w", mapError(err))
	}
	if res.Tracks == nil || len(res.Tracks.Tracks) == 0 {
		return "", nil
	}
	return firstImage(res.Tracks.Tracks[0].Album.Images), nil
}

// mapError приводит ошибки Spotify к ошибкам предметной области
func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, model.ErrTokenUnavailable) {
		return err
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", model.ErrPlaylistNotFound, apiErr.Message)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", model.ErrTokenUnavailable, apiErr.Message)
		default:
			return fmt.Errorf("%w: %d %s", model.ErrProviderStatus, apiErr.Status, apiErr.Message)
		}
	}
	return err
}
