// Package deezer реализует клиент публичного Deezer API.
package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"playlistscanner/internal/model"
)

const (
	DefaultBaseURL        = "https://api.deezer.com"
	PlaylistTrackLimit    = 100
	defaultRequestTimeout = 15 * time.Second
)

// CoverFinder ищет обложку трека в другом каталоге
type CoverFinder interface {
	SearchCover(ctx context.Context, title, artist string) (string, error)
}

// Options параметры клиента
type Options struct {
	BaseURL        string
	RequestTimeout time.Duration
	// Covers источник обложек для треков без обложки (опционально)
	Covers CoverFinder
}

// Client клиент Deezer API. Авторизация не требуется.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	covers     CoverFinder
	logger     *zap.Logger
}

// NewClient создает клиент Deezer
func NewClient(httpClient *http.Client, opts Options, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		timeout:    opts.RequestTimeout,
		covers:     opts.Covers,
		logger:     logger,
	}
}

// Provider возвращает провайдера клиента
func (c *Client) Provider() model.Provider {
	return model.ProviderDeezer
}

// FetchPlaylist получает метаданные плейлиста
func (c *Client) FetchPlaylist(ctx context.Context, id string) (*model.PlaylistInfo, error) {
	var payload Playlist
	if err := c.get(ctx, "/playlist/"+url.PathEscape(id), nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to get playlist %s: %w", id, err)
	}
	if err := checkAPIError(payload.Error); err != nil {
		return nil, fmt.Errorf("failed to get playlist %s: %w", id, err)
	}
	return parsePlaylist(id, &payload), nil
}

// FetchTracks получает первую страницу треков плейлиста (до 100 позиций)
func (c *Client) FetchTracks(ctx context.Context, id string) ([]model.Track, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(PlaylistTrackLimit))

	var page TrackPage
	if err := c.get(ctx, "/playlist/"+url.PathEscape(id)+"/tracks", params, &page); err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks %s: %w", id, err)
	}
	if err := checkAPIError(page.Error); err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks %s: %w", id, err)
	}

	tracks := make([]model.Track, 0, len(page.Data))
	for i := range page.Data {
		tracks = append(tracks, adaptTrack(&page.Data[i]))
	}

	c.logger.Debug("Retrieved deezer playlist tracks",
		zap.String("playlist_id", id),
		zap.Int("items", len(page.Data)),
		zap.Int("total_items", page.Total))

	return tracks, nil
}

// Enrich подставляет обложку из другого каталога, если у Deezer ее нет
func (c *Client) Enrich(ctx context.Context, track *model.Track) error {
	if track.CoverURL != "" || c.covers == nil || len(track.Artists) == 0 {
		return nil
	}

	cover, err := c.covers.SearchCover(ctx, track.Name, track.Artists[0].Name)
	if err != nil {
		return fmt.Errorf("cover fallback for %q: %w", track.Name, err)
	}
	track.CoverURL = cover
	return nil
}

// get выполняет GET запрос и декодирует JSON ответ
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.ErrPlaylistNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", model.ErrProviderStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedPayload, err)
	}
	return nil
}

func checkAPIError(apiErr *APIError) error {
	if apiErr == nil {
		return nil
	}
	if apiErr.Code == DataNotFoundCode {
		return fmt.Errorf("%w: %s", model.ErrPlaylistNotFound, apiErr.Message)
	}
	return fmt.Errorf("%w: %s (%s, code %d)", model.ErrProviderStatus, apiErr.Message, apiErr.Type, apiErr.Code)
}
