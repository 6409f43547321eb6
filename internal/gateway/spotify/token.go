package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"playlistscanner/internal/model"
)

// TokenProvider выдает bearer токен для Spotify Web API
type TokenProvider interface {
	// Token возвращает действующий токен
	Token(ctx context.Context) (string, error)
	// Refresh отбрасывает stale, если он все еще текущий, и возвращает действующий токен
	Refresh(ctx context.Context, stale string) (string, error)
}

// TokenConfig источники токена в порядке приоритета
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	// StaticToken токен, полученный вне приложения (например, из веб-плеера)
	StaticToken string
	// CacheFile файл с последним рабочим токеном
	CacheFile string
	// ProbePlaylist плейлист для проверки валидности токена
	ProbePlaylist string
	APIBaseURL    string
	TokenURL      string
}

// TokenSource реализует TokenProvider поверх client credentials, статичного токена и файлового кэша
type TokenSource struct {
	cfg        TokenConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.Mutex
	current string
	// rejected токены, не прошедшие проверку или сброшенные через Refresh
	rejected map[string]struct{}
}

var _ TokenProvider = (*TokenSource)(nil)

// NewTokenSource создает источник токена
func NewTokenSource(cfg TokenConfig, httpClient *http.Client, logger *zap.Logger) *TokenSource {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenSource{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
		rejected:   make(map[string]struct{}),
	}
}

// Token возвращает закэшированный токен или получает новый
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" {
		return s.current, nil
	}
	return s.resolveLocked(ctx)
}

// Refresh сбрасывает stale и получает новый токен. Если stale уже заменен
// другим вызовом, возвращает текущий токен.
func (s *TokenSource) Refresh(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" && s.current != stale {
		return s.current, nil
	}
	if stale != "" {
		s.rejected[stale] = struct{}{}
	}
	s.current = ""
	return s.resolveLocked(ctx)
}

// resolveLocked перебирает источники: статичный токен, файл, client credentials
func (s *TokenSource) resolveLocked(ctx context.Context) (string, error) {
	candidates := []struct {
		source string
		token  string
	}{
		{"static", strings.TrimSpace(s.cfg.StaticToken)},
		{"file", s.loadCached()},
	}

	var probeErr error
	for _, c := range candidates {
		if c.token == "" {
			continue
		}
		if _, bad := s.rejected[c.token]; bad {
			continue
		}
		result, err := s.Probe(ctx, c.token)
		switch result {
		case ProbeValid:
			s.logger.Debug("Using spotify token", zap.String("source", c.source))
			s.accept(c.token)
			return c.token, nil
		case ProbeInvalid:
			s.logger.Info("Spotify token rejected by probe", zap.String("source", c.source))
			s.rejected[c.token] = struct{}{}
		default:
			// токен не отклонен, следующий вызов проверит его снова
			s.logger.Warn("Spotify token probe inconclusive", zap.String("source", c.source), zap.Error(err))
			probeErr = err
		}
	}

	if s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		if probeErr != nil {
			return "", fmt.Errorf("%w: %v", model.ErrTokenUnavailable, probeErr)
		}
		return "", model.ErrTokenUnavailable
	}

	token, err := s.clientCredentials(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrTokenUnavailable, err)
	}
	s.logger.Info("Obtained spotify token via client credentials")
	s.accept(token)
	return token, nil
}

func (s *TokenSource) accept(token string) {
	s.current = token
	if err := s.saveCached(token); err != nil {
		s.logger.Warn("Failed to persist spotify token", zap.String("file", s.cfg.CacheFile), zap.Error(err))
	}
}

func (s *TokenSource) clientCredentials(ctx context.Context) (string, error) {
	cc := &clientcredentials.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		TokenURL:     s.cfg.TokenURL,
	}
	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, s.httpClient))
	if err != nil {
		return "", fmt.Errorf("client credentials: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("no access token received")
	}
	return tok.AccessToken, nil
}

// ProbeResult итог проверки токена
type ProbeResult int

const (
	// ProbeUnknown проверка не дала ответа (сеть, 429, 5xx)
	ProbeUnknown ProbeResult = iota
	ProbeValid
	// ProbeInvalid Spotify отклонил токен (401 или 403)
	ProbeInvalid
)

// Probe проверяет токен легким запросом плейлиста. Ошибка возвращается только для ProbeUnknown.
func (s *TokenSource) Probe(ctx context.Context, token string) (ProbeResult, error) {
	probeURL := strings.TrimSuffix(s.cfg.APIBaseURL, "/") + "/playlists/" + s.cfg.ProbePlaylist + "?fields=id"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return ProbeUnknown, fmt.Errorf("failed to build probe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ProbeUnknown, fmt.Errorf("probe request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		return ProbeValid, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return ProbeInvalid, nil
	default:
		return ProbeUnknown, fmt.Errorf("%w: probe status %d", model.ErrProviderStatus, resp.StatusCode)
	}
}

func (s *TokenSource) loadCached() string {
	if s.cfg.CacheFile == "" {
		return ""
	}
	data, err := os.ReadFile(s.cfg.CacheFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *TokenSource) saveCached(token string) error {
	if s.cfg.CacheFile == "" {
		return nil
	}
	if dir := filepath.Dir(s.cfg.CacheFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.cfg.CacheFile, []byte(token), 0o600)
}
