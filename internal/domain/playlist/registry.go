package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"playlistscanner/internal/model"
)

// Registry хранит плейлисты в JSON файле. Файл перечитывается при каждом обращении,
// чтобы ручные правки подхватывались без перезапуска.
type Registry struct {
	path     string
	resolver PageResolver
	mu       sync.Mutex
	logger   *zap.Logger
}

var _ RegistryInterface = (*Registry)(nil)

// NewRegistry создает реестр. resolver может быть nil: тогда короткие ссылки и
// автоматическое имя недоступны.
func NewRegistry(path string, resolver PageResolver, logger *zap.Logger) *Registry {
	return &Registry{path: path, resolver: resolver, logger: logger}
}

// Load читает файл реестра. Отсутствующий файл дает пустой реестр.
func (r *Registry) Load() (*File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

func (r *Registry) loadLocked() (*File, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.Info("Playlists file not found, starting empty", zap.String("path", r.path))
		return NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read playlists file: %w", err)
	}

	file := NewFile()
	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse playlists file %s: %w", r.path, err)
	}
	return file, nil
}

// Refs возвращает плейлисты: сначала Spotify, затем Deezer, внутри по имени
func (r *Registry) Refs() ([]model.PlaylistRef, error) {
	file, err := r.Load()
	if err != nil {
		return nil, err
	}

	refs := make([]model.PlaylistRef, 0, len(file.Spotify)+len(file.Deezer))
	refs = append(refs, sortedRefs(file.Spotify, model.ProviderSpotify)...)
	refs = append(refs, sortedRefs(file.Deezer, model.ProviderDeezer)...)
	return refs, nil
}

func sortedRefs(section map[string]string, provider model.Provider) []model.PlaylistRef {
	refs := make([]model.PlaylistRef, 0, len(section))
	for id, name := range section {
		refs = append(refs, model.PlaylistRef{ID: id, Provider: provider, Name: name})
	}
	sort.Slice(refs, func(i, j int) bool {
		ni, nj := strings.ToLower(refs[i].Name), strings.ToLower(refs[j].Name)
		if ni != nj {
			return ni < nj
		}
		return refs[i].ID < refs[j].ID
	})
	return refs
}

// Add регистрирует плейлист по ссылке. Пустое name заменяется заголовком страницы,
// а при его отсутствии идентификатором.
func (r *Registry) Add(ctx context.Context, rawURL, name string) (model.PlaylistRef, error) {
	rawURL = strings.TrimSpace(rawURL)
	name = strings.TrimSpace(name)

	var pageTitle string
	if IsShortLink(rawURL) {
		if r.resolver == nil {
			return model.PlaylistRef{}, fmt.Errorf("%w: short links need a resolver", model.ErrUnsupportedURL)
		}
		meta, err := r.resolver.Resolve(ctx, rawURL)
		if err != nil {
			return model.PlaylistRef{}, err
		}
		r.logger.Debug("Resolved short link", zap.String("url", rawURL), zap.String("resolved", meta.URL))
		rawURL, pageTitle = meta.URL, meta.Title
	}

	ref, err := ParsePlaylistURL(rawURL)
	if err != nil {
		return model.PlaylistRef{}, err
	}

	if name == "" {
		name = pageTitle
	}
	if name == "" && r.resolver != nil {
		if meta, err := r.resolver.Resolve(ctx, ref.URL()); err != nil {
			r.logger.Warn("Failed to fetch playlist title", zap.String("url", ref.URL()), zap.Error(err))
		} else {
			name = meta.Title
		}
	}
	if name == "" {
		name = ref.ID
	}
	ref.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.loadLocked()
	if err != nil {
		return model.PlaylistRef{}, err
	}

	section := file.section(ref.Provider)
	if existing, ok := section[ref.ID]; ok {
		return model.PlaylistRef{}, fmt.Errorf("%w: %s (%s)", model.ErrPlaylistRegistered, ref.ID, existing)
	}
	section[ref.ID] = ref.Name

	if err := r.saveLocked(file); err != nil {
		return model.PlaylistRef{}, err
	}

	r.logger.Info("Playlist registered",
		zap.String("provider", ref.Provider.String()),
		zap.String("playlist_id", ref.ID),
		zap.String("name", ref.Name))
	return ref, nil
}

// Remove удаляет плейлист из реестра
func (r *Registry) Remove(provider model.Provider, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.loadLocked()
	if err != nil {
		return err
	}

	section := file.section(provider)
	if _, ok := section[id]; !ok {
		return fmt.Errorf("%w: %s %s", model.ErrPlaylistNotFound, provider, id)
	}
	delete(section, id)

	if err := r.saveLocked(file); err != nil {
		return err
	}
	r.logger.Info("Playlist removed", zap.String("provider", provider.String()), zap.String("playlist_id", id))
	return nil
}

// saveLocked записывает файл через временный файл и rename
func (r *Registry) saveLocked(file *File) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode playlists: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".playlists-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write playlists: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write playlists: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace playlists file: %w", err)
	}
	return nil
}
