package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"playlistscanner/internal/infrastructure/worker"
	"playlistscanner/internal/model"
)

// DefaultWorkers число параллельно обрабатываемых плейлистов
const DefaultWorkers = 10

const unknownPlaylistName = "Unknown Playlist"

// ProgressFunc вызывается после обработки каждого плейлиста. Вызывается из воркеров.
type ProgressFunc func(done, total int)

type scanOptions struct {
	id          string
	progress    ProgressFunc
	unavailable map[model.Provider]unavailableProvider
}

type unavailableProvider struct {
	reason model.FailureReason
	err    error
}

// Option параметр одного сканирования
type Option func(*scanOptions)

// WithID задает идентификатор сканирования
func WithID(id string) Option {
	return func(o *scanOptions) { o.id = id }
}

// WithProgress подписывает на прогресс сканирования
func WithProgress(fn ProgressFunc) Option {
	return func(o *scanOptions) { o.progress = fn }
}

// WithUnavailableProvider помечает все плейлисты провайдера как пропущенные
func WithUnavailableProvider(p model.Provider, reason model.FailureReason, err error) Option {
	return func(o *scanOptions) {
		o.unavailable[p] = unavailableProvider{reason: reason, err: err}
	}
}

// Aggregator параллельно сканирует плейлисты и сводит совпадения по TrackKey
type Aggregator struct {
	sources map[model.Provider]Source
	workers int
	logger  *zap.Logger
}

// NewAggregator создает агрегатор
func NewAggregator(sources []Source, workers int, logger *zap.Logger) *Aggregator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	bySource := make(map[model.Provider]Source, len(sources))
	for _, s := range sources {
		bySource[s.Provider()] = s
	}
	return &Aggregator{sources: bySource, workers: workers, logger: logger}
}

// playlistResult итог обработки одного плейлиста. Пишется одним воркером в свой слот.
type playlistResult struct {
	info    *model.PlaylistInfo
	matches []Match
	failed  bool
	reason  model.FailureReason
	err     error
}

// Scan ищет query во всех refs. Ошибки отдельных плейлистов попадают в Failures
// и не прерывают сканирование.
func (a *Aggregator) Scan(ctx context.Context, refs []model.PlaylistRef, query string, opts ...Option) *model.ScanResult {
	o := scanOptions{unavailable: make(map[model.Provider]unavailableProvider)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	result := model.NewScanResult(o.id, query)
	result.PlaylistsTotal = len(refs)

	log := a.logger.With(zap.String("scan_id", result.ID), zap.String("query", query))
	log.Info("Scan started", zap.Int("playlists", len(refs)))

	slots := a.fanOut(ctx, refs, query, o, log)

	// свертка выполняется после барьера в одном потоке, в порядке refs
	for i, ref := range refs {
		slot := slots[i]
		if slot.failed {
			result.AddFailure(ref, slot.reason, slot.err)
			continue
		}
		for _, m := range slot.matches {
			result.Add(m.Track, model.NewPlaylistMatch(slot.info, m.Position))
		}
		log.Debug("Playlist folded",
			zap.String("playlist_id", ref.ID),
			zap.Int("matches", len(slot.matches)))
	}

	result.FinishedAt = time.Now()
	summary := result.Summary()
	log.Info("Scan finished",
		zap.Int("distinct_songs", summary.DistinctSongs),
		zap.Int("distinct_playlists", summary.DistinctLists),
		zap.Int("total_listings", summary.TotalListings),
		zap.Int("failed_playlists", summary.PlaylistsFailed),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))

	return result
}

// fanOut раздает плейлисты пулу и ждет завершения всех задач
func (a *Aggregator) fanOut(ctx context.Context, refs []model.PlaylistRef, query string, o scanOptions, log *zap.Logger) []playlistResult {
	slots := make([]playlistResult, len(refs))
	if len(refs) == 0 {
		return slots
	}

	workers := a.workers
	if workers > len(refs) {
		workers = len(refs)
	}
	pool := worker.NewWorkerPool(workers, 0, log)
	pool.Start()

	var done int32
	total := len(refs)
	report := func() {
		n := atomic.AddInt32(&done, 1)
		if o.progress != nil {
			o.progress(int(n), total)
		}
	}

	for i, ref := range refs {
		if u, ok := o.unavailable[ref.Provider]; ok {
			slots[i] = failure(u.reason, u.err)
			report()
			continue
		}

		i, ref := i, ref
		job := worker.Job{
			ID:   ref.ID,
			Name: "scan_playlist",
			Handler: func(_ context.Context) error {
				defer report()
				slots[i] = a.scanPlaylist(ctx, ref, query, log)
				return slots[i].err
			},
		}
		if err := pool.SubmitWait(ctx, job); err != nil {
			slots[i] = failure(classify(err), err)
			report()
		}
	}

	pool.Stop()
	return slots
}

// scanPlaylist загружает плейлист, ищет совпадения и обогащает их
func (a *Aggregator) scanPlaylist(ctx context.Context, ref model.PlaylistRef, query string, log *zap.Logger) playlistResult {
	log = log.With(zap.String("provider", ref.Provider.String()), zap.String("playlist_id", ref.ID))

	src, ok := a.sources[ref.Provider]
	if !ok {
		err := fmt.Errorf("no client for provider %q", ref.Provider)
		log.Warn("Playlist skipped", zap.Error(err))
		return failure(model.FailureFetch, err)
	}

	info, err := src.FetchPlaylist(ctx, ref.ID)
	if err != nil {
		log.Warn("Failed to fetch playlist", zap.Error(err))
		return failure(classify(err), err)
	}

	tracks, err := src.FetchTracks(ctx, ref.ID)
	if err != nil {
		log.Warn("Failed to fetch playlist tracks", zap.Error(err))
		return failure(classify(err), err)
	}

	if info.Name == "" {
		info.Name = ref.Name
	}
	if info.Name == "" {
		info.Name = unknownPlaylistName
	}

	matches := MatchTracks(tracks, query)
	for i := range matches {
		if err := src.Enrich(ctx, &matches[i].Track); err != nil {
			log.Warn("Track enrichment failed",
				zap.String("track_id", matches[i].Track.ID),
				zap.String("track", matches[i].Track.Name),
				zap.Error(err))
		}
	}

	log.Debug("Playlist scanned", zap.Int("tracks", len(tracks)), zap.Int("matches", len(matches)))
	return playlistResult{info: info, matches: matches}
}

func failure(reason model.FailureReason, err error) playlistResult {
	return playlistResult{failed: true, reason: reason, err: err}
}

// classify определяет причину пропуска плейлиста по ошибке
func classify(err error) model.FailureReason {
	if errors.Is(err, model.ErrTokenUnavailable) {
		return model.FailureTokenUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.FailureTimeout
	}
	return model.FailureFetch
}
