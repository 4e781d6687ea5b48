package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"movieshub/catalogservice/internal/domain"
	"movieshub/catalogservice/internal/metrics"
)

const tracerName = "movieshub/catalogservice/internal/catalog"

// Fetcher retrieves the raw feed text.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context) (string, error) {
	return f(ctx)
}

// Store owns the current record set together with the loading flag and last error.
// Refresh is the only writer; every other method is safe for concurrent readers.
type Store struct {
	fetcher Fetcher
	logger  *slog.Logger
	ratings RatingSource
	cache   QueryCache
	session string
	tracer  trace.Tracer

	refreshMu sync.Mutex

	mu          sync.RWMutex
	movies      []domain.Movie
	byID        map[string]int
	loading     bool
	lastErr     string
	generation  uint64
	refreshedAt time.Time

	subMu       sync.Mutex
	subscribers []func(domain.CatalogState)
}

type StoreOption func(*Store)

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRatingSource(ratings RatingSource) StoreOption {
	return func(s *Store) {
		if ratings != nil {
			s.ratings = ratings
		}
	}
}

func WithQueryCache(cache QueryCache) StoreOption {
	return func(s *Store) {
		s.cache = cache
	}
}

// NewStore returns a store in its initial state: no records, loading, no error.
func NewStore(fetcher Fetcher, opts ...StoreOption) *Store {
	s := &Store{
		fetcher: fetcher,
		logger:  slog.Default(),
		session: uuid.NewString(),
		tracer:  otel.Tracer(tracerName),
		movies:  []domain.Movie{},
		byID:    map[string]int{},
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ratings == nil {
		s.ratings = NewRandomRating(0)
	}
	metrics.CatalogLoading.Set(1)
	return s
}

// Subscribe registers fn to receive every state transition. fn runs on the refreshing
// goroutine after the store lock is released.
func (s *Store) Subscribe(fn func(domain.CatalogState)) {
	if fn == nil {
		return
	}
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.subMu.Unlock()
}

// Refresh performs one retrieval. On success the record set is replaced and the error cleared;
// on failure the error message is recorded and the previous records are kept. Loading is
// cleared in both cases.
func (s *Store) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "catalog.Refresh")
	defer span.End()

	s.setLoading()
	startedAt := time.Now()

	body, err := s.fetcher.Fetch(ctx)
	metrics.FeedFetchDuration.Observe(time.Since(startedAt).Seconds())
	if err != nil {
		metrics.FeedFetchTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("catalog refresh failed", slog.String("error", err.Error()))
		s.finishFailed(err)
		return err
	}

	result := ParseCSV(body, s.ratings)
	metrics.FeedFetchTotal.WithLabelValues("ok").Inc()
	metrics.RowsSkippedTotal.Add(float64(result.Skipped))
	span.SetAttributes(
		attribute.Int("catalog.records", len(result.Movies)),
		attribute.Int("catalog.rows_skipped", result.Skipped),
	)
	if result.Skipped > 0 {
		s.logger.Debug("catalog rows skipped", slog.Int("skipped", result.Skipped))
	}

	state := s.finishLoaded(result.Movies)
	s.logger.Info("catalog refreshed",
		slog.Int("records", state.Total),
		slog.Uint64("generation", state.Generation),
		slog.Duration("elapsed", time.Since(startedAt)),
	)
	return nil
}

func (s *Store) setLoading() {
	s.mu.Lock()
	s.loading = true
	state := s.stateLocked()
	s.mu.Unlock()

	metrics.CatalogLoading.Set(1)
	s.publish(state)
}

func (s *Store) finishFailed(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.loading = false
	state := s.stateLocked()
	s.mu.Unlock()

	metrics.CatalogLoading.Set(0)
	s.publish(state)
}

func (s *Store) finishLoaded(movies []domain.Movie) domain.CatalogState {
	byID := make(map[string]int, len(movies))
	for i, movie := range movies {
		byID[movie.ID] = i
	}

	s.mu.Lock()
	s.movies = movies
	s.byID = byID
	s.lastErr = ""
	s.loading = false
	s.generation++
	s.refreshedAt = time.Now().UTC()
	state := s.stateLocked()
	s.mu.Unlock()

	metrics.CatalogLoading.Set(0)
	metrics.CatalogRecords.Set(float64(len(movies)))
	s.publish(state)
	return state
}

func (s *Store) publish(state domain.CatalogState) {
	s.subMu.Lock()
	subscribers := append([]func(domain.CatalogState)(nil), s.subscribers...)
	s.subMu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
}

func (s *Store) stateLocked() domain.CatalogState {
	state := domain.CatalogState{
		Loading:    s.loading,
		Error:      s.lastErr,
		Total:      len(s.movies),
		Generation: s.generation,
	}
	if !s.refreshedAt.IsZero() {
		refreshedAt := s.refreshedAt
		state.RefreshedAt = &refreshedAt
	}
	return state
}

func (s *Store) State() domain.CatalogState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last refresh error message, or "" after a successful refresh.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Movies returns the current record set. The slice is shared and must not be modified.
func (s *Store) Movies() []domain.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.movies
}

func (s *Store) Filter(filters domain.MovieFilters) []domain.Movie {
	return FilterMovies(s.Movies(), filters)
}

func (s *Store) Get(id string) (domain.Movie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return domain.Movie{}, false
	}
	return s.movies[idx], true
}

// Query filters like Filter but consults the query cache first when one is configured.
// Cache failures fall back to filtering in memory.
func (s *Store) Query(ctx context.Context, filters domain.MovieFilters) []domain.Movie {
	s.mu.RLock()
	movies, byID, generation := s.movies, s.byID, s.generation
	s.mu.RUnlock()

	if s.cache == nil || generation == 0 || filters.IsEmpty() {
		return FilterMovies(movies, filters)
	}

	key := buildQueryCacheKey(s.session, generation, filters)
	ids, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Debug("query cache get failed", slog.String("error", err.Error()))
	}
	if err == nil && found {
		if out, ok := resolveIDs(movies, byID, ids); ok {
			metrics.QueryCacheHitsTotal.Inc()
			return out
		}
	}
	metrics.QueryCacheMissesTotal.Inc()

	out := FilterMovies(movies, filters)
	ids = make([]string, 0, len(out))
	for _, movie := range out {
		ids = append(ids, movie.ID)
	}
	if err := s.cache.Set(ctx, key, ids); err != nil {
		s.logger.Debug("query cache set failed", slog.String("error", err.Error()))
	}
	return out
}

func resolveIDs(movies []domain.Movie, byID map[string]int, ids []string) ([]domain.Movie, bool) {
	out := make([]domain.Movie, 0, len(ids))
	for _, id := range ids {
		idx, ok := byID[id]
		if !ok {
			return nil, false
		}
		out = append(out, movies[idx])
	}
	return out, true
}
