package apihttp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/semaphore"
	"movieshub/catalogservice/internal/catalog"
	"movieshub/catalogservice/internal/domain"
)

// CatalogService is the read surface the HTTP layer needs from the catalog store.
type CatalogService interface {
	State() domain.CatalogState
	Movies() []domain.Movie
	Query(ctx context.Context, filters domain.MovieFilters) []domain.Movie
	Get(id string) (domain.Movie, bool)
}

const (
	maxQueryLength               = 500
	defaultRateLimitRPS          = 50
	defaultRateLimitBurst        = 100
	defaultImageProxyConcurrency = 8
)

type Server struct {
	catalog     CatalogService
	logger      *slog.Logger
	hub         *wsHub
	imageSem    *semaphore.Weighted
	imageClient func(ctx context.Context) *http.Client
	rateRPS     float64
	rateBurst   int
	imageSlots  int64
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 {
			s.rateRPS = rps
		}
		if burst > 0 {
			s.rateBurst = burst
		}
	}
}

func WithImageProxyConcurrency(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.imageSlots = int64(n)
		}
	}
}

func NewServer(catalogService CatalogService, options ...ServerOption) *Server {
	server := &Server{
		catalog:     catalogService,
		logger:      slog.Default(),
		imageClient: newImageProxyClient,
		rateRPS:     defaultRateLimitRPS,
		rateBurst:   defaultRateLimitBurst,
		imageSlots:  defaultImageProxyConcurrency,
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	server.imageSem = semaphore.NewWeighted(server.imageSlots)
	server.hub = newWSHub(server.logger)
	go server.hub.run()
	return server
}

func (s *Server) Handler() http.Handler {
	traced := otelhttp.NewHandler(accessLogMiddleware(s.logger, s.newMux()), "movie-catalog",
		otelhttp.WithFilter(shouldTrace),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateRPS, s.rateBurst, metricsMiddleware(corsMiddleware(traced))))
}

// BroadcastState pushes a catalog state transition to WebSocket clients.
// It matches the catalog.Store subscriber signature.
func (s *Server) BroadcastState(state domain.CatalogState) {
	s.hub.BroadcastState(state)
}

// Close disconnects all WebSocket clients.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleCatalogState(w http.ResponseWriter, r *http.Request) {
	if !s.allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.State())
}

func (s *Server) handleCatalogFacets(w http.ResponseWriter, r *http.Request) {
	if !s.allowGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, catalog.BuildFacets(s.catalog.Movies()))
}

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/movies" {
		http.NotFound(w, r)
		return
	}
	if !s.allowGet(w, r) {
		return
	}

	filters := parseMovieFilters(r)
	if utf8.RuneCountInString(filters.Search) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("search too long (max %d characters)", maxQueryLength))
		return
	}

	state := s.catalog.State()
	items := s.catalog.Query(r.Context(), filters)
	if items == nil {
		items = []domain.Movie{}
	}

	writeJSON(w, http.StatusOK, domain.MovieListResponse{
		Heading: filters.Heading(),
		Items:   items,
		Total:   len(items),
		Loading: state.Loading,
		Error:   state.Error,
	})
}

func (s *Server) handleMovieByID(w http.ResponseWriter, r *http.Request) {
	if !s.allowGet(w, r) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/movies/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	movie, ok := s.catalog.Get(id)
	if ok {
		writeJSON(w, http.StatusOK, movie)
		return
	}
	if s.catalog.State().Loading {
		writeError(w, http.StatusServiceUnavailable, "catalog_loading", "catalog is still loading")
		return
	}
	writeError(w, http.StatusNotFound, "not_found", "movie not found")
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, wsSendBuffer),
		greeting: s.stateMessage,
	}
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// stateMessage encodes the current catalog state. The hub calls it once a client is
// registered, so no transition can fall between the snapshot and the first broadcast.
func (s *Server) stateMessage() []byte {
	payload, err := encodeWSMessage(wsMessageState, s.catalog.State())
	if err != nil {
		s.logger.Error("ws state encode failed", slog.String("error", err.Error()))
		return nil
	}
	return payload
}

func (s *Server) allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return false
	}
	return true
}

// parseMovieFilters reads the six filter fields verbatim. Values are not trimmed so that
// matching follows exactly what the user typed.
func parseMovieFilters(r *http.Request) domain.MovieFilters {
	query := r.URL.Query()
	return domain.MovieFilters{
		Search:   query.Get("search"),
		Genre:    query.Get("genre"),
		Year:     query.Get("year"),
		Language: query.Get("language"),
		Quality:  query.Get("quality"),
		Rating:   query.Get("rating"),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
