package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"movieshub/catalogservice/internal/catalog"
	"movieshub/catalogservice/internal/domain"
)

type fakeCatalogService struct {
	state       domain.CatalogState
	movies      []domain.Movie
	lastFilters domain.MovieFilters
	queryCount  int
}

func (f *fakeCatalogService) State() domain.CatalogState {
	return f.state
}

func (f *fakeCatalogService) Movies() []domain.Movie {
	return f.movies
}

func (f *fakeCatalogService) Query(ctx context.Context, filters domain.MovieFilters) []domain.Movie {
	_ = ctx
	f.queryCount++
	f.lastFilters = filters
	return catalog.FilterMovies(f.movies, filters)
}

func (f *fakeCatalogService) Get(id string) (domain.Movie, bool) {
	for _, movie := range f.movies {
		if movie.ID == id {
			return movie, true
		}
	}
	return domain.Movie{}, false
}

func intPtr(v int) *int { return &v }

func loadedCatalog() *fakeCatalogService {
	return &fakeCatalogService{
		state: domain.CatalogState{Total: 3, Generation: 1},
		movies: []domain.Movie{
			{ID: "movie-0", Title: "Alien", Genre: "Horror", Year: intPtr(1979), Language: "English", Quality: []string{"1080p"}, Rating: 8.5},
			{ID: "movie-1", Title: "Airplane", Genre: "Comedy", Year: intPtr(1980), Language: "English", Quality: []string{"720p"}, Rating: 7.1},
			{ID: "movie-3", Title: "Dangal", Genre: "Action", Year: intPtr(2016), Language: "Hindi", Quality: []string{"480p", "720p"}, Rating: 9.0},
		},
	}
}

func serve(t *testing.T, server *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return payload.Error.Code
}

func TestHealthEndpoint(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMoviesReturnsAllWithLatestHeading(t *testing.T) {
	fake := loadedCatalog()
	server := NewServer(fake)
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/movies")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp domain.MovieListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Heading != "Latest Movies" {
		t.Fatalf("heading = %q", resp.Heading)
	}
	if resp.Total != 3 || len(resp.Items) != 3 || resp.Items[2].ID != "movie-3" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if resp.Loading || resp.Error != "" {
		t.Fatalf("unexpected flags: %+v", resp)
	}
}

func TestMoviesPassesFiltersVerbatim(t *testing.T) {
	fake := loadedCatalog()
	server := NewServer(fake)
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/movies?search=%20al&genre=Horror&year=1979&language=eng&quality=1080&rating=8")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := domain.MovieFilters{Search: " al", Genre: "Horror", Year: "1979", Language: "eng", Quality: "1080", Rating: "8"}
	if fake.lastFilters != want {
		t.Fatalf("filters = %+v, want %+v", fake.lastFilters, want)
	}
	var resp domain.MovieListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Heading != `Search results for " al"` {
		t.Fatalf("heading = %q", resp.Heading)
	}
	if len(resp.Items) != 0 {
		t.Fatalf("untrimmed search should not match, got %+v", resp.Items)
	}
}

func TestMoviesGenreHeadingAndFilter(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/movies?genre=Comedy")
	var resp domain.MovieListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Heading != "Comedy Movies" {
		t.Fatalf("heading = %q", resp.Heading)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Airplane" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
}

func TestMoviesEmptyResultIsArray(t *testing.T) {
	server := NewServer(&fakeCatalogService{state: domain.CatalogState{Loading: true}})
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/movies")
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["items"]) != "[]" {
		t.Fatalf("items = %s, want []", raw["items"])
	}
	if string(raw["loading"]) != "true" {
		t.Fatalf("loading = %s", raw["loading"])
	}
}

func TestMoviesSurfacesCatalogError(t *testing.T) {
	fake := loadedCatalog()
	fake.state.Error = "failed to fetch movie data: unexpected feed status: HTTP 500"
	server := NewServer(fake)
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/movies")
	var resp domain.MovieListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" || len(resp.Items) != 3 {
		t.Fatalf("expected stale items with error, got %+v", resp)
	}
}

func TestMoviesRejectsLongSearch(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	long := make([]byte, maxQueryLength+1)
	for i := range long {
		long[i] = 'a'
	}
	rec := serve(t, server, http.MethodGet, "/movies?search="+string(long))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "invalid_request" {
		t.Fatalf("code = %q", code)
	}
}

func TestMoviesSearchLimitCountsCharacters(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	atLimit := url.QueryEscape(strings.Repeat("é", maxQueryLength))
	if rec := serve(t, server, http.MethodGet, "/movies?search="+atLimit); rec.Code != http.StatusOK {
		t.Fatalf("%d two-byte characters: status = %d", maxQueryLength, rec.Code)
	}
	over := url.QueryEscape(strings.Repeat("é", maxQueryLength+1))
	if rec := serve(t, server, http.MethodGet, "/movies?search="+over); rec.Code != http.StatusBadRequest {
		t.Fatalf("%d characters: status = %d", maxQueryLength+1, rec.Code)
	}
}

func TestMoviesRejectsPost(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	rec := serve(t, server, http.MethodPost, "/movies")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMovieByID(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/movies/movie-3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var movie domain.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &movie); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if movie.Title != "Dangal" || movie.Year == nil || *movie.Year != 2016 {
		t.Fatalf("unexpected movie: %+v", movie)
	}
}

func TestMovieByIDNotFound(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/movies/movie-2")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "not_found" {
		t.Fatalf("code = %q", code)
	}
}

func TestMovieByIDWhileLoading(t *testing.T) {
	server := NewServer(&fakeCatalogService{state: domain.CatalogState{Loading: true}})
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/movies/movie-0")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "catalog_loading" {
		t.Fatalf("code = %q", code)
	}
}

func TestCatalogStateEndpoint(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/catalog/state")
	var state domain.CatalogState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Total != 3 || state.Generation != 1 || state.Loading {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestCatalogFacetsEndpoint(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	rec := serve(t, server, http.MethodGet, "/catalog/facets")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var facets domain.CatalogFacets
	if err := json.Unmarshal(rec.Body.Bytes(), &facets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(facets.Genres) != len(domain.Genres) {
		t.Fatalf("genres = %+v", facets.Genres)
	}
	if len(facets.Years) != 3 || facets.Years[0].Value != "2016" {
		t.Fatalf("years = %+v", facets.Years)
	}
	if len(facets.Ratings) != 3 || facets.Ratings[0].Count != 2 {
		t.Fatalf("ratings = %+v", facets.Ratings)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := NewServer(loadedCatalog())
	defer server.Close()

	req := httptest.NewRequest(http.MethodOptions, "/movies", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}
}
