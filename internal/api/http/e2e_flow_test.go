package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"movieshub/catalogservice/internal/catalog"
	"movieshub/catalogservice/internal/domain"
	"movieshub/catalogservice/internal/feed"
)

const e2eFeed = `Download Link,Poster,Release Date,Movie Name
https://dl.example/alien,https://img.example/alien.jpg,2024-05-01,Alien (1979) {English} 720p 1080p
broken row
https://dl.example/st,https://img.example/st.jpg,2024-05-02,"Stranger Things Season 4, Complete Dual Audio Netflix 1080p"
https://dl.example/jawan,https://img.example/jawan.jpg,2024-05-03,Jawan (2023) {Hindi} 480p
`

// TestE2ECatalogFlow drives the full path a browser takes: loading state, the single startup
// refresh, a filtered listing, and the details view.
func TestE2ECatalogFlow(t *testing.T) {
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte(e2eFeed))
	}))
	defer upstream.Close()
	defer unblock()

	store := catalog.NewStore(
		feed.NewClient(feed.Config{URL: upstream.URL}),
		catalog.WithRatingSource(catalog.FixedRating(7.8)),
	)
	server := NewServer(store)
	defer server.Close()
	store.Subscribe(server.BroadcastState)
	handler := server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movies/movie-0", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("details before load: status = %d", rec.Code)
	}

	done := make(chan error, 1)
	go func() { done <- store.Refresh(context.Background()) }()
	unblock()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("refresh did not finish")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog/state", nil))
	var state domain.CatalogState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Loading || state.Total != 3 || state.Generation != 1 {
		t.Fatalf("unexpected state: %+v", state)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movies?quality=1080p&rating=7", nil))
	var list domain.MovieListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 2 || list.Items[0].ID != "movie-0" || list.Items[1].ID != "movie-2" {
		t.Fatalf("unexpected items: %+v", list.Items)
	}
	if list.Items[1].Genre != "Netflix" {
		t.Fatalf("genre = %q", list.Items[1].Genre)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movies/movie-3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("details status = %d", rec.Code)
	}
	var movie domain.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &movie); err != nil {
		t.Fatalf("decode movie: %v", err)
	}
	if movie.Title != "Jawan" || movie.Language != "Hindi" || movie.DownloadURL != "https://dl.example/jawan" {
		t.Fatalf("unexpected movie: %+v", movie)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movies/movie-1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("skipped row must not resolve, status = %d", rec.Code)
	}
}

func TestE2EFeedFailureSurfacesError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	store := catalog.NewStore(feed.NewClient(feed.Config{URL: upstream.URL}))
	server := NewServer(store)
	defer server.Close()

	if err := store.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movies", nil))
	var list domain.MovieListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Loading || list.Error == "" || len(list.Items) != 0 {
		t.Fatalf("unexpected response: %+v", list)
	}
}

func TestE2EWebSocketSeesRefresh(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(e2eFeed))
	}))
	defer upstream.Close()

	store := catalog.NewStore(feed.NewClient(feed.Config{URL: upstream.URL}))
	server := NewServer(store)
	store.Subscribe(server.BroadcastState)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()
	defer server.Close()

	conn := connectWS(t, srv)
	defer conn.Close()
	if first := nextWSState(t, conn); !first.Loading {
		t.Fatalf("initial state must be loading: %+v", first)
	}
	time.Sleep(20 * time.Millisecond)

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := nextWSState(t, conn)
		if !state.Loading {
			if state.Total != 3 {
				t.Fatalf("loaded state = %+v", state)
			}
			return
		}
	}
	t.Fatal("did not observe loaded state")
}
