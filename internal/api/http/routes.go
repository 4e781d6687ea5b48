package apihttp

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// route describes one entry of the public API. The same table drives mux registration,
// metric labels, log levels, rate limiting and tracing.
type route struct {
	pattern string
	// label is the bounded metrics/log name; prefix routes collapse their tail into it.
	label  string
	prefix bool
	handle func(s *Server, w http.ResponseWriter, r *http.Request)

	quiet     bool // successful requests log at debug
	unlimited bool // exempt from the global rate limit
	untraced  bool // excluded from otelhttp spans
}

const otherRouteLabel = "/other"

var promHandler = promhttp.Handler()

var catalogRoutes = []route{
	{pattern: "/health", label: "/health", handle: (*Server).handleHealth, quiet: true, unlimited: true, untraced: true},
	{pattern: "/metrics", label: "/metrics", handle: serveMetrics, quiet: true, unlimited: true, untraced: true},
	{pattern: "/ws", label: "/ws", handle: (*Server).handleWS, unlimited: true, untraced: true},
	{pattern: "/catalog/state", label: "/catalog/state", handle: (*Server).handleCatalogState, quiet: true},
	{pattern: "/catalog/facets", label: "/catalog/facets", handle: (*Server).handleCatalogFacets},
	{pattern: "/catalog/image", label: "/catalog/image", handle: (*Server).handleImageProxy, quiet: true},
	{pattern: "/movies", label: "/movies", handle: (*Server).handleMovies},
	{pattern: "/movies/", label: "/movies/{id}", prefix: true, handle: (*Server).handleMovieByID},
}

func serveMetrics(_ *Server, w http.ResponseWriter, r *http.Request) {
	promHandler.ServeHTTP(w, r)
}

// lookupRoute resolves a request path the way the mux does: exact patterns first, then the
// longest matching prefix pattern.
func lookupRoute(path string) (route, bool) {
	var best route
	found := false
	for _, rt := range catalogRoutes {
		if rt.pattern == path {
			return rt, true
		}
		if rt.prefix && strings.HasPrefix(path, rt.pattern) && len(rt.pattern) > len(best.pattern) {
			best, found = rt, true
		}
	}
	return best, found
}

func routeLabel(path string) string {
	if rt, ok := lookupRoute(path); ok {
		return rt.label
	}
	return otherRouteLabel
}

func (s *Server) newMux() *http.ServeMux {
	mux := http.NewServeMux()
	for _, rt := range catalogRoutes {
		handle := rt.handle
		mux.HandleFunc(rt.pattern, func(w http.ResponseWriter, r *http.Request) {
			handle(s, w, r)
		})
	}
	return mux
}

func shouldTrace(r *http.Request) bool {
	rt, ok := lookupRoute(r.URL.Path)
	return !ok || !rt.untraced
}
