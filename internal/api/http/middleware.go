package apihttp

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
	"movieshub/catalogservice/internal/metrics"
)

// statusRecorder captures what a handler wrote so the outer middleware can label it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

func (rec *statusRecorder) Flush() {
	if flusher, ok := rec.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack lets the /ws upgrade pass through the chain.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rec.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// corsMiddleware lets a browser front-end on another origin read the catalog.
// The API is read-only, so only GET and preflight are advertised.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", origin)
		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLogMiddleware writes one line per request. /movies lines carry the active filter
// dimensions so slow or empty listings can be traced back to a selection.
func accessLogMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("route", routeLabel(r.URL.Path)),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int("bytes", rec.bytes),
			slog.Int64("durationMs", time.Since(startedAt).Milliseconds()),
			slog.String("clientIP", clientIP(r)),
		}
		if r.URL.Path == "/movies" {
			attrs = append(attrs, filterAttrs(r)...)
		}
		if ua := r.UserAgent(); ua != "" {
			attrs = append(attrs, slog.String("userAgent", clip(ua, 120)))
		}
		logger.LogAttrs(r.Context(), requestLogLevel(r.URL.Path, rec.status), "http request", attrs...)
	})
}

// filterAttrs lists only the filter fields the request actually set.
func filterAttrs(r *http.Request) []slog.Attr {
	filters := parseMovieFilters(r)
	fields := []struct {
		key   string
		value string
	}{
		{"search", filters.Search},
		{"genre", filters.Genre},
		{"year", filters.Year},
		{"language", filters.Language},
		{"quality", filters.Quality},
		{"rating", filters.Rating},
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, field := range fields {
		if field.value != "" {
			attrs = append(attrs, slog.String("filter."+field.key, clip(field.value, 80)))
		}
	}
	return attrs
}

func requestLogLevel(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	if rt, ok := lookupRoute(path); ok && rt.quiet {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			logger.Error("panic recovered",
				slog.Any("error", recovered),
				slog.String("method", r.Method),
				slog.String("route", routeLabel(r.URL.Path)),
				slog.String("clientIP", clientIP(r)),
				slog.String("stack", string(debug.Stack())),
			)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and latency under the route label, so ids in
// /movies/{id} never become label values.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		label := routeLabel(r.URL.Path)
		if label == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		startedAt := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, label, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, label).Observe(time.Since(startedAt).Seconds())
	})
}

// rateLimitMiddleware shares one token bucket across all limited routes and answers 429
// with Retry-After once it is empty.
func rateLimitMiddleware(rps float64, burst int, next http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rt, ok := lookupRoute(r.URL.Path); ok && rt.unlimited {
			next.ServeHTTP(w, r)
			return
		}
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the first valid address from proxy headers, then the socket peer.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); validIP(first) {
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); validIP(realIP) {
		return strings.TrimSpace(realIP)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func validIP(raw string) bool {
	return net.ParseIP(strings.TrimSpace(raw)) != nil
}

// clip shortens value to at most limit runes, marking the cut with an ellipsis.
func clip(value string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
