package apihttp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"movieshub/catalogservice/internal/metrics"
)

const (
	maxProxiedImageBytes = int64(20 * 1024 * 1024)
	imageSlotWait        = 5 * time.Second
)

var (
	errInvalidURL      = errors.New("invalid url")
	errUnsupportedURL  = errors.New("unsupported url scheme")
	errBlockedHost     = errors.New("blocked url host")
	errUnresolvedHost  = errors.New("failed to resolve url host")
	errMissingURLHost  = errors.New("invalid url host")
	errTooManyRedirect = errors.New("stopped after 5 redirects")
)

// handleImageProxy streams a poster image so the front-end can fall back gracefully when the
// spreadsheet points at hosts that block hotlinking.
func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	if !s.allowGet(w, r) {
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		metrics.ImageProxyRequestsTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "invalid_request", "missing url")
		return
	}

	target, err := url.Parse(raw)
	if err != nil {
		metrics.ImageProxyRequestsTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid url")
		return
	}
	if err := validateProxyURL(r.Context(), target); err != nil {
		metrics.ImageProxyRequestsTotal.WithLabelValues("blocked").Inc()
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	acquireCtx, cancel := context.WithTimeout(r.Context(), imageSlotWait)
	defer cancel()
	if err := s.imageSem.Acquire(acquireCtx, 1); err != nil {
		metrics.ImageProxyRequestsTotal.WithLabelValues("busy").Inc()
		writeError(w, http.StatusServiceUnavailable, "busy", "image proxy is busy")
		return
	}
	defer s.imageSem.Release(1)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid url")
		return
	}
	req.Header.Set("User-Agent", "movies-hub-catalog/1.0")
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Referer", target.Scheme+"://"+target.Host+"/")

	resp, err := s.imageClient(r.Context()).Do(req)
	if err != nil {
		metrics.ImageProxyRequestsTotal.WithLabelValues("upstream_error").Inc()
		writeError(w, http.StatusBadGateway, "upstream_error", "failed to fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ImageProxyRequestsTotal.WithLabelValues("upstream_error").Inc()
		writeError(w, http.StatusBadGateway, "upstream_error", fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode))
		return
	}

	if resp.ContentLength > maxProxiedImageBytes {
		metrics.ImageProxyRequestsTotal.WithLabelValues("too_large").Inc()
		writeError(w, http.StatusRequestEntityTooLarge, "invalid_request", "image too large")
		return
	}

	limited := io.LimitReader(resp.Body, maxProxiedImageBytes)
	head := make([]byte, 512)
	n, readErr := io.ReadFull(limited, head)
	if readErr != nil && !errors.Is(readErr, io.ErrUnexpectedEOF) && !errors.Is(readErr, io.EOF) {
		metrics.ImageProxyRequestsTotal.WithLabelValues("upstream_error").Inc()
		writeError(w, http.StatusBadGateway, "upstream_error", "failed to read image")
		return
	}
	head = head[:n]

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(head)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		metrics.ImageProxyRequestsTotal.WithLabelValues("not_image").Inc()
		writeError(w, http.StatusBadGateway, "upstream_error", "not an image")
		return
	}

	metrics.ImageProxyRequestsTotal.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(head)
	_, _ = io.Copy(w, limited)
}

func newImageProxyClient(parent context.Context) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.ForceAttemptHTTP2 = false
	transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}

	dialer := &net.Dialer{Timeout: 8 * time.Second, KeepAlive: 30 * time.Second}
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:   12 * time.Second,
		Transport: otelhttp.NewTransport(transport),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errTooManyRedirect
			}
			if req.URL == nil {
				return errInvalidURL
			}
			return validateProxyURL(parent, req.URL)
		},
	}
}

// blockedHostnames are service names reachable only inside the deployment network.
var blockedHostnames = map[string]struct{}{
	"localhost":      {},
	"redis":          {},
	"catalog":        {},
	"movie-catalog":  {},
	"otel-collector": {},
	"prometheus":     {},
}

func validateProxyURL(ctx context.Context, u *url.URL) error {
	if u == nil {
		return errInvalidURL
	}
	scheme := strings.ToLower(strings.TrimSpace(u.Scheme))
	if scheme != "http" && scheme != "https" {
		return errUnsupportedURL
	}
	host := strings.ToLower(strings.TrimSpace(u.Hostname()))
	if host == "" {
		return errMissingURLHost
	}
	if _, blocked := blockedHostnames[host]; blocked {
		return errBlockedHost
	}
	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".internal") {
		return errBlockedHost
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return errBlockedHost
		}
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	addrs, err := net.DefaultResolver.LookupIPAddr(lookupCtx, host)
	if err != nil || len(addrs) == 0 {
		return errUnresolvedHost
	}
	for _, addr := range addrs {
		if isBlockedIP(addr.IP) {
			return errBlockedHost
		}
	}
	return nil
}

func isBlockedIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() || ip.IsUnspecified()
}
