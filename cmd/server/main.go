package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "movieshub/catalogservice/internal/api/http"
	"movieshub/catalogservice/internal/app"
	"movieshub/catalogservice/internal/catalog"
	"movieshub/catalogservice/internal/feed"
	"movieshub/catalogservice/internal/metrics"
	"movieshub/catalogservice/internal/telemetry"
)

const serviceName = "movie-catalog"

var version = "dev"

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), telemetry.Service{Name: serviceName, Version: version})
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("feedURL", cfg.FeedURL),
		slog.Duration("feedTimeout", cfg.FeedTimeout),
		slog.Bool("fixedRatingSeed", cfg.RatingSeed != 0),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("queryCacheDisabled", cfg.QueryCacheDisabled),
		slog.Duration("queryCacheTTL", cfg.QueryCacheTTL),
		slog.Int("rateLimitRPS", cfg.RateLimitRPS),
		slog.Int("rateLimitBurst", cfg.RateLimitBurst),
	)

	feedClient := feed.NewClient(feed.Config{
		URL:       cfg.FeedURL,
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{Timeout: cfg.FeedTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})

	store := catalog.NewStore(feedClient, buildStoreOptions(cfg, logger)...)
	api := apihttp.NewServer(store,
		apihttp.WithLogger(logger),
		apihttp.WithRateLimit(float64(cfg.RateLimitRPS), cfg.RateLimitBurst),
		apihttp.WithImageProxyConcurrency(cfg.ImageProxyMaxConcurrency),
	)
	store.Subscribe(api.BroadcastState)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// /ws connections are long-lived; the hub manages its own write deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The catalog is fetched exactly once per process.
	go func() {
		if err := store.Refresh(rootCtx); err != nil {
			logger.Error("initial catalog load failed", slog.String("error", err.Error()))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("movie catalog service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("feedURL", cfg.FeedURL),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	api.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("movie catalog service stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildStoreOptions(cfg app.Config, logger *slog.Logger) []catalog.StoreOption {
	opts := []catalog.StoreOption{
		catalog.WithLogger(logger),
		catalog.WithRatingSource(catalog.NewRandomRating(cfg.RatingSeed)),
	}
	if cache := buildQueryCache(cfg, logger); cache != nil {
		opts = append(opts, catalog.WithQueryCache(cache))
	}
	return opts
}

func buildQueryCache(cfg app.Config, logger *slog.Logger) catalog.QueryCache {
	if cfg.QueryCacheDisabled {
		logger.Info("query cache disabled")
		return nil
	}
	memory := catalog.NewMemoryQueryCache(cfg.QueryCacheTTL, catalog.DefaultQueryCacheMaxEntries)
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return memory
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory query cache", slog.String("error", err.Error()))
		return memory
	}
	cache := catalog.NewRedisQueryCache(redis.NewClient(redisOpts), cfg.QueryCacheTTL)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		logger.Warn("redis not reachable, using in-memory query cache", slog.String("error", err.Error()))
		return memory
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return cache
}
