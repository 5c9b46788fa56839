package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/docstack/docsearch/internal/analytics"
	"github.com/docstack/docsearch/internal/coordinator"
	"github.com/docstack/docsearch/internal/ingest"
	"github.com/docstack/docsearch/internal/navigation"
	"github.com/docstack/docsearch/internal/search/cache"
	"github.com/docstack/docsearch/internal/server"
	"github.com/docstack/docsearch/internal/source"
	"github.com/docstack/docsearch/pkg/config"
	"github.com/docstack/docsearch/pkg/health"
	"github.com/docstack/docsearch/pkg/kafka"
	"github.com/docstack/docsearch/pkg/logger"
	"github.com/docstack/docsearch/pkg/metrics"
	"github.com/docstack/docsearch/pkg/middleware"
	"github.com/docstack/docsearch/pkg/postgres"
	pkgredis "github.com/docstack/docsearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting docsearch", "port", cfg.Server.Port, "source", cfg.Source.Kind)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var pgClient *postgres.Client
	var catalog source.Catalog
	switch cfg.Source.Kind {
	case "postgres":
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to catalog database", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		catalog = source.NewPostgres(pgClient)
	default:
		catalog = source.NewFS(cfg.Source.DocsDir)
	}

	docs, err := catalog.Load(ctx)
	if err != nil {
		slog.Error("failed to load document catalog", "error", err)
		os.Exit(1)
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL.Std())
	}

	coordCfg := coordinator.Config{
		QueueSize: cfg.Index.QueueSize,
		Metrics:   m,
	}
	if queryCache != nil {
		coordCfg.OnMutation = func() {
			invalidateCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout.Std())
			defer cancel()
			if err := queryCache.Invalidate(invalidateCtx); err != nil {
				slog.Error("query cache invalidation failed", "error", err)
			}
		}
	}
	coord := coordinator.New(coordCfg, docs)
	coord.Start(ctx)

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryAnalytics)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 100, 0)
		collector.Start(ctx)
		defer collector.Close()

		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentEvents, ingest.Handler(coord))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("document event consumer stopped", "error", err)
			}
		}()
		slog.Info("kafka wired",
			"document_events", cfg.Kafka.Topics.DocumentEvents,
			"query_analytics", cfg.Kafka.Topics.QueryAnalytics,
		)
	}

	checker := health.NewChecker()
	checker.Register("coordinator", func(ctx context.Context) error {
		_, err := coord.Stats(ctx)
		return err
	})
	if redisClient != nil {
		checker.Register("redis", redisClient.Ping)
	}
	if pgClient != nil {
		checker.Register("postgres", pgClient.Ping)
	}

	nav := navigation.NewPathResolver(docs)
	h := server.New(coord, queryCache, nav, collector, catalog, m, cfg.Search)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/reindex", h.Reindex)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout.Std())(chain)
	chain = middleware.RequestID(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("docsearch listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("docsearch stopped")
}
