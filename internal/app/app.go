package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Lava-10/knowMoreQR/internal/auth"
	"github.com/Lava-10/knowMoreQR/internal/catalog"
	"github.com/Lava-10/knowMoreQR/internal/config"
	"github.com/Lava-10/knowMoreQR/internal/event"
	handler "github.com/Lava-10/knowMoreQR/internal/handler/http"
	"github.com/Lava-10/knowMoreQR/internal/intent"
	"github.com/Lava-10/knowMoreQR/internal/repository"
	"github.com/Lava-10/knowMoreQR/internal/repository/postgres"
	redisrepo "github.com/Lava-10/knowMoreQR/internal/repository/redis"
	"github.com/Lava-10/knowMoreQR/internal/search/elasticsearch"
	"github.com/Lava-10/knowMoreQR/internal/service"
	"github.com/Lava-10/knowMoreQR/migrations"
	"github.com/Lava-10/knowMoreQR/pkg/database"
	"github.com/Lava-10/knowMoreQR/pkg/health"
	pkgkafka "github.com/Lava-10/knowMoreQR/pkg/kafka"
	"github.com/Lava-10/knowMoreQR/pkg/middleware"
	"github.com/Lava-10/knowMoreQR/pkg/tracing"
)

// App wires together all dependencies and runs the wishlist service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	limiter        *middleware.RateLimiter
	shutdownTracer func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	// Tracing.
	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	// PostgreSQL.
	pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Catalog store, optionally fronted by Redis.
	var catalogRepo repository.CatalogRepository = postgres.NewTagRepository(pool)
	var cache *redisrepo.CatalogCache
	if cfg.CatalogCacheEnabled {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		cache = redisrepo.NewCatalogCache(catalogRepo, rdb, cfg.CatalogCacheTTL, logger)
		catalogRepo = cache
		logger.Info("catalog cache enabled",
			slog.String("addr", cfg.Redis.Addr()),
			slog.Duration("ttl", cfg.CatalogCacheTTL),
		)
	}

	// Catalog lookup backend.
	var lookup catalog.Lookup
	var esLookup *elasticsearch.Lookup
	switch cfg.CatalogLookup {
	case config.LookupElasticsearch:
		esLookup, err = elasticsearch.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return fmt.Errorf("init elasticsearch lookup: %w", err)
		}
		if err := esLookup.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("ensure elasticsearch index: %w", err)
		}
		if cfg.ReindexOnStart {
			n, err := esLookup.Reindex(ctx, catalogRepo)
			if err != nil {
				return fmt.Errorf("reindex catalog: %w", err)
			}
			logger.Info("catalog reindexed", slog.Int("count", n))
		}
		lookup = esLookup
		logger.Info("elasticsearch catalog lookup initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		lookup = catalog.NewScanLookup(catalogRepo)
		logger.Info("scan catalog lookup initialized")
	}

	// Kafka producer for wishlist events.
	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	eventProducer := event.NewProducer(a.producer, logger)

	// Services.
	wishlistService := service.NewWishlistService(postgres.NewWishlistRepository(pool), catalogRepo, eventProducer, logger)
	parser := intent.NewParser(intent.Config{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout,
	}, logger)
	resolver := service.NewCommandResolver(parser, lookup, wishlistService, logger)

	// Kafka consumers keeping the cache and index in step with the catalog.
	a.consumers = a.catalogConsumers(cache, esLookup, catalogRepo)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", pool.Ping)
	if a.rdb != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
	}
	if esLookup != nil {
		healthHandler.RegisterCritical("elasticsearch", esLookup.Ping)
	}
	healthHandler.RegisterNonCritical("kafka", a.producer.Ping)

	// HTTP router.
	validator := auth.NewTokenValidator(cfg.JWTSecret, cfg.JWTIssuer)
	a.limiter = middleware.NewRateLimiter(cfg.CommandRatePerMinute, cfg.CommandRateBurst, logger)

	router := handler.NewRouter(handler.RouterDeps{
		ServiceName:    config.ServiceName,
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Resolver:       resolver,
		Wishlist:       wishlistService,
		Lookup:         lookup,
		Catalog:        catalogRepo,
		Health:         healthHandler,
		TokenValidator: validator.Func(),
		CommandLimiter: a.limiter,
		Logger:         logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// catalogConsumers builds one consumer per catalog topic. Nothing is
// consumed when neither the cache nor the search index needs updates.
func (a *App) catalogConsumers(cache *redisrepo.CatalogCache, esLookup *elasticsearch.Lookup, catalogRepo repository.CatalogRepository) []*pkgkafka.Consumer {
	var invalidator event.CacheInvalidator
	if cache != nil {
		invalidator = cache
	}
	var refresher event.IndexRefresher
	if esLookup != nil {
		refresher = event.IndexRefreshFunc(func(ctx context.Context, id string) error {
			return esLookup.Refresh(ctx, catalogRepo, id)
		})
	}
	if invalidator == nil && refresher == nil {
		return nil
	}

	catalogConsumer := event.NewCatalogConsumer(invalidator, refresher, a.logger)
	a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)

	consumers := make([]*pkgkafka.Consumer, 0, len(event.CatalogTopics))
	for _, topic := range event.CatalogTopics {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  a.cfg.KafkaBrokers,
			GroupID:  a.cfg.KafkaConsumerGroup,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}
		consumers = append(consumers, pkgkafka.NewConsumer(consumerCfg, catalogConsumer.Handle, a.logger, pkgkafka.WithDLQ(a.dlq)))
	}
	a.logger.Info("kafka consumers initialized",
		slog.Any("brokers", a.cfg.KafkaBrokers),
		slog.Int("topic_count", len(consumers)),
	)
	return consumers
}

// Run starts the HTTP server and Kafka consumers, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases clients opened by init. It is safe on a partially
// initialised App.
func (a *App) closeResources() error {
	var errs []error
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
