package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ziyoonee/gochagetcha-sub000/internal/cache"
	"github.com/ziyoonee/gochagetcha-sub000/internal/catalog"
	"github.com/ziyoonee/gochagetcha-sub000/internal/config"
	"github.com/ziyoonee/gochagetcha-sub000/internal/event"
	handler "github.com/ziyoonee/gochagetcha-sub000/internal/handler/http"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository/postgres"
	"github.com/ziyoonee/gochagetcha-sub000/internal/search"
	"github.com/ziyoonee/gochagetcha-sub000/internal/service"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/database"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/health"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/kafka"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/middleware"
)

// App wires the API server's dependencies and owns their lifecycle.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	redis     *redis.Client
	server    *http.Server
	consumers []*kafka.Consumer
	snapshot  *catalog.Snapshot
	gachaRepo *postgres.GachaRepository
}

// New builds the application from configuration. Callers own the returned
// App and must call Run.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			// The availability cache degrades to direct store reads, so a
			// missing Redis is a warning, not a startup failure.
			logger.Warn("redis unavailable, availability cache disabled",
				slog.String("error", err.Error()),
			)
			redisClient = nil
		}
	}

	gachaRepo := postgres.NewGachaRepository(pool)
	shopRepo := postgres.NewShopRepository(pool)
	linkRepo := postgres.NewLinkRepository(pool)

	merger := search.NewMerger(gachaRepo, cfg.SearchTimeout, logger)
	availability := cache.NewAvailability(redisClient, linkRepo, cfg.AvailabilityTTL, logger)
	snapshot := catalog.NewSnapshot()

	mode := service.CatalogMode(cfg.CatalogMode)
	var matcher search.Matcher
	if mode == service.ModeMemory {
		matcher = search.LocalMatcher{}
	} else {
		matcher = search.NewStoreMatcher(merger)
	}
	pipeline := catalog.NewPipeline(matcher)

	gachaSvc := service.NewGachaService(gachaRepo, shopRepo, linkRepo, merger, pipeline, snapshot, availability, mode, logger)
	shopSvc := service.NewShopService(shopRepo, linkRepo, gachaRepo, pipeline, mode, logger)
	searchSvc := service.NewSearchService(merger, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if cfg.KafkaEnabled {
		brokers := cfg.KafkaBrokers
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return kafka.PingBrokers(ctx, brokers)
		})
	}

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: cfg.ServiceName,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		Gachas: handler.NewGachaHandler(gachaSvc, logger),
		Shops:  handler.NewShopHandler(shopSvc, logger),
		Search: handler.NewSearchHandler(searchSvc, logger),
		Health: healthHandler,
		Logger: logger,
	})

	app := &App{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshot:  snapshot,
		gachaRepo: gachaRepo,
	}

	if cfg.KafkaEnabled {
		catalogConsumer := event.NewCatalogConsumer(snapshot, availability, logger)
		app.consumers = newConsumers(cfg, catalogConsumer, logger)
	}

	return app, nil
}

func newConsumers(cfg *config.Config, c *event.CatalogConsumer, logger *slog.Logger) []*kafka.Consumer {
	consumerFor := func(topic string, h kafka.Handler) *kafka.Consumer {
		return kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, h, logger)
	}

	return []*kafka.Consumer{
		consumerFor(event.TopicGachaUpserted, c.HandleGachaEvent),
		consumerFor(event.TopicGachaRemoved, c.HandleGachaEvent),
		consumerFor(event.TopicLinkUpserted, c.HandleLinkEvent),
		consumerFor(event.TopicLinkRemoved, c.HandleLinkEvent),
	}
}

// Run starts the consumers and the HTTP server, blocks until the context is
// canceled, then shuts everything down gracefully.
func (a *App) Run(ctx context.Context) error {
	if service.CatalogMode(a.cfg.CatalogMode) == service.ModeMemory {
		if err := a.seedSnapshot(ctx); err != nil {
			return err
		}
	}

	for _, consumer := range a.consumers {
		consumer := consumer
		go func() {
			if err := consumer.Start(ctx); err != nil {
				a.logger.Error("consumer stopped with error", slog.String("error", err.Error()))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown failed", slog.String("error", err.Error()))
	}

	for _, consumer := range a.consumers {
		if err := consumer.Close(); err != nil {
			a.logger.Error("consumer close failed", slog.String("error", err.Error()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close failed", slog.String("error", err.Error()))
		}
	}
	a.pool.Close()

	a.logger.Info("shutdown complete")
	return nil
}

// seedSnapshot loads the full gacha collection into memory at startup.
// Snapshot-mode deployments serve listings from this copy.
func (a *App) seedSnapshot(ctx context.Context) error {
	gachas, err := a.gachaRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("seed snapshot: %w", err)
	}
	a.snapshot.Load(gachas)
	a.logger.Info("snapshot seeded", slog.Int("gachas", len(gachas)))
	return nil
}
