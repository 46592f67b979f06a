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
	"golang.org/x/time/rate"

	"github.com/Fanatic033/shoro-market/internal/catalog"
	"github.com/Fanatic033/shoro-market/internal/checkout"
	"github.com/Fanatic033/shoro-market/internal/config"
	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/event"
	handler "github.com/Fanatic033/shoro-market/internal/handler/http"
	"github.com/Fanatic033/shoro-market/internal/ledger"
	"github.com/Fanatic033/shoro-market/internal/persist"
	pgrepo "github.com/Fanatic033/shoro-market/internal/repository/postgres"
	redisrepo "github.com/Fanatic033/shoro-market/internal/repository/redis"
	"github.com/Fanatic033/shoro-market/internal/service"
	"github.com/Fanatic033/shoro-market/pkg/auth"
	"github.com/Fanatic033/shoro-market/pkg/database"
	"github.com/Fanatic033/shoro-market/pkg/health"
	"github.com/Fanatic033/shoro-market/pkg/httpclient"
	pkgkafka "github.com/Fanatic033/shoro-market/pkg/kafka"
	"github.com/Fanatic033/shoro-market/pkg/middleware"
	"github.com/Fanatic033/shoro-market/pkg/tracing"
)

// App wires together all dependencies and runs the service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	catalog        *catalog.Catalog
	mirror         *persist.Mirror
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Redis holds the cart snapshots.
	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))

	// PostgreSQL holds the order history and address book.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryMillis)*time.Millisecond, logger)

	// Domain events are published without waiting for broker acks.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	kafkaCfg.Async = true
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Commerce API client shared by the catalog and checkout.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.CommerceTimeout
	if cfg.CommerceAPIKey != "" {
		httpCfg.Headers = map[string]string{"Authorization": "Bearer " + cfg.CommerceAPIKey}
	}
	commerce := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig("commerce-api"),
		logger,
	)

	// Build the dependency graph.
	productCatalog := catalog.New(
		catalog.NewClient(commerce, cfg.CommerceAPIURL, cfg.CommerceClientID, domain.DefaultImageResolver),
		cfg.CatalogRefresh,
		logger,
	)
	snapshots := redisrepo.NewSnapshotStore(rdb, cfg.CartTTLDuration())
	mirror := persist.NewMirror(snapshots, persist.Config{QueueSize: cfg.PersistQueueSize}, logger)
	events := event.NewProducer(producer, logger)

	policy := ledger.Policy{
		Steps:    domain.NewStepRule(cfg.PackagedKeywords),
		Delivery: cfg.DeliveryPolicy(),
		Images:   domain.DefaultImageResolver,
	}
	cartService, err := service.NewCartService(snapshots, mirror, productCatalog, events, policy, cfg.SessionCacheSize, logger)
	if err != nil {
		return nil, err
	}
	addressService := service.NewAddressService(
		pgrepo.NewAddressRepository(pool),
		checkout.NewProfileClient(commerce, cfg.CommerceAPIURL),
		logger,
	)
	orderService := service.NewOrderService(
		cartService,
		checkout.NewClient(commerce, cfg.CommerceAPIURL),
		pgrepo.NewOrderRepository(pool),
		addressService,
		events,
		logger,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("postgres", pool.Ping)
	healthHandler.Register("kafka", producer.Ping)
	healthHandler.Register("catalog", productCatalog.Ready)

	identity := middleware.HeaderIdentity()
	if cfg.JWTSecret != "" {
		identity = auth.NewHS256Validator(cfg.JWTSecret).Middleware()
	}

	var checkoutLimit func(http.Handler) http.Handler
	if cfg.CheckoutRatePerMinute > 0 {
		checkoutLimit = middleware.RateLimit(
			rate.Limit(cfg.CheckoutRatePerMinute/60),
			cfg.CheckoutBurst,
			cfg.SessionCacheSize,
			middleware.ByUserID,
			logger,
		)
	}

	router := handler.NewRouter(handler.Deps{
		Carts:         cartService,
		Orders:        orderService,
		Addresses:     addressService,
		Catalog:       productCatalog,
		Health:        healthHandler,
		Identity:      identity,
		CheckoutLimit: checkoutLimit,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		pool:           pool,
		producer:       producer,
		catalog:        productCatalog,
		mirror:         mirror,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the catalog refresher and blocks until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	// A cold catalog is not fatal; requests answer 503 until a refresh succeeds.
	if err := a.catalog.Refresh(ctx); err != nil {
		a.logger.Warn("initial catalog load failed", slog.String("error", err.Error()))
	}
	go a.catalog.Run(ctx, a.cfg.CatalogRefresh)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	a.Shutdown()
	return runErr
}

// Shutdown gracefully stops all components. Pending cart snapshots are
// flushed before Redis is closed.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.mirror.Close(shutdownCtx); err != nil {
		a.logger.Error("snapshot mirror drain error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}
	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
}
