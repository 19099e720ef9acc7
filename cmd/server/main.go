package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/trisend/trisend/config"
	apprepository "github.com/trisend/trisend/internal/app/repository"
	appserver "github.com/trisend/trisend/internal/app/server"
	appservice "github.com/trisend/trisend/internal/app/service"
	"github.com/trisend/trisend/internal/infra/geoip"
	"github.com/trisend/trisend/internal/infra/logger"
	infraNATS "github.com/trisend/trisend/internal/infra/nats"
	"github.com/trisend/trisend/internal/infra/paystack"
	infraPostgres "github.com/trisend/trisend/internal/infra/postgres"
	infraPrometheus "github.com/trisend/trisend/internal/infra/prometheus"
	infraRedis "github.com/trisend/trisend/internal/infra/redis"
	infraSQLite "github.com/trisend/trisend/internal/infra/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	var redisClient *redis.Client
	if infraRedis.Enabled(cfg.Redis) {
		redisClient, err = infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Connected to Redis", zap.String("redis_host", cfg.Redis.Host))
	}

	// The native store is chosen once, here, when credentials are present.
	var (
		links     apprepository.LinkStore
		clicks    apprepository.ClickReader
		users     apprepository.UserRepository
		pool      *pgxpool.Pool
		storeMode = "fallback"
	)
	if cfg.HasNativeStore() {
		db, err := openNativeStore(cfg)
		if err != nil {
			log.Fatal("Failed to open link store", zap.Error(err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
		}
		defer sqlDB.Close()

		if err := apprepository.AutoMigrate(ctx, db); err != nil {
			log.Fatal("Failed to run database migrations", zap.Error(err))
		}

		if cfg.Store.Driver != "sqlite" {
			pool, err = infraPostgres.NewPool(ctx, cfg.Postgres)
			if err != nil {
				log.Fatal("Failed to connect to Postgres", zap.Error(err))
			}
			defer pool.Close()
		}

		native := apprepository.NewGormLinkStore(db)
		links, clicks = native, native
		users = apprepository.NewUserRepository(db)
		storeMode = "native"
	} else {
		log.Warn("No store credentials configured, using read-only REST fallback; click tracking disabled",
			zap.String("project_id", cfg.Store.REST.ProjectID))
		links = apprepository.NewRESTLinkStore(cfg.Store.REST.BaseURL, cfg.Store.REST.ProjectID)
	}

	if redisClient != nil {
		cached := apprepository.NewCachedLinkStore(links, redisClient, cfg.Redis.CacheTTL, log)
		links = cached
		if clicks != nil {
			clicks = cached
		}
	}

	log.Info("Link store ready",
		zap.String("mode", storeMode),
		zap.String("driver", cfg.Store.Driver),
		zap.Bool("cache", redisClient != nil),
	)

	storeSink := appservice.NewStoreSink(links)
	var sink appservice.ClickSink = storeSink
	if cfg.Clicks.Transport == "nats" {
		natsConn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()

		consumer := appservice.NewClickConsumer(js, log.Named("click-consumer"), storeSink)
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start click consumer", zap.Error(err))
		}
		defer consumer.Stop()

		sink = appservice.NewClickPublisher(js)
		log.Info("Click transport: NATS JetStream", zap.String("nats_host", cfg.NATS.Host))
	}

	recorder := appservice.NewClickRecorder(appservice.ClickRecorderDeps{
		Logger: log.Named("click-recorder"),
		Geo: geoip.NewResolver(geoip.Config{
			BaseURL: cfg.Geo.BaseURL,
			Timeout: cfg.Geo.Timeout,
			Redis:   redisClient,
			Logger:  log,
		}),
		Sink: sink,
	})

	var verifier appservice.PaymentVerifier
	if cfg.Paystack.SecretKey != "" {
		verifier = paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey)
	} else {
		log.Warn("PAYSTACK_SECRET_KEY not set, payment verification disabled")
	}
	payments := appservice.NewPaymentService(appservice.PaymentDeps{
		Logger:    log.Named("payments"),
		Verifier:  verifier,
		Users:     users,
		MinAmount: cfg.Paystack.MinAmount,
	})

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Config:    cfg,
		Postgres:  pool,
		Redis:     redisClient,
		Links:     links,
		Clicks:    clicks,
		StoreMode: storeMode,
		Resolver:  appservice.NewLinkResolver(links, log.Named("resolver")),
		Recorder:  recorder,
		Payments:  payments,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Trisend server listening", zap.String("addr", addr), zap.String("store", storeMode))

	// Returns after in-flight clicks are written, so the deferred closes run last.
	if err := server.ListenAndServe(runCtx, addr, shutdownTimeout); err != nil {
		log.Error("Fiber server exited", zap.Error(err))
		return
	}
	log.Info("Trisend server stopped")
}

func openNativeStore(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Store.Driver == "sqlite" {
		return infraSQLite.NewGorm(cfg.Store.SQLitePath)
	}
	return infraPostgres.NewGorm(cfg.Postgres)
}
