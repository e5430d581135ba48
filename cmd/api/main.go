package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kursadbilgin/ekyc-engine/internal/audit"
	"github.com/kursadbilgin/ekyc-engine/internal/config"
	"github.com/kursadbilgin/ekyc-engine/internal/handler"
	"github.com/kursadbilgin/ekyc-engine/internal/infra/postgresql"
	"github.com/kursadbilgin/ekyc-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/ekyc-engine/internal/infra/redis"
	"github.com/kursadbilgin/ekyc-engine/internal/observability"
	"github.com/kursadbilgin/ekyc-engine/internal/provider"
	"github.com/kursadbilgin/ekyc-engine/internal/queue"
	"github.com/kursadbilgin/ekyc-engine/internal/repository"
	"github.com/kursadbilgin/ekyc-engine/internal/service"
	"github.com/kursadbilgin/ekyc-engine/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rmq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rmq.Close()

	publisher := queue.NewRabbitMQPublisher(rmq)
	defer publisher.Close()

	uidai, err := provider.NewUidaiProvider(cfg.UidaiBaseURL, cfg.ProviderTimeout())
	if err != nil {
		logger.Fatal("uidai provider initialization failed", zap.Error(err))
	}

	resendLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.ResendLimitPerMin)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	repo := repository.NewGormVerificationRepo(db)
	trail := audit.NewTrail(logger, publisher)

	svc, err := service.NewVerificationService(
		repo,
		uidai,
		resendLimiter,
		trail,
		cfg.MaxOtpAttempts,
		cfg.OtpTTL(),
		logger,
	)
	if err != nil {
		logger.Fatal("verification service initialization failed", zap.Error(err))
	}
	svc.SetMetrics(metrics)

	sweeper, err := service.NewRetentionSweeper(repo, 0, cfg.RetentionWindow(), logger)
	if err != nil {
		logger.Fatal("retention sweeper initialization failed", zap.Error(err))
	}
	sweeper.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(transport.RequestContext())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if err := handler.RegisterVerificationRoutes(app, svc); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("ekyc-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		return sweeper.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("ekyc-engine api exited", zap.Error(err))
	}

	logger.Info("ekyc-engine api stopped")
}
