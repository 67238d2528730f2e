package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pulanodus/tableserve-backend/internal/billing"
	"github.com/pulanodus/tableserve-backend/internal/cart"
	"github.com/pulanodus/tableserve-backend/internal/cron"
	"github.com/pulanodus/tableserve-backend/internal/payments"
	"github.com/pulanodus/tableserve-backend/internal/sessions"
	"github.com/pulanodus/tableserve-backend/internal/tables"
	"github.com/pulanodus/tableserve-backend/pkg/config"
	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
	"github.com/pulanodus/tableserve-backend/pkg/metrics"
	"github.com/pulanodus/tableserve-backend/pkg/migrate"
	"github.com/pulanodus/tableserve-backend/pkg/outbox"
	"github.com/pulanodus/tableserve-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionsSvc, err := buildSessionsService(cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build sessions service", err)
		os.Exit(1)
	}

	outboxRepo := outbox.NewRepository(dbClient.DB())
	dlqRepo := outbox.NewDLQRepository(dbClient.DB())

	idleSessionJob, err := cron.NewIdleSessionJob(cron.IdleSessionJobParams{
		Logger:    logg,
		Sessions:  sessionsSvc,
		IdleAfter: cfg.Sessions.IdleAfter,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create idle session job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	dlqRetryJob, err := cron.NewOutboxDLQRetryJob(cron.OutboxDLQRetryJobParams{
		Logger: logg,
		DB:     dbClient,
		DLQ:    dlqRepo,
		Outbox: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox dlq retry job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(idleSessionJob, retentionJob, dlqRetryJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.TickInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildSessionsService wires the minimal dependency graph the idle sweep
// needs: closing a session snapshots its bill, so the billing service and the
// repositories it reads come along.
func buildSessionsService(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (sessions.Service, error) {
	tablesRepo := tables.NewRepository(dbClient.DB())
	sessionsRepo := sessions.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	tablesSvc, err := tables.NewService(tablesRepo, cfg.TableToken)
	if err != nil {
		return nil, err
	}
	billingSvc, err := billing.NewService(cartRepo, sessionsRepo, cfg.Billing.VATRate)
	if err != nil {
		return nil, err
	}
	return sessions.NewService(sessionsRepo, tablesSvc, tablesRepo, billingSvc, paymentsRepo, cartRepo, dbClient, outboxSvc, logg)
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}
