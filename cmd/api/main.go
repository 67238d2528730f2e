package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pulanodus/tableserve-backend/api/routes"
	"github.com/pulanodus/tableserve-backend/internal/billing"
	"github.com/pulanodus/tableserve-backend/internal/cart"
	"github.com/pulanodus/tableserve-backend/internal/menu"
	"github.com/pulanodus/tableserve-backend/internal/orders"
	"github.com/pulanodus/tableserve-backend/internal/payments"
	"github.com/pulanodus/tableserve-backend/internal/sessions"
	"github.com/pulanodus/tableserve-backend/internal/splits"
	"github.com/pulanodus/tableserve-backend/internal/tables"
	"github.com/pulanodus/tableserve-backend/pkg/config"
	"github.com/pulanodus/tableserve-backend/pkg/db"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
	"github.com/pulanodus/tableserve-backend/pkg/metrics"
	"github.com/pulanodus/tableserve-backend/pkg/migrate"
	"github.com/pulanodus/tableserve-backend/pkg/outbox"
	"github.com/pulanodus/tableserve-backend/pkg/redis"
	"github.com/pulanodus/tableserve-backend/pkg/square"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square client", err)
		os.Exit(1)
	}

	currency, err := enums.ParseCurrency(cfg.Billing.Currency)
	if err != nil {
		logg.Error(context.Background(), "invalid billing currency", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	tablesRepo := tables.NewRepository(dbClient.DB())
	sessionsRepo := sessions.NewRepository(dbClient.DB())
	menuRepo := menu.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	splitsRepo := splits.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	tablesSvc, err := tables.NewService(tablesRepo, cfg.TableToken)
	if err != nil {
		logg.Error(context.Background(), "failed to create tables service", err)
		os.Exit(1)
	}

	menuSvc, err := menu.NewService(menuRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create menu service", err)
		os.Exit(1)
	}

	billingSvc, err := billing.NewService(cartRepo, sessionsRepo, cfg.Billing.VATRate)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	splitsSvc, err := splits.NewService(splitsRepo, sessionsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create splits service", err)
		os.Exit(1)
	}

	cartSvc, err := cart.NewService(cartRepo, menuRepo, sessionsRepo, tablesRepo, splitsSvc, dbClient, outboxSvc, cfg.Billing.VATRate)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	paymentsSvc, err := payments.NewService(payments.ServiceParams{
		Repo:              paymentsRepo,
		Bills:             billingSvc,
		Sessions:          sessionsRepo,
		SquareClient:      squareClient,
		TransactionRunner: dbClient,
		Outbox:            outboxSvc,
		LocationID:        cfg.Square.LocationID,
		Currency:          currency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	sessionsSvc, err := sessions.NewService(sessionsRepo, tablesSvc, tablesRepo, billingSvc, paymentsRepo, cartRepo, dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sessions service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(ordersRepo, sessionsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DBPinger:    dbClient,
			RedisClient: redisClient,
			HTTPMetrics: httpMetrics,
			Registry:    registry,
			Tables:      tablesSvc,
			Sessions:    sessionsSvc,
			Menu:        menuSvc,
			Cart:        cartSvc,
			Splits:      splitsSvc,
			Billing:     billingSvc,
			Payments:    paymentsSvc,
			Orders:      ordersSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
