package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/djassa/djassa-backend/internal/cron"
	"github.com/djassa/djassa-backend/internal/inventory"
	"github.com/djassa/djassa-backend/internal/orders"
	"github.com/djassa/djassa-backend/internal/payments"
	"github.com/djassa/djassa-backend/internal/payments/providers"
	"github.com/djassa/djassa-backend/pkg/config"
	"github.com/djassa/djassa-backend/pkg/db"
	"github.com/djassa/djassa-backend/pkg/enums"
	"github.com/djassa/djassa-backend/pkg/logger"
	"github.com/djassa/djassa-backend/pkg/metrics"
	"github.com/djassa/djassa-backend/pkg/migrate"
	"github.com/djassa/djassa-backend/pkg/redis"
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

	paymentsService, err := buildPaymentsService(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewPaymentExpiryJob(paymentsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment expiry job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	registry.Register(expiryJob)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
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

// buildPaymentsService wires the minimum payment stack the expiry sweep
// needs. The worker never dispatches, so the simulation adapter runs
// without an auto-settler.
func buildPaymentsService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (payments.Service, error) {
	paymentsRepo := payments.NewRepository(dbClient.DB())

	refundManager, err := payments.NewRefundManager(paymentsRepo, logg)
	if err != nil {
		return nil, err
	}

	ordersService, err := orders.NewService(orders.Params{
		Repo:      orders.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Inventory: inventory.NewManager(),
		Refunds:   refundManager,
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}

	adapters := map[enums.PaymentProvider]providers.Adapter{
		enums.ProviderOrangeMoney: providers.NewOrangeMoney(cfg.Payment.OrangeWebhookSecret),
		enums.ProviderMTNMoney:    providers.NewMTNMoney(cfg.Payment.MTNWebhookSecret),
		enums.ProviderMoovMoney:   providers.NewMoovMoney(cfg.Payment.MoovWebhookSecret),
		enums.ProviderSimulation: providers.NewSimulation(
			cfg.Payment.SimulationWebhookSecret, cfg.Payment.SimulationDelay, nil),
	}

	return payments.NewService(payments.Params{
		Config:   cfg.Payment,
		Repo:     paymentsRepo,
		Tx:       dbClient,
		Adapters: adapters,
		Orders:   ordersService,
		Replay:   redisClient,
		Logger:   logg,
	})
}
