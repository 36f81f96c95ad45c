package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/djassa/djassa-backend/api/routes"
	"github.com/djassa/djassa-backend/internal/buybox"
	"github.com/djassa/djassa-backend/internal/checkout"
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

	marketplaceMetrics := metrics.NewMarketplaceMetrics(prometheus.DefaultRegisterer)

	buyboxService, err := buybox.NewService(buybox.Params{
		Repo:    buybox.NewRepository(dbClient.DB()),
		Engine:  buybox.NewEngine(cfg.BuyBox),
		Logger:  logg,
		Metrics: marketplaceMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create buy box service", err)
		os.Exit(1)
	}

	inventoryManager := inventory.NewManager()

	checkoutService, err := checkout.NewService(checkout.Params{
		Repo:      checkout.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Inventory: inventoryManager,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	paymentsRepo := payments.NewRepository(dbClient.DB())

	refundManager, err := payments.NewRefundManager(paymentsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create refund manager", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.Params{
		Repo:      orders.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Inventory: inventoryManager,
		Refunds:   refundManager,
		Logger:    logg,
		Metrics:   marketplaceMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	// The simulation settler re-enters the payment service through the same
	// signed webhook path real providers use, so it is bound after the
	// service exists.
	var paymentsService payments.Service
	settler := func(transactionID string, success bool, reason string) {
		status := "success"
		if !success {
			status = "failure"
		}
		payload := providers.WebhookPayload{
			TransactionID: transactionID,
			Status:        status,
			Provider:      string(enums.ProviderSimulation),
		}
		payload.Signature = providers.SignPayload(cfg.Payment.SimulationWebhookSecret, payload)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := paymentsService.HandleWebhook(ctx, enums.ProviderSimulation, payload); err != nil {
			logg.Error(ctx, "simulation settlement failed", err)
		}
	}

	adapters := map[enums.PaymentProvider]providers.Adapter{
		enums.ProviderOrangeMoney: providers.NewOrangeMoney(cfg.Payment.OrangeWebhookSecret),
		enums.ProviderMTNMoney:    providers.NewMTNMoney(cfg.Payment.MTNWebhookSecret),
		enums.ProviderMoovMoney:   providers.NewMoovMoney(cfg.Payment.MoovWebhookSecret),
		enums.ProviderSimulation: providers.NewSimulation(
			cfg.Payment.SimulationWebhookSecret, cfg.Payment.SimulationDelay, settler),
	}

	paymentsService, err = payments.NewService(payments.Params{
		Config:   cfg.Payment,
		Repo:     paymentsRepo,
		Tx:       dbClient,
		Adapters: adapters,
		Orders:   ordersService,
		Replay:   redisClient,
		Logger:   logg,
		Metrics:  marketplaceMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
		"mode": cfg.Payment.Mode,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient,
			buyboxService, checkoutService, ordersService, paymentsService),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
