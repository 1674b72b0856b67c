package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/nexus-cards-backend/api/controllers"
	"github.com/angelmondragon/nexus-cards-backend/api/routes"
	"github.com/angelmondragon/nexus-cards-backend/internal/cart"
	"github.com/angelmondragon/nexus-cards-backend/internal/catalog"
	"github.com/angelmondragon/nexus-cards-backend/internal/checkout"
	"github.com/angelmondragon/nexus-cards-backend/internal/inventory"
	"github.com/angelmondragon/nexus-cards-backend/internal/orders"
	"github.com/angelmondragon/nexus-cards-backend/internal/payments"
	"github.com/angelmondragon/nexus-cards-backend/pkg/config"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
	"github.com/angelmondragon/nexus-cards-backend/pkg/metrics"
	"github.com/angelmondragon/nexus-cards-backend/pkg/migrate"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox"
	"github.com/angelmondragon/nexus-cards-backend/pkg/redis"
)

const webhookGuardScope = "payments-webhook"

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

	params, err := buildRouterParams(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(params),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}

func buildRouterParams(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Params, error) {
	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	ledger, err := inventory.NewService(inventory.ServiceParams{
		Repo:             inventory.NewRepository(conn),
		Logger:           logg,
		Outbox:           outboxSvc,
		Metrics:          metrics.NewLedgerMetrics(prometheus.DefaultRegisterer),
		DefaultThreshold: cfg.Reservation.LowStockThreshold,
	})
	if err != nil {
		return routes.Params{}, err
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), dbClient, ledger)
	if err != nil {
		return routes.Params{}, err
	}
	carts, err := cart.NewService(cart.ServiceParams{
		Repo:           cart.NewRepository(conn),
		Tx:             dbClient,
		Ledger:         ledger,
		Catalog:        catalogSvc,
		Logger:         logg,
		ReservationTTL: cfg.Reservation.ReservationTTL(),
		CartTTL:        cfg.Reservation.CartTTL(),
	})
	if err != nil {
		return routes.Params{}, err
	}

	ordersRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(ordersRepo)
	if err != nil {
		return routes.Params{}, err
	}

	provider, err := payments.NewProvider(cfg.Payments.Provider, payments.StubOptions{WebhookSecret: cfg.Payments.WebhookSecret})
	if err != nil {
		return routes.Params{}, err
	}
	paymentsRepo := payments.NewRepository(conn)
	paymentsSvc, err := payments.NewService(payments.ServiceParams{
		Repo:     paymentsRepo,
		Orders:   ordersRepo,
		Tx:       dbClient,
		Provider: provider,
		Outbox:   outboxSvc,
		Logger:   logg,
	})
	if err != nil {
		return routes.Params{}, err
	}
	guard, err := payments.NewWebhookGuard(redisClient, cfg.Payments.WebhookDedupTTL, webhookGuardScope)
	if err != nil {
		return routes.Params{}, err
	}

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Tx:           dbClient,
		Carts:        carts,
		Ledger:       ledger,
		Orders:       ordersRepo,
		Payments:     paymentsRepo,
		Provider:     provider,
		Outbox:       outboxSvc,
		Logger:       logg,
		Metrics:      metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		ReplayWindow: cfg.Checkout.ReplayWindow,
	})
	if err != nil {
		return routes.Params{}, err
	}

	return routes.Params{
		Config:   cfg,
		Logger:   logg,
		DB:       controllers.ReadinessCheck{Name: "db", Dep: dbClient},
		Redis:    redisClient,
		Metrics:  promhttp.Handler(),
		Cart:     carts,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
		Ledger:   ledger,
		Catalog:  catalogSvc,
		Payments: paymentsSvc,
		Webhooks: guard,
	}, nil
}
