package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/nexus-cards-backend/internal/cart"
	"github.com/angelmondragon/nexus-cards-backend/internal/catalog"
	"github.com/angelmondragon/nexus-cards-backend/internal/cron"
	"github.com/angelmondragon/nexus-cards-backend/internal/inventory"
	"github.com/angelmondragon/nexus-cards-backend/pkg/config"
	"github.com/angelmondragon/nexus-cards-backend/pkg/db"
	"github.com/angelmondragon/nexus-cards-backend/pkg/logger"
	"github.com/angelmondragon/nexus-cards-backend/pkg/metrics"
	"github.com/angelmondragon/nexus-cards-backend/pkg/migrate"
	"github.com/angelmondragon/nexus-cards-backend/pkg/outbox"
	"github.com/angelmondragon/nexus-cards-backend/pkg/redis"
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

	sweepers, err := buildSweepers(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build sweepers", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	group, groupCtx := errgroup.WithContext(ctx)
	for _, sweeper := range sweepers {
		group.Go(func() error { return sweeper.Run(groupCtx) })
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildSweepers returns the coarse loop (cart sweep, outbox retention) and the
// fine loop (reservation sweep). Each holds its own Redis lock.
func buildSweepers(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) ([]*cron.Service, error) {
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
		return nil, err
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), dbClient, ledger)
	if err != nil {
		return nil, err
	}
	cartRepo := cart.NewRepository(conn)
	carts, err := cart.NewService(cart.ServiceParams{
		Repo:           cartRepo,
		Tx:             dbClient,
		Ledger:         ledger,
		Catalog:        catalogSvc,
		Logger:         logg,
		ReservationTTL: cfg.Reservation.ReservationTTL(),
		CartTTL:        cfg.Reservation.CartTTL(),
	})
	if err != nil {
		return nil, err
	}

	cartSweep, err := cron.NewCartSweepJob(cron.CartSweepJobParams{
		Logger:    logg,
		DB:        dbClient,
		Reader:    cartRepo,
		Carts:     carts,
		BatchSize: cfg.Reservation.SweepBatchSize,
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(conn),
		RetentionDays: cfg.Outbox.RetentionDays,
	})
	if err != nil {
		return nil, err
	}
	reservationSweep, err := cron.NewReservationSweepJob(cron.ReservationSweepJobParams{
		Logger:       logg,
		DB:           dbClient,
		Reader:       cartRepo,
		Reservations: carts,
		Outbox:       outboxSvc,
		BatchSize:    cfg.Reservation.SweepBatchSize,
	})
	if err != nil {
		return nil, err
	}

	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	coarse, err := newLoop(logg, redisClient, jobMetrics, cfg.App.Env, "cart-sweeper", cfg.Reservation.CartSweepInterval, cartSweep, retention)
	if err != nil {
		return nil, err
	}
	fine, err := newLoop(logg, redisClient, jobMetrics, cfg.App.Env, "reservation-sweeper", cfg.Reservation.ReservationSweepInterval, reservationSweep)
	if err != nil {
		return nil, err
	}
	return []*cron.Service{coarse, fine}, nil
}

func newLoop(logg *logger.Logger, redisClient *redis.Client, jobMetrics *metrics.CronJobMetrics, env, name string, interval time.Duration, jobs ...cron.Job) (*cron.Service, error) {
	if env == "" {
		env = "local"
	}
	// a crashed replica frees the key by the next tick
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(fmt.Sprintf("%s:%s", env, name)), interval)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Name:     name,
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: interval,
	})
}
