package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/partsdealer-backend/api/controllers"
	"github.com/angelmondragon/partsdealer-backend/api/routes"
	"github.com/angelmondragon/partsdealer-backend/internal/cart"
	"github.com/angelmondragon/partsdealer-backend/internal/inventory"
	"github.com/angelmondragon/partsdealer-backend/internal/orders"
	"github.com/angelmondragon/partsdealer-backend/internal/payments"
	"github.com/angelmondragon/partsdealer-backend/internal/products"
	"github.com/angelmondragon/partsdealer-backend/internal/reputation"
	"github.com/angelmondragon/partsdealer-backend/pkg/config"
	"github.com/angelmondragon/partsdealer-backend/pkg/db"
	"github.com/angelmondragon/partsdealer-backend/pkg/gateway"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
	"github.com/angelmondragon/partsdealer-backend/pkg/metrics"
	"github.com/angelmondragon/partsdealer-backend/pkg/migrate"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox"
	"github.com/angelmondragon/partsdealer-backend/pkg/pricing"
	"github.com/angelmondragon/partsdealer-backend/pkg/redis"
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
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	payGateway, err := gateway.New(ctx, cfg, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	marketplaceMetrics := metrics.NewMarketplace(registry)

	gdb := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)
	productRepo := products.NewRepository(gdb)

	cartService, err := cart.NewService(cart.NewRepository(gdb), productRepo, dbClient)
	if err != nil {
		return err
	}
	inventoryService, err := inventory.NewService(productRepo)
	if err != nil {
		return err
	}
	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:              payments.NewRepository(gdb),
		Gateway:           payGateway,
		Outbox:            emitter,
		TransactionRunner: dbClient,
		Locker:            redisClient,
		Metrics:           marketplaceMetrics,
		Logger:            logg,
		Timeout:           cfg.Payment.Timeout,
	})
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:              orders.NewRepository(gdb),
		Cart:              cartService,
		Inventory:         inventoryService,
		Payments:          paymentService,
		Pricing:           pricing.NewCalculator(cfg.Pricing),
		Outbox:            emitter,
		TransactionRunner: dbClient,
		Metrics:           marketplaceMetrics,
		Logger:            logg,
	})
	if err != nil {
		return err
	}
	reputationService, err := reputation.NewService(reputation.NewRepository(gdb), dbClient, emitter, logg)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			Idempotency: redisClient,
			Gatherer:    registry,
			Readiness: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Cart:       cartService,
			Orders:     orderService,
			Payments:   paymentService,
			Reputation: reputationService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithField(ctx, "addr", addr)
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
