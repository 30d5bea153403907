package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gaslinkhq/gaslink-backend/api/routes"
	"github.com/gaslinkhq/gaslink-backend/internal/agencies"
	checkoutsvc "github.com/gaslinkhq/gaslink-backend/internal/checkout"
	couponsvc "github.com/gaslinkhq/gaslink-backend/internal/coupons"
	deliverysvc "github.com/gaslinkhq/gaslink-backend/internal/delivery"
	inventorysvc "github.com/gaslinkhq/gaslink-backend/internal/inventory"
	ordersvc "github.com/gaslinkhq/gaslink-backend/internal/orders"
	pricingsvc "github.com/gaslinkhq/gaslink-backend/internal/pricing"
	"github.com/gaslinkhq/gaslink-backend/pkg/config"
	"github.com/gaslinkhq/gaslink-backend/pkg/db"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
	"github.com/gaslinkhq/gaslink-backend/pkg/maps"
	"github.com/gaslinkhq/gaslink-backend/pkg/metrics"
	"github.com/gaslinkhq/gaslink-backend/pkg/migrate"
	"github.com/gaslinkhq/gaslink-backend/pkg/outbox"
	"github.com/gaslinkhq/gaslink-backend/pkg/redis"
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

	mapsClient, err := maps.NewClient(cfg.Maps.APIKey,
		maps.WithBaseURL(cfg.Maps.BaseURL),
		maps.WithTimeout(cfg.Maps.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap maps client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	gormDB := dbClient.DB()
	agencyRepo := agencies.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	inventoryService, err := inventorysvc.NewService(inventorysvc.NewRepository(gormDB), outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	pricingService, err := pricingsvc.NewService(pricingsvc.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	couponService, err := couponsvc.NewService(couponsvc.NewRepository(gormDB), outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	deliveryService, err := deliverysvc.NewService(
		deliverysvc.NewRepository(gormDB),
		mapsClient,
		redisClient,
		cfg.Delivery.QuoteCacheTTL,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery service", err)
		os.Exit(1)
	}

	ordersRepo := ordersvc.NewRepository(gormDB)
	ordersService, err := ordersvc.NewService(ordersRepo, dbClient, outboxService, inventoryService, agencyRepo, engineMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		dbClient,
		ordersRepo,
		agencyRepo,
		pricingService,
		couponService,
		deliveryService,
		inventoryService,
		outboxService,
		engineMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			checkoutService,
			ordersService,
			couponService,
			deliveryService,
			agencyRepo,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
