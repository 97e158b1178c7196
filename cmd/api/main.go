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

	"github.com/angelmondragon/showrunner-backend/api/routes"
	"github.com/angelmondragon/showrunner-backend/internal/breaks"
	"github.com/angelmondragon/showrunner-backend/internal/expenses"
	"github.com/angelmondragon/showrunner-backend/internal/fees"
	"github.com/angelmondragon/showrunner-backend/internal/insights"
	"github.com/angelmondragon/showrunner-backend/internal/inventory"
	"github.com/angelmondragon/showrunner-backend/internal/reconciliation"
	"github.com/angelmondragon/showrunner-backend/internal/sales"
	"github.com/angelmondragon/showrunner-backend/internal/sessions"
	"github.com/angelmondragon/showrunner-backend/pkg/config"
	"github.com/angelmondragon/showrunner-backend/pkg/db"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
	"github.com/angelmondragon/showrunner-backend/pkg/metrics"
	"github.com/angelmondragon/showrunner-backend/pkg/migrate"
	"github.com/angelmondragon/showrunner-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Console:     cfg.App.IsDev(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	calcMetrics := metrics.NewCalculatorMetrics(registry)
	reconMetrics := metrics.NewReconciliationMetrics(registry)

	conn := dbClient.DB()
	sessionRepo := sessions.NewRepository(conn)
	inventoryRepo := inventory.NewRepository(conn)
	salesRepo := sales.NewRepository(conn)
	expenseRepo := expenses.NewRepository(conn)
	breakRepo := breaks.NewRepository(conn)

	sessionSvc, err := sessions.NewService(sessions.Deps{
		Sessions: sessionRepo,
		Items:    inventoryRepo,
		Breaks:   breakRepo,
		Expenses: expenseRepo,
		Metrics:  calcMetrics,
		Logger:   logg,
	})
	requireService(ctx, logg, "sessions", err)

	inventorySvc, err := inventory.NewService(inventoryRepo)
	requireService(ctx, logg, "inventory", err)

	insightsSvc, err := insights.NewService(insights.Deps{
		Sessions:       sessionRepo,
		Sales:          salesRepo,
		Expenses:       expenseRepo,
		Items:          inventoryRepo,
		Metrics:        calcMetrics,
		Logger:         logg,
		DefaultMinSize: cfg.Insights.DefaultMinSampleSize,
	})
	requireService(ctx, logg, "insights", err)

	applier, err := reconciliation.NewApplier(reconciliation.ApplierConfig{
		Tx:      dbClient,
		Bind:    reconciliation.GormBinder(salesRepo, inventoryRepo, sessionRepo),
		Locker:  redisClient,
		LockTTL: cfg.Reconciliation.LockTTL,
		Metrics: reconMetrics,
		Logger:  logg,
	})
	requireService(ctx, logg, "reconciliation applier", err)

	feeRepo := fees.NewRepository(conn)
	reconSvc, err := reconciliation.NewService(reconciliation.ServiceDeps{
		Sessions:      sessionRepo,
		Applier:       applier,
		Schedules:     feeRepo,
		Metrics:       reconMetrics,
		Logger:        logg,
		AutoThreshold: cfg.Reconciliation.AutoModeThreshold,
	})
	requireService(ctx, logg, "reconciliation", err)

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:             dbClient,
		Redis:          redisClient,
		Idempotency:    redisClient,
		Gatherer:       registry,
		Calculators:    calcMetrics,
		Schedules:      feeRepo,
		Sessions:       sessionSvc,
		Inventory:      inventorySvc,
		Reconciliation: reconSvc,
		Insights:       insightsSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(serverCtx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to create "+name+" service", err)
	os.Exit(1)
}
