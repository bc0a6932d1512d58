package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"brankas/internal/backend"
	"brankas/internal/cache"
	"brankas/internal/cli"
	apphttp "brankas/internal/http"
	"brankas/internal/log"
	"brankas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)

	dashCache := cache.NewUserPeriodCache[services.Dashboard](1000, cfg.DashboardCacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(dashCache)
	cacheManager.StartCleanup(time.Minute)

	dash := services.NewDashboardService(res.Store, dashCache, logger)
	svc := apphttp.Services{
		Accounts:     services.NewAccountService(res.Store, dash, logger),
		Transactions: services.NewTransactionService(res.Store, res.Objects, dash, logger),
		Categories:   services.NewCategoryService(res.Store, dash, logger),
		Budgets:      services.NewBudgetService(res.Store, logger),
		Planning:     services.NewPlanningService(res.Store, logger),
		Profiles:     services.NewProfileService(res.Store, res.Objects, dash, logger),
		Dashboard:    dash,
	}

	opts := apphttp.Options{
		Logger:         logger,
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.RequestTimeout,
		Ready:          res.Store.Ping,
	}
	if cfg.ObjectStore == backend.LocalObjectStore {
		opts.FilesDir = cfg.ObjectStoreDir
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, opts)

	var relay *services.OutboxRelay
	if res.Publisher != nil {
		relayCfg := services.DefaultOutboxRelayConfig()
		relayCfg.PollInterval = cfg.RelayInterval
		relayCfg.BatchSize = cfg.RelayBatchSize
		relay = services.NewOutboxRelay(res.Store, res.Publisher, relayCfg, logger)
	} else {
		logger.Warn("No AMQP broker configured, transaction events stay in the outbox")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if relay != nil {
			if err := relay.Stop(shutdownCtx); err != nil {
				logger.Error("Outbox relay shutdown error", log.FieldError, err)
			}
		}
		cacheManager.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	if relay != nil {
		if err := relay.Start(ctx); err != nil {
			logger.Error("Failed to start outbox relay", log.FieldError, err)
		}
	}

	logger.Info("Starting brankas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"object_store", cfg.ObjectStore,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
