package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/warungdev/lokapos/api/routes"
	backupsvc "github.com/warungdev/lokapos/internal/backup"
	"github.com/warungdev/lokapos/internal/cart"
	"github.com/warungdev/lokapos/internal/catalog"
	checkoutsvc "github.com/warungdev/lokapos/internal/checkout"
	feesvc "github.com/warungdev/lokapos/internal/fees"
	"github.com/warungdev/lokapos/internal/outbox"
	"github.com/warungdev/lokapos/internal/reports"
	"github.com/warungdev/lokapos/internal/sales"
	"github.com/warungdev/lokapos/internal/settings"
	"github.com/warungdev/lokapos/internal/syncer"
	"github.com/warungdev/lokapos/internal/syncer/remote"
	"github.com/warungdev/lokapos/pkg/config"
	"github.com/warungdev/lokapos/pkg/db"
	"github.com/warungdev/lokapos/pkg/logger"
	"github.com/warungdev/lokapos/pkg/metrics"
	"github.com/warungdev/lokapos/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pos"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pos",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to open local store", err)
		os.Exit(1)
	}

	if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run schema migrations", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	syncMetrics := metrics.NewSyncMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	var remoteClient remote.Client
	if cfg.Sync.BaseURL != "" {
		remoteClient, err = remote.NewHTTPClient(cfg.Sync.BaseURL, cfg.Sync.RequestTimeout)
		if err != nil {
			logg.Error(ctx, "failed to build sync client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "no sync base URL configured, running fully offline")
		offline := remote.NewMemory()
		offline.SetOnline(false)
		remoteClient = offline
	}

	settingsService := settings.NewService(settings.NewRepository(dbClient.DB()), cfg.POS)

	var outboxService *outbox.Service
	monitor := syncer.NewMonitor(remoteClient, logg, cfg.Sync.PingInterval, func(ctx context.Context) {
		if outboxService != nil {
			outboxService.Kick(ctx)
		}
	})
	outboxService = outbox.NewService(
		dbClient,
		outbox.NewRepository(dbClient.DB()),
		remoteClient,
		monitor.Online,
		logg,
		syncMetrics,
	)

	reconciler := syncer.NewReconciler(dbClient, remoteClient, settingsService, logg)

	syncService := syncer.NewService(outboxService, reconciler, settingsService, monitor, logg, syncMetrics)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, dbClient, outboxService, settingsService)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	feeService, err := feesvc.NewService(feesvc.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		logg.Error(ctx, "failed to create fee service", err)
		os.Exit(1)
	}

	salesRepo := sales.NewRepository(dbClient.DB())
	salesService, err := sales.NewService(salesRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(ctx, "failed to create sales service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(salesRepo, dbClient, outboxService, checkoutMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	backupService, err := backupsvc.NewService(dbClient, logg, cfg.Backup)
	if err != nil {
		logg.Error(ctx, "failed to create backup service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(salesRepo)
	if err != nil {
		logg.Error(ctx, "failed to create reports service", err)
		os.Exit(1)
	}

	cartSession := cart.NewSession(catalogService, feeService)

	runner := syncer.NewRunner(syncService, monitor, logg, cfg.Sync.PollInterval, cfg.Sync.MaxBackoff)
	go func() {
		if err := monitor.Run(ctx); err != nil && ctx.Err() == nil {
			logg.Error(ctx, "connectivity monitor stopped", err)
		}
	}()
	go func() {
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			logg.Error(ctx, "sync runner stopped", err)
		}
	}()
	go func() {
		if err := backupService.RunAutoLoop(ctx); err != nil && ctx.Err() == nil {
			logg.Error(ctx, "auto backup loop stopped", err)
		}
	}()

	addr := ":" + cfg.App.Port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting pos server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			registry,
			catalogService,
			feeService,
			cartSession,
			checkoutService,
			salesService,
			syncService,
			settingsService,
			backupService,
			reportsService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(startCtx, "pos server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(startCtx, "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(startCtx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(startCtx, "shutdown complete")
}
