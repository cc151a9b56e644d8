package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"revenue-settlement-engine/config"
	"revenue-settlement-engine/internal/adapter/chain"
	httpHandler "revenue-settlement-engine/internal/adapter/http/handler"
	"revenue-settlement-engine/internal/adapter/rates"
	pgStorage "revenue-settlement-engine/internal/adapter/storage/postgres"
	redisStorage "revenue-settlement-engine/internal/adapter/storage/redis"
	"revenue-settlement-engine/internal/core/ports"
	"revenue-settlement-engine/internal/service"
	"revenue-settlement-engine/pkg/logger"
	"revenue-settlement-engine/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("network", cfg.Chain.Network).
		Msg("starting revenue settlement engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Redis
	redisClient, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Repositories
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	settlementRepo := pgStorage.NewSettlementRepo(pool)
	sagaRepo := pgStorage.NewSagaRepo(pool)

	// Key encryption
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Passphrase, cfg.AES.Salt)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryption service")
	}

	// Chain adapters
	keyGen := chain.NewKeyGen(cfg.Chain)
	watcher := chain.NewWatcherClient(cfg.Chain, log)

	// Exchange rates: cached read-through over the upstream source
	rateSource := rates.NewHTTPSource(cfg.Rates.SourceURL, cfg.Rates.Pivot)
	rateCache := redisStorage.NewRateCache(redisClient)
	rateProvider := rates.NewCachedProvider(rateSource, rateCache, cfg.Rates.RefreshWindow, log)

	// Services
	ledgerSvc := service.NewUnitLedgerService(ledgerRepo, sagaRepo, m, log)
	walletSvc := service.NewWalletProvisionerService(
		walletRepo, keyGen, encSvc, watcher, ledgerSvc,
		cfg.Chain.MinConfirmations, m, log,
	)
	settlementSvc := service.NewSettlementOrchestratorService(
		ledgerSvc, rateProvider, settlementRepo, m, log,
	)

	// HTTP router
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		WalletSvc:      walletSvc,
		SettlementSvc:  settlementSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(redisClient),
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(redisClient),
		},
		MetricsReg: reg,
		Logger:     log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
