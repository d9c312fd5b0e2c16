// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"qr-redirect/internal/config"
	"qr-redirect/internal/domain/ports/repository"
	"qr-redirect/internal/infra/api"
	pg "qr-redirect/internal/infra/db/postgres"
	"qr-redirect/internal/infra/logging"
	"qr-redirect/internal/infra/metrics"
	red "qr-redirect/internal/infra/redis"
	"qr-redirect/internal/infra/sched"
	"qr-redirect/internal/infra/worker"
	"qr-redirect/internal/usecase"

	"github.com/joho/godotenv"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted IPs, optional jwt secret)")
	flag.Parse()

	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Repositories ----
	var codeRepo repository.CodeRepository = pg.NewCodeRepo(pool)
	scanRepo := pg.NewScanRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Redis (optional) ----
	var limiter api.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		codeRepo = pg.NewCodeRepoCacheDecorator(codeRepo, redisClient, cfg.Redis.TTL, logger)
		limiter = red.NewRateLimiter(redisClient)
		logger.Info().Str("addr", cfg.Redis.URL).Msg("redis cache and scan rate limiter enabled")
	} else {
		logger.Info().Msg("redis not configured; cache and rate limiting disabled")
	}

	// ---- Background workers ----
	// scans queued before shutdown still get written, so the pool outlives the signal context
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()
	workers := worker.NewPool(cfg.Worker.Workers, cfg.Worker.QueueSize, logger)
	workers.Start(workCtx)

	statsWorker := sched.NewPoolStatsWorker(cfg.Metrics.PoolStatsInterval, sched.PgxPool(pool), logger)
	go func() { _ = statsWorker.Run(ctx) }()

	// ---- Use cases ----
	resolverUC := usecase.NewResolverUseCase(codeRepo, cfg.Redirect.ResolveRetries, cfg.Redirect.RetryInterval, logger)
	recorderUC := usecase.NewRecorderUseCase(scanRepo, logger, cfg.Runtime.Dev)
	redirectUC := usecase.NewRedirectUseCase(resolverUC, recorderUC, workers, usecase.RedirectOptions{
		PublicBaseURL: cfg.HTTP.PublicBaseURL,
		Countdown:     cfg.Redirect.Countdown,
		RecordTimeout: cfg.Redirect.RecordTimeout,
	}, logger)
	codeUC := usecase.NewCodeUseCase(codeRepo, scanRepo, txm, logger)

	// ---- HTTP ----
	proxies, err := api.ParseTrustedProxies(cfg.HTTP.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("http.trusted_proxies")
	}
	srv := api.NewServer(
		redirectUC, resolverUC, recorderUC, codeUC,
		api.NewAuthenticator(cfg.Auth.JWTSecret),
		limiter,
		api.Options{
			RequestTimeout: cfg.HTTP.RequestTimeout,
			ScanRateLimit:  cfg.Scans.RateLimit,
			ScanRateWindow: cfg.Scans.RateWindow,
			TrustedProxies: proxies,
		},
		logger,
	)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("public_base_url", cfg.HTTP.PublicBaseURL).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if err := workers.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("worker pool did not drain")
		cancelWork()
	}
	logger.Info().Msg("bye")
}
