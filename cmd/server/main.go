package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolfood/internal/config"
	"schoolfood/internal/infra"
	"schoolfood/internal/repository"
	"schoolfood/internal/router"
	"schoolfood/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notifications and purchase slips leave the request path through Redis.
	notifyCB := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: cfg.NotifyBreakerFailures,
		OpenTimeout:      time.Duration(cfg.NotifyBreakerOpenSeconds) * time.Second,
	})
	dispatcher := worker.NewDispatcher(rdb, notifyCB)
	svcs := router.NewServices(cfg, db, dispatcher, nil)

	mailer := infra.NewMailer(cfg)
	userRepo := repository.NewUserRepository(db)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.Processor{
		worker.JobNotification: worker.NewNotificationWorker(repository.NewNotificationRepository(db), userRepo, mailer),
		worker.JobPurchaseSlip: worker.NewSlipWorker(repository.NewPurchaseRequestRepository(db), userRepo, mailer, cfg.PDFStoragePath),
	})
	worker.StartHousekeepingCron(ctx, worker.HousekeepingConfig{
		Subscriptions: svcs.Subscriptions,
		Batches:       repository.NewBatchRepository(db),
		CB:            notifyCB,
		RDB:           rdb,
		Interval:      time.Duration(cfg.HousekeepingIntervalMinutes) * time.Minute,
	})

	r := router.New(cfg, db, rdb, dispatcher, svcs)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("schoolfood listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
