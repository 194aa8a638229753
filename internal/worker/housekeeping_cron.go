package worker

// housekeeping_cron.go
// Hourly background pass: deactivates subscriptions past their end date,
// reports expired batches that still hold portions (kept for audit, never
// deleted), DLQ depth and the notification breaker state.

import (
	"context"
	"time"

	"schoolfood/internal/infra"
	"schoolfood/internal/repository"
	"schoolfood/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultHousekeepingInterval = time.Hour

type HousekeepingConfig struct {
	Subscriptions service.SubscriptionService
	Batches       repository.BatchRepository
	CB            *infra.CircuitBreaker
	RDB           *redis.Client
	Interval      time.Duration
	Clock         service.Clock
}

// StartHousekeepingCron runs one pass immediately, then every Interval until
// ctx is cancelled.
func StartHousekeepingCron(ctx context.Context, cfg HousekeepingConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultHousekeepingInterval
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("housekeeping: started")
		runHousekeeping(ctx, cfg)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("housekeeping: shutting down")
				return
			case <-ticker.C:
				runHousekeeping(ctx, cfg)
			}
		}
	}()
}

func runHousekeeping(ctx context.Context, cfg HousekeepingConfig) {
	if cfg.Subscriptions != nil {
		n, err := cfg.Subscriptions.ExpireStale(ctx)
		if err != nil {
			log.Error().Err(err).Msg("housekeeping: expiring subscriptions failed")
		} else if n > 0 {
			log.Info().Int64("count", n).Msg("housekeeping: subscriptions expired")
		}
	}

	if cfg.Batches != nil {
		today := service.DateOf(time.Now())
		if cfg.Clock != nil {
			today = service.DateOf(cfg.Clock())
		}
		n, err := cfg.Batches.CountExpiredNonEmpty(ctx, today)
		if err != nil {
			log.Error().Err(err).Msg("housekeeping: counting expired batches failed")
		} else if n > 0 {
			log.Warn().Int64("batches", n).Msg("housekeeping: expired batches still hold portions")
		}
	}

	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Warn().Msg("housekeeping: notification breaker is open")
	}

	if cfg.RDB != nil {
		for _, q := range []string{QueueNotifications, QueuePurchaseSlips} {
			n, err := DLQLength(ctx, cfg.RDB, q)
			if err == nil && n > 0 {
				log.Warn().Str("queue", q).Int64("entries", n).Msg("housekeeping: dead letters pending")
			}
		}
	}
}
