package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"schoolfood/internal/infra"
	"schoolfood/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotifications = "jobs:notifications"
	QueuePurchaseSlips = "jobs:purchase_slips"

	JobNotification = "notification"
	JobPurchaseSlip = "purchase_slip"

	maxJobAttempts = 3

	// popRetryDelay is the pause after a BRPOP that failed for a reason
	// other than its own timeout, e.g. Redis being down.
	popRetryDelay = time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Processor handles the payload of one job type. A returned error is retried
// with backoff and, once attempts run out, moves the job to the DLQ.
type Processor interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists; the worker pool dequeues
// them via BRPOP. Enqueues go through a circuit breaker so a Redis outage
// costs callers a fast error rather than a timeout.
type Dispatcher struct {
	rdb *redis.Client
	cb  *infra.CircuitBreaker
}

var (
	_ service.Notifier  = (*Dispatcher)(nil)
	_ service.SlipQueue = (*Dispatcher)(nil)
)

func NewDispatcher(rdb *redis.Client, cb *infra.CircuitBreaker) *Dispatcher {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &Dispatcher{rdb: rdb, cb: cb}
}

// Breaker exposes the enqueue circuit breaker for health reporting.
func (d *Dispatcher) Breaker() *infra.CircuitBreaker { return d.cb }

// Notify queues one notification for persistence and e-mail delivery.
func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, title, message, category string) error {
	return d.enqueue(ctx, QueueNotifications, JobNotification, NotificationJobPayload{
		UserID:   userID.String(),
		Title:    title,
		Message:  message,
		Category: category,
	})
}

// EnqueuePurchaseSlip queues PDF generation and mailing for an approved request.
func (d *Dispatcher) EnqueuePurchaseSlip(ctx context.Context, requestID uuid.UUID) error {
	return d.enqueue(ctx, QueuePurchaseSlips, JobPurchaseSlip, SlipJobPayload{RequestID: requestID.String()})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.cb.Execute(func() error {
		return d.rdb.LPush(ctx, queue, encoded).Err()
	})
}

// StartWorkerPool launches numWorkers goroutines consuming every queue that
// has a processor. Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, processors map[string]Processor) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, processors)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func queueFor(jobType string) string {
	switch jobType {
	case JobNotification:
		return QueueNotifications
	case JobPurchaseSlip:
		return QueuePurchaseSlips
	}
	return ""
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, processors map[string]Processor) {
	queues := make([]string, 0, len(processors))
	for jobType := range processors {
		if q := queueFor(jobType); q != "" {
			queues = append(queues, q)
		}
	}
	if len(queues) == 0 {
		return
	}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if wait := popBackoff(ctx, err); wait > 0 {
					log.Warn().Err(err).Int("worker", id).Msg("worker: queue pop failed")
					select {
					case <-ctx.Done():
					case <-time.After(wait):
					}
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, processors, result[0], result[1])
		}
	}
}

// popBackoff returns how long to wait before the next BRPOP. An empty
// queue (redis.Nil) or shutdown retries immediately.
func popBackoff(ctx context.Context, err error) time.Duration {
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return 0
	}
	return popRetryDelay
}

func processJob(ctx context.Context, rdb *redis.Client, processors map[string]Processor, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	p, ok := processors[job.Type]
	if !ok {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "no processor for job type", 0)
		return
	}

	attempts := 0
	err := withRetry(ctx, maxJobAttempts, func(attempt int) error {
		attempts = attempt + 1
		return p.Process(ctx, job.Payload)
	})
	if err != nil {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload,
			fmt.Sprintf("failed after %d attempt(s): %v", attempts, err), attempts)
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
}

// withRetry calls fn up to maxAttempts times, waiting 1s, 2s, … in between.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
