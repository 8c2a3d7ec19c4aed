package worker

// retry_cron.go
// Background goroutine that periodically moves failed email jobs from the DLQ
// back to their queue. Uses the Circuit Breaker to avoid hammering a downed
// SMTP server: nothing is re-queued while the breaker is open.

import (
	"context"
	"encoding/json"
	"time"

	"gestormoto/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
	// MaxReintentosDLQ is how many failed runs a job gets before it is parked
	// for good under the exhausted key.
	MaxReintentosDLQ = 5
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	RDB   *redis.Client
	CB    *infra.CircuitBreaker
	Queue string
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// re-queues DLQ entries through ReencolarDLQ.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Str("queue", cfg.Queue).Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				// If CB is open, skip entirely, don't hammer a downed server
				if cfg.CB != nil && cfg.CB.Estado() == infra.CBAbierto {
					log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
					continue
				}
				if n, err := ReencolarDLQ(ctx, cfg.RDB, cfg.Queue, retryBatchSize); err != nil {
					log.Error().Err(err).Msg("retry_cron: failed to re-queue DLQ entries")
				} else if n > 0 {
					log.Info().Int("count", n).Str("queue", cfg.Queue).Msg("retry_cron: jobs re-queued")
				}
			}
		}
	}()
}

// ReencolarDLQ pops up to max entries from the DLQ of queue. Entries under
// MaxReintentosDLQ go back to queue; the rest are parked under
// DLQAgotadosPrefix+queue. It returns how many jobs were re-queued.
func ReencolarDLQ(ctx context.Context, rdb *redis.Client, queue string, max int) (int, error) {
	reencolados := 0
	for i := 0; i < max; i++ {
		raw, err := rdb.RPop(ctx, DLQPrefix+queue).Bytes()
		if err == redis.Nil {
			return reencolados, nil
		}
		if err != nil {
			return reencolados, err
		}

		var entrada EntradaDLQ
		if err := json.Unmarshal(raw, &entrada); err != nil {
			log.Error().Err(err).Msg("retry_cron: corrupt DLQ entry dropped")
			continue
		}
		if entrada.Agotada() {
			if err := rdb.LPush(ctx, DLQAgotadosPrefix+queue, raw).Err(); err != nil {
				return reencolados, err
			}
			log.Error().Str("type", entrada.Job.Type).Int("intentos", entrada.Job.Intentos).
				Msg("retry_cron: max retries exceeded, job parked")
			continue
		}
		if err := pushJob(ctx, rdb, entrada.Cola, entrada.Job); err != nil {
			return reencolados, err
		}
		reencolados++
	}
	return reencolados, nil
}
