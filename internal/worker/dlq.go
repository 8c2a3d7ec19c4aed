package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Failed jobs are kept in dlq:{queue} until the retry cron moves them back;
// after MaxReintentosDLQ failed runs they are parked in dlq:agotados:{queue}
// and left for an operator.
const (
	DLQPrefix         = "dlq:"
	DLQAgotadosPrefix = "dlq:agotados:"
)

// EntradaDLQ is a failed job plus why and when it failed.
type EntradaDLQ struct {
	Cola    string    `json:"cola"`
	Job     Job       `json:"job"`
	Causa   string    `json:"causa"`
	FalloEn time.Time `json:"fallo_en"`
}

// Agotada reports whether the job used up its DLQ round-trips.
func (e EntradaDLQ) Agotada() bool { return e.Job.Intentos >= MaxReintentosDLQ }

// enviarADLQ stores job as failed on queue, counting this run as one more attempt.
func enviarADLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, causa error) {
	job.Intentos++
	entrada := EntradaDLQ{Cola: queue, Job: job, Causa: causa.Error(), FalloEn: time.Now().UTC()}
	data, err := json.Marshal(entrada)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: entry not encodable, job lost")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("type", job.Type).Msg("dlq: push failed, job lost")
		return
	}
	log.Warn().Str("queue", queue).Str("type", job.Type).Int("intentos", job.Intentos).
		Str("causa", entrada.Causa).Msg("dlq: job failed")
}

// ListarDLQ returns up to n pending entries of queue, oldest first.
func ListarDLQ(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]EntradaDLQ, error) {
	raws, err := rdb.LRange(ctx, DLQPrefix+queue, -n, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]EntradaDLQ, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		var e EntradaDLQ
		if json.Unmarshal([]byte(raws[i]), &e) == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

func DLQAgotadosLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQAgotadosPrefix+queue).Result()
}
