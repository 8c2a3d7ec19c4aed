package infra

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockOcupado is returned when the lock could not be obtained before the
// retry budget ran out.
var ErrLockOcupado = errors.New("lock ocupado")

// Locker hands out short-lived Redis locks keyed by name.
type Locker struct {
	client *redislock.Client
	prefix string
}

func NewLocker(rdb *redis.Client, prefix string) *Locker {
	return &Locker{client: redislock.New(rdb), prefix: prefix}
}

// Lock obtains the lock for key, retrying for up to espera. The returned func
// releases it and is safe to call once the lock has already expired.
func (l *Locker) Lock(ctx context.Context, key string, ttl, espera time.Duration) (func(), error) {
	intentos := int(espera / (50 * time.Millisecond))
	if intentos < 1 {
		intentos = 1
	}
	lock, err := l.client.Obtain(ctx, l.prefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), intentos),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockOcupado
	}
	if err != nil {
		return nil, err
	}
	return func() {
		// background context: the caller's ctx may already be cancelled
		_ = lock.Release(context.Background())
	}, nil
}
