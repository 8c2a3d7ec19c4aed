package infra_test

import (
	"context"
	"testing"
	"time"

	"gestormoto/internal/infra"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

type item struct {
	Codigo string `json:"codigo"`
	Stock  int    `json:"stock"`
}

func TestCacheGetSetJSON(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := infra.NewCache(rdb, "test:")
	ctx := context.Background()

	var got item
	hit, err := cache.GetJSON(ctx, "P-1", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.SetJSON(ctx, "P-1", item{Codigo: "P-1", Stock: 4}, time.Minute))
	assert.True(t, mr.Exists("test:P-1"))

	hit, err = cache.GetJSON(ctx, "P-1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, got.Stock)

	mr.FastForward(2 * time.Minute)
	hit, _ = cache.GetJSON(ctx, "P-1", &got)
	assert.False(t, hit)
}

func TestCacheDelete(t *testing.T) {
	_, rdb := newTestRedis(t)
	cache := infra.NewCache(rdb, "test:")
	ctx := context.Background()
	require.NoError(t, cache.SetJSON(ctx, "a", 1, 0))

	require.NoError(t, cache.Delete(ctx, "a"))

	var n int
	hit, err := cache.GetJSON(ctx, "a", &n)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheNilNuncaAcierta(t *testing.T) {
	var cache *infra.Cache
	var v item
	hit, err := cache.GetJSON(context.Background(), "x", &v)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.SetJSON(context.Background(), "x", v, time.Second))
}

func TestLockerExcluyeSegundoTitular(t *testing.T) {
	_, rdb := newTestRedis(t)
	locker := infra.NewLocker(rdb, "lock:")
	ctx := context.Background()

	liberar, err := locker.Lock(ctx, "caja:2024-03-01", time.Second, 0)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "caja:2024-03-01", time.Second, 0)
	assert.ErrorIs(t, err, infra.ErrLockOcupado)

	// other dates are independent
	otro, err := locker.Lock(ctx, "caja:2024-03-02", time.Second, 0)
	require.NoError(t, err)
	otro()

	liberar()
	again, err := locker.Lock(ctx, "caja:2024-03-01", time.Second, 0)
	require.NoError(t, err)
	again()
}
