package lock_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Requiere un Redis real: REDIS_TEST_ADDR=localhost:6379 go test ./internal/infrastructure/lock/
func newRedisLocker(t *testing.T, wait time.Duration) *lock.RedisLocker {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR no definido")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return lock.NewRedisLocker(rdb, wait, 5*time.Second, logger.Nop())
}

func TestRedisLocker_OcupadoYLiberado(t *testing.T) {
	l := newRedisLocker(t, 200*time.Millisecond)
	key := "product:" + uuid.NewString()

	release, err := l.Acquire(context.Background(), key)
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), key)
	var busy *domain.BusyError
	require.ErrorAs(t, err, &busy)

	release()
	release()

	again, err := l.Acquire(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_LiberaParcialesAlFallar(t *testing.T) {
	l := newRedisLocker(t, 200*time.Millisecond)
	a, b := "product:"+uuid.NewString(), "product:"+uuid.NewString()

	holdB, err := l.Acquire(context.Background(), b)
	require.NoError(t, err)
	defer holdB()

	_, err = l.Acquire(context.Background(), a, b)
	assert.ErrorIs(t, err, domain.ErrBusy)

	// a quedó libre tras el fallo
	releaseA, err := l.Acquire(context.Background(), a)
	require.NoError(t, err)
	releaseA()
}
