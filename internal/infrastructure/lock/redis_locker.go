package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ inventory.Locker = (*RedisLocker)(nil)

const (
	defaultLockTTL   = 30 * time.Second
	retryBackoff     = 50 * time.Millisecond
	redisLockKeyBase = "stock-ledger:lock:"
)

// RedisLocker bloqueos distribuidos con bsm/redislock: varias instancias del servicio comparten
// la misma serialización por producto y por orden de compra.
type RedisLocker struct {
	client *redislock.Client
	wait   time.Duration
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisLocker construye el locker sobre un cliente go-redis.
// ttl debe superar la duración de la transacción más larga (0 = 30s).
func NewRedisLocker(rdb redis.UniversalClient, wait, ttl time.Duration, log *logger.Logger) *RedisLocker {
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: redislock.New(rdb), wait: wait, ttl: ttl, log: log}
}

// Acquire toma las claves en orden reintentando con backoff lineal hasta agotar la espera.
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	held := make([]*redislock.Lock, 0, len(keys))
	releaseAll := func() {
		// Liberar con un contexto propio: el de la petición puede estar cancelado
		relCtx, relCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer relCancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(relCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.log.Warn().Err(err).Str("key", held[i].Key()).Msg("no se pudo liberar el bloqueo en redis")
			}
		}
	}
	for _, key := range keys {
		lk, err := l.client.Obtain(waitCtx, redisLockKeyBase+key, l.ttl, &redislock.Options{
			RetryStrategy: redislock.LinearBackoff(retryBackoff),
		})
		if err != nil {
			releaseAll()
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
				return nil, busyOr(ctx, key, context.DeadlineExceeded)
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		held = append(held, lk)
	}
	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}
