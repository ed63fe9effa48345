package lock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
)

func TestMemoryLocker_ExclusionMutua(t *testing.T) {
	l := lock.NewMemoryLocker(2 * time.Second)
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "product:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestMemoryLocker_EsperaVencidaDevuelveBusy(t *testing.T) {
	l := lock.NewMemoryLocker(30 * time.Millisecond)
	release, err := l.Acquire(context.Background(), "product:1")
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire(context.Background(), "product:1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBusy)
	var busy *domain.BusyError
	require.True(t, errors.As(err, &busy))
	assert.Equal(t, "product:1", busy.Resource)
}

// Si falla una clave intermedia, las ya tomadas se liberan.
func TestMemoryLocker_LiberaParcialesAlFallar(t *testing.T) {
	l := lock.NewMemoryLocker(30 * time.Millisecond)
	holdB, err := l.Acquire(context.Background(), "product:b")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "product:a", "product:b")
	assert.ErrorIs(t, err, domain.ErrBusy)
	holdB()

	release, err := l.Acquire(context.Background(), "product:a")
	require.NoError(t, err, "product:a debió quedar libre")
	release()
}

func TestMemoryLocker_ReleaseIdempotente(t *testing.T) {
	l := lock.NewMemoryLocker(time.Second)
	release, err := l.Acquire(context.Background(), "po:1", "product:1")
	require.NoError(t, err)
	release()
	release()

	again, err := l.Acquire(context.Background(), "po:1", "product:1")
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_ContextoCancelado(t *testing.T) {
	l := lock.NewMemoryLocker(time.Second)
	hold, err := l.Acquire(context.Background(), "product:1")
	require.NoError(t, err)
	defer hold()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "product:1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrBusy)
}
