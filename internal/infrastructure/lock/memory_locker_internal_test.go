package lock

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func TestMemoryLocker_EliminaEntradasLibres(t *testing.T) {
	l := NewMemoryLocker(time.Second)
	for i := 0; i < 100; i++ {
		release, err := l.Acquire(context.Background(), fmt.Sprintf("product:%d", i), "po:1")
		require.NoError(t, err)
		release()
	}
	assert.Zero(t, l.size())
}

func TestMemoryLocker_EntradaViveMientrasHayEspera(t *testing.T) {
	l := NewMemoryLocker(time.Second)
	hold, err := l.Acquire(context.Background(), "product:1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		release, err := l.Acquire(context.Background(), "product:1")
		if assert.NoError(t, err) {
			release()
		}
	}()
	time.Sleep(20 * time.Millisecond)
	hold()
	wg.Wait()
	assert.Zero(t, l.size())
}

func TestMemoryLocker_FalloNoDejaEntradas(t *testing.T) {
	l := NewMemoryLocker(30 * time.Millisecond)
	hold, err := l.Acquire(context.Background(), "product:b")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "product:a", "product:b")
	assert.ErrorIs(t, err, domain.ErrBusy)
	assert.Equal(t, 1, l.size())

	hold()
	assert.Zero(t, l.size())
}
