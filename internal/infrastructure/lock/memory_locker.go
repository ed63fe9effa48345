// Package lock implementa el puerto inventory.Locker: bloqueos por clave con espera acotada,
// en proceso (semáforos) o distribuidos (Redis).
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

var _ inventory.Locker = (*MemoryLocker)(nil)

// DefaultWaitTimeout espera máxima por un bloqueo si no se configura otra.
const DefaultWaitTimeout = 3 * time.Second

// MemoryLocker un semáforo de peso 1 por clave. Válido para una sola instancia del servicio.
// Cada entrada cuenta sus usuarios (dueño + en espera) y se elimina al quedar libre.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
	wait    time.Duration
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// NewMemoryLocker construye el locker con la espera máxima indicada (0 = DefaultWaitTimeout).
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}
	return &MemoryLocker{entries: make(map[string]*lockEntry), wait: wait}
}

func (l *MemoryLocker) ref(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok {
		e.refs--
		if e.refs <= 0 {
			delete(l.entries, key)
		}
	}
}

// Acquire toma las claves en el orden recibido. Si alguna no se obtiene dentro de la espera
// libera las ya tomadas y devuelve *domain.BusyError.
func (l *MemoryLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	type heldKey struct {
		key   string
		entry *lockEntry
	}
	held := make([]heldKey, 0, len(keys))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].entry.sem.Release(1)
			l.unref(held[i].key)
		}
	}
	for _, key := range keys {
		e := l.ref(key)
		if err := e.sem.Acquire(waitCtx, 1); err != nil {
			l.unref(key)
			releaseAll()
			return nil, busyOr(ctx, key, err)
		}
		held = append(held, heldKey{key: key, entry: e})
	}
	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}

// busyOr distingue entre la espera vencida (Busy) y la cancelación del caller.
func busyOr(parent context.Context, key string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.BusyError{Resource: key}
	}
	return err
}
