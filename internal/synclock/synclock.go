package synclock

import (
	"context"
	"errors"
	"sync"
)

// ErrLocked is returned when another holder owns the key
var ErrLocked = errors.New("lock already held")

// Locker hands out non-blocking exclusive locks by key
type Locker interface {
	// TryLock acquires key or fails fast with ErrLocked. The returned func releases it.
	TryLock(ctx context.Context, key string) (release func(), err error)
}

// MemoryLocker is a Locker for a single process
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker creates an in-process Locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

// TryLock acquires key if no one holds it
func (l *MemoryLocker) TryLock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

var _ Locker = (*MemoryLocker)(nil)
