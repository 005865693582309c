package repository

import (
	"context"
	"sync"

	"travel-ledger/internal/apperrors"
)

// rowLocks hands out one mutex per key. Each mutex is a 1-slot channel so
// acquisition can be abandoned when the context ends.
type rowLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newRowLocks() *rowLocks {
	return &rowLocks{locks: make(map[string]chan struct{})}
}

func (l *rowLocks) get(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	return ch
}

// acquire locks keys in the given order. Callers pass sorted keys so two
// acquirers never wait on each other in a cycle.
func (l *rowLocks) acquire(ctx context.Context, keys []string) (func(), error) {
	held := make([]chan struct{}, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, key := range keys {
		ch := l.get(key)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, apperrors.FromContext("repository.RunLocked", ctx.Err())
		}
	}
	return release, nil
}
