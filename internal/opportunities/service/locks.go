package service

import (
	"context"
	"sync"

	"climas_backend/platform/apperr"

	"github.com/google/uuid"
)

// keyedMutex serializes work per opportunity id. Entries are dropped once no
// goroutine holds or waits for them.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[uuid.UUID]*lockEntry)}
}

// Lock blocks until id is free or ctx is done. The returned func releases it.
// Giving up on the wait is a conflict wrapping the context error.
func (k *keyedMutex) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			k.release(id, e)
		}, nil
	case <-ctx.Done():
		k.release(id, e)
		return nil, apperr.Wrap(apperr.KindConflict, "opportunity is busy", ctx.Err()).
			WithField("id", id.String())
	}
}

func (k *keyedMutex) release(id uuid.UUID, e *lockEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, id)
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
