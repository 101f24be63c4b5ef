package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Ensure LocalRunLock implements the interface.
var _ driven.RunLock = (*LocalRunLock)(nil)

// LocalRunLock allows one active run per vendor within this process.
type LocalRunLock struct {
	mu     sync.Mutex
	active map[string]bool
}

// NewLocalRunLock creates an in-process run lock.
func NewLocalRunLock() *LocalRunLock {
	return &LocalRunLock{active: make(map[string]bool)}
}

// Acquire takes the vendor's lock or returns domain.ErrRunInProgress.
func (l *LocalRunLock) Acquire(_ context.Context, vendorID string) (driven.ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[vendorID] {
		return nil, domain.ErrRunInProgress
	}
	l.active[vendorID] = true

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, vendorID)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
