package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrHeld is returned when the lock is already held by another run.
var ErrHeld = errors.New("lock already held")

// Locker is an advisory lock keyed by an arbitrary string. Reconciliation
// runs use it to serialize per category: concurrent runs over the same
// category could both insert the same "new" external row before either
// commits.
type Locker interface {
	// Acquire takes the lock or returns ErrHeld. The returned release
	// function frees it; the TTL bounds a run that dies without releasing.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Memory is an in-process Locker for tests and single-instance deployments.
type Memory struct {
	mu   sync.Mutex
	held map[string]time.Time
}

// NewMemory creates an in-process locker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]time.Time)}
}

func (m *Memory) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, ok := m.held[key]; ok && time.Now().Before(expiry) {
		return nil, ErrHeld
	}
	m.held[key] = time.Now().Add(ttl)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, key)
	}, nil
}
