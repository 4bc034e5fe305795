// Package memory holds process-local stand-ins for the DynamoDB adapters, used when
// no table is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/engmung/portfolio-Nat/application/ports"
)

var _ ports.Locker = (*Locker)(nil)

// Locker is a process-local ports.Locker with expiring leases
type Locker struct {
	mu    sync.Mutex
	held  map[string]lease
	clock func() time.Time
}

type lease struct {
	id        string
	owner     string
	expiresAt time.Time
}

// NewLocker creates an empty locker
func NewLocker() *Locker {
	return &Locker{held: make(map[string]lease), clock: time.Now}
}

// Acquire grants the resource unless a live lease exists
func (l *Locker) Acquire(_ context.Context, resource, owner string, ttl time.Duration) (ports.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if cur, ok := l.held[resource]; ok && now.Before(cur.expiresAt) {
		return nil, ports.ErrLockHeld
	}

	ls := lease{id: uuid.NewString(), owner: owner, expiresAt: now.Add(ttl)}
	l.held[resource] = ls
	return &memoryLock{locker: l, resource: resource, id: ls.id}, nil
}

type memoryLock struct {
	locker   *Locker
	resource string
	id       string
}

// Release drops the lease if it has not been taken over after expiry
func (m *memoryLock) Release(_ context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()

	if cur, ok := m.locker.held[m.resource]; ok && cur.id == m.id {
		delete(m.locker.held, m.resource)
	}
	return nil
}
