package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryIdempotency is used when no Redis address is configured. Keys do not
// survive a restart and are not shared between replicas.
type MemoryIdempotency struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryIdempotency(ttl time.Duration) *MemoryIdempotency {
	if ttl <= 0 {
		ttl = TTLIdempotency
	}
	return &MemoryIdempotency{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (m *MemoryIdempotency) Reserve(_ context.Context, key string) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[key]; ok && now.Before(e.expiresAt) {
		return reservationFor(e.value), nil
	}
	m.entries[key] = memoryEntry{value: pendingMarker, expiresAt: now.Add(m.ttl)}
	return Reservation{Acquired: true}, nil
}

func (m *MemoryIdempotency) Complete(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
