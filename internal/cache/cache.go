package cache

import (
	"context"
	"github.com/shopspring/decimal"
	"sync"
	"time"
)

// Cache stores balances by key for a limited time
type Cache interface {
	// Get returns value and true if key is present and not expired
	Get(ctx context.Context, key string) (decimal.Decimal, bool, error)
	// Set stores value for ttl
	Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error
	// Expire drops key
	Expire(ctx context.Context, key string) error
}

type entry struct {
	value     decimal.Decimal
	expiresAt time.Time
}

// Memory is process-local Cache. Last write wins.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates new Memory cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns value and true if key is present and not expired.
// Expired entry is dropped.
func (m *Memory) Get(_ context.Context, key string) (decimal.Decimal, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return decimal.Zero, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		// entry may be replaced by Set meanwhile
		if cur, ok := m.entries[key]; ok && !m.now().Before(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return decimal.Zero, false, nil
	}
	return e.value, true, nil
}

// Set stores value for ttl
func (m *Memory) Set(_ context.Context, key string, value decimal.Decimal, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Expire drops key
func (m *Memory) Expire(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
