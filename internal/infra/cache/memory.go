// Package cache provides a key/value store with per-entry TTL used for
// read-through caching of list endpoints.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is the minimal store the usecases depend on. Values are opaque
// bytes so a networked backend can be swapped in.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-process Cache.
//
// Expired entries are dropped lazily on Get and periodically by the janitor
// started with Run. When MaxEntries is reached the entry closest to expiry
// is evicted.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

// MemoryConfig holds configuration for Memory.
type MemoryConfig struct {
	// MaxEntries bounds memory use.
	// Default: 1000
	MaxEntries int

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Memory{
		entries:    make(map[string]entry),
		maxEntries: cfg.MaxEntries,
		now:        cfg.Now,
	}
}

// Get returns a copy of the cached value or ErrMiss.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores value under key for ttl. A non-positive ttl deletes the key.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		delete(m.entries, key)
		return nil
	}

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = entry{value: stored, expiresAt: m.now().Add(ttl)}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Run removes expired entries every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.purgeExpired()
		}
	}
}

func (m *Memory) purgeExpired() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// evictLocked drops the entry closest to expiry. The empty string is a valid key.
func (m *Memory) evictLocked() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for k, e := range m.entries {
		if !found || e.expiresAt.Before(oldest) {
			victim, oldest, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(m.entries, victim)
	}
}

// GetJSON decodes the cached value for key into dst.
// It returns ErrMiss when the key is absent.
func GetJSON(ctx context.Context, c Cache, key string, dst any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}
