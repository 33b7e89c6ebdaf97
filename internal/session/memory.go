package session

import (
	"context"
	"sync"
	"time"

	"github.com/payland/gateway/internal/model"
)

type memoryEntry struct {
	rec       model.SessionRecord
	expiresAt time.Time
}

// MemoryArea is an in-memory Area with per-record TTL. It backs the
// session-scoped area always, and the durable area when no database is
// configured.
type MemoryArea struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryArea creates an in-memory area whose records expire after ttl.
func NewMemoryArea(ttl time.Duration) *MemoryArea {
	a := &MemoryArea{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
	go a.cleanup()
	return a
}

// Put stores or replaces the record for id.
func (a *MemoryArea) Put(ctx context.Context, id string, rec model.SessionRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[id] = memoryEntry{rec: rec, expiresAt: time.Now().Add(a.ttl)}
	return nil
}

// Get returns the record for id, or ErrNoSession when absent or expired.
func (a *MemoryArea) Get(ctx context.Context, id string) (model.SessionRecord, error) {
	a.mu.RLock()
	entry, ok := a.entries[id]
	a.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return model.SessionRecord{}, ErrNoSession
	}
	return entry.rec, nil
}

// Delete removes the record for id. Deleting a missing record is not an error.
func (a *MemoryArea) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, id)
	return nil
}

// cleanup periodically removes expired entries to prevent unbounded growth.
func (a *MemoryArea) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		a.mu.Lock()
		for id, entry := range a.entries {
			if now.After(entry.expiresAt) {
				delete(a.entries, id)
			}
		}
		a.mu.Unlock()
	}
}
