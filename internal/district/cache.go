package district

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL matches the 24-hour freshness window the frontend expects.
const DefaultTTL = 24 * time.Hour

// Store memoizes resolved records for a TTL. It is a convenience cache, not
// a system of record: entries vanish on restart and the only invalidation is
// expiry (plus an operator-triggered flush).
type Store interface {
	Get(ctx context.Context, zip string) (Record, bool)
	Set(ctx context.Context, zip string, rec Record)
	Flush(ctx context.Context)
}

type memEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemStore is the default in-process store: a RWMutex-guarded map with lazy
// expiry. The clock is injected so tests control time instead of sleeping.
type MemStore struct {
	mu  sync.RWMutex
	m   map[string]memEntry
	ttl time.Duration
	now func() time.Time
}

// NewMemStore builds a memory store. A nil clock means time.Now.
func NewMemStore(ttl time.Duration, now func() time.Time) *MemStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemStore{
		m:   make(map[string]memEntry),
		ttl: ttl,
		now: now,
	}
}

func (s *MemStore) Get(ctx context.Context, zip string) (Record, bool) {
	s.mu.RLock()
	e, ok := s.m[zip]
	s.mu.RUnlock()
	if !ok {
		return Record{}, false
	}
	if !s.now().Before(e.expiresAt) {
		// Expired entries are discarded, not rewritten; the next Set after
		// re-resolution replaces them.
		s.mu.Lock()
		if cur, still := s.m[zip]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.m, zip)
		}
		s.mu.Unlock()
		return Record{}, false
	}
	return e.rec, true
}

func (s *MemStore) Set(ctx context.Context, zip string, rec Record) {
	s.mu.Lock()
	s.m[zip] = memEntry{rec: rec, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *MemStore) Flush(ctx context.Context) {
	s.mu.Lock()
	s.m = make(map[string]memEntry)
	s.mu.Unlock()
}

// Len reports live entries, counting expired-but-unswept ones.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
