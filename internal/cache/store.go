// Package cache provides an in-memory key/value store with per-entry TTL
// and hit/miss statistics. Callers cache small provider payloads under
// namespaced keys ("price:{symbol}", "pe:{symbol}"), so the store is
// unbounded by entry count; TTL expiry is the only eviction.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/sharath-a-kumar/Dynamic-Portfolio-Dashboard-sub000/internal/models"
)

// Entry is a stored value with its absolute expiry time.
type Entry struct {
	Value     any
	ExpiresAt time.Time
}

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Sets     int64   `json:"sets"`
	Deletes  int64   `json:"deletes"`
	LiveKeys int     `json:"live_keys"`
	HitRate  float64 `json:"hit_rate"`
}

// Store is a mutex-guarded TTL cache. The zero value is not usable; create
// one with New.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	hits    int64
	misses  int64
	sets    int64
	deletes int64

	sweepStop chan struct{}
	now       func() time.Time // injectable clock for testing
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get returns the live value for key. Expired entries are removed lazily and
// count as misses.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false
	}
	if s.now().After(entry.ExpiresAt) {
		delete(s.entries, key)
		s.misses++
		return nil, false
	}
	s.hits++
	return entry.Value, true
}

// Set stores value under key for the given TTL.
func (s *Store) Set(key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return models.ErrInvalidTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry{
		Value:     value,
		ExpiresAt: s.now().Add(ttl),
	}
	s.sets++
	return nil
}

// Has reports whether key holds a live entry. Does not touch hit/miss counters.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	return ok && !s.now().After(entry.ExpiresAt)
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		delete(s.entries, key)
		s.deletes++
	}
}

// DeletePrefix removes every key with the given prefix and returns the count
// removed. Cache keys are namespaced per subsystem, so this is the bulk
// invalidation hook for a manual refresh.
func (s *Store) DeletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			s.deletes++
			removed++
		}
	}
	return removed
}

// Clear removes all entries and resets all counters to zero.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
	s.hits = 0
	s.misses = 0
	s.sets = 0
	s.deletes = 0
}

// Keys returns the keys of all live entries.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	keys := make([]string, 0, len(s.entries))
	for key, entry := range s.entries {
		if !now.After(entry.ExpiresAt) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Stats returns a snapshot of the store counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	live := 0
	for _, entry := range s.entries {
		if !now.After(entry.ExpiresAt) {
			live++
		}
	}

	stats := Stats{
		Hits:     s.hits,
		Misses:   s.misses,
		Sets:     s.sets,
		Deletes:  s.deletes,
		LiveKeys: live,
	}
	if total := s.hits + s.misses; total > 0 {
		stats.HitRate = float64(s.hits) / float64(total)
	}
	return stats
}

// StartSweeper launches a background loop that removes expired entries every
// interval. Expiry is otherwise lazy, so the sweeper only matters for
// long-running processes with churny key sets.
func (s *Store) StartSweeper(interval time.Duration) {
	s.mu.Lock()
	if s.sweepStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.sweepStop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// StopSweeper stops the background sweep loop if running.
func (s *Store) StopSweeper() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweepStop != nil {
		close(s.sweepStop)
		s.sweepStop = nil
	}
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, key)
		}
	}
}
