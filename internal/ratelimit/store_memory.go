package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryWindowStore implements WindowStore with per-key fixed windows.
// Not distributed; use the Redis store when running more than one replica.
type InMemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count   int64
	resetAt time.Time
}

func NewInMemoryWindowStore() *InMemoryWindowStore {
	return &InMemoryWindowStore{windows: make(map[string]*window)}
}

func (s *InMemoryWindowStore) Incr(_ context.Context, key string, d time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w := s.windows[key]
	if w == nil || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Reset clears the counter for a key.
func (s *InMemoryWindowStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
}
