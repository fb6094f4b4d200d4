package store

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"
)

// InMemoryStore is a KV held entirely in process memory. It backs unit tests
// and is not shared across instances, so it provides none of the fleet-wide
// guarantees of a real store.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value    string
	expireAt time.Time // zero means no expiry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the time source, letting tests control expiry.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.get(key); ok {
		return false, nil
	}

	s.set(key, value, ttl)

	return true, nil
}

func (s *InMemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set(key, value, ttl)

	return nil
}

func (s *InMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.get(key)
	if !ok {
		return "", ErrKeyNotFound
	}

	return entry.value, nil
}

func (s *InMemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}

func (s *InMemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		if _, ok := s.get(key); !ok {
			continue
		}
		if matched, err := path.Match(pattern, key); err == nil && matched {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (s *InMemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.get(key)

	return ok, nil
}

func (s *InMemoryStore) IncrBy(_ context.Context, key string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if entry, ok := s.get(key); ok {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			return 0, err
		}
		current = parsed
	}

	total := current + amount
	s.set(key, strconv.FormatInt(total, 10), 0)

	return total, nil
}

// get returns a live entry, lazily dropping expired ones. Callers hold mu.
func (s *InMemoryStore) get(key string) (memoryEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}

	if !entry.expireAt.IsZero() && !s.now().Before(entry.expireAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}

	return entry, true
}

func (s *InMemoryStore) set(key, value string, ttl time.Duration) {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expireAt = s.now().Add(ttl)
	}
	s.entries[key] = entry
}
