package redis

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryStore is the single-instance fallback when no REDIS_ADDR is
// configured. Expiry is lazy; entries are dropped on read.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() StateStore {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *memoryStore) set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: cp, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
}

func (s *memoryStore) get(key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && s.now().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (s *memoryStore) del(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *memoryStore) SetEntry(_ context.Context, kind EntryKind, sessionID, userID string, value []byte, ttl time.Duration) error {
	s.set(entryKey(kind, sessionID, userID), value, ttl)
	return nil
}

func (s *memoryStore) GetEntry(_ context.Context, kind EntryKind, sessionID, userID string) ([]byte, bool, error) {
	raw, ok := s.get(entryKey(kind, sessionID, userID))
	return raw, ok, nil
}

func (s *memoryStore) DeleteEntry(_ context.Context, kind EntryKind, sessionID, userID string) error {
	s.del(entryKey(kind, sessionID, userID))
	return nil
}

func (s *memoryStore) CacheSession(_ context.Context, sessionID string, value []byte, ttl time.Duration) error {
	s.set(sessionKey(sessionID), value, ttl)
	return nil
}

func (s *memoryStore) GetCachedSession(_ context.Context, sessionID string) ([]byte, bool, error) {
	raw, ok := s.get(sessionKey(sessionID))
	return raw, ok, nil
}

func (s *memoryStore) EvictSession(_ context.Context, sessionID string) error {
	s.del(sessionKey(sessionID))
	return nil
}

func (s *memoryStore) Close() error { return nil }
