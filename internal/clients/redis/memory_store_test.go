package redis

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreEntryLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SetEntry(ctx, EntryCursor, "sess1", "user1", []byte(`{"x":1}`), time.Minute); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	raw, ok, err := s.GetEntry(ctx, EntryCursor, "sess1", "user1")
	if err != nil || !ok || string(raw) != `{"x":1}` {
		t.Fatalf("GetEntry: raw=%s ok=%v err=%v", raw, ok, err)
	}

	// Kinds and users are isolated.
	if _, ok, _ := s.GetEntry(ctx, EntryPresence, "sess1", "user1"); ok {
		t.Fatalf("presence key should be empty")
	}
	if _, ok, _ := s.GetEntry(ctx, EntryCursor, "sess1", "user2"); ok {
		t.Fatalf("other user should be empty")
	}

	if err := s.DeleteEntry(ctx, EntryCursor, "sess1", "user1"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, ok, _ := s.GetEntry(ctx, EntryCursor, "sess1", "user1"); ok {
		t.Fatalf("expected entry gone after delete")
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ms := &memoryStore{entries: make(map[string]memoryEntry)}
	now := time.Now()
	ms.now = func() time.Time { return now }

	if err := ms.SetEntry(context.Background(), EntryCursor, "sess1", "user1", []byte("v"), time.Minute); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	if _, ok, _ := ms.GetEntry(context.Background(), EntryCursor, "sess1", "user1"); !ok {
		t.Fatalf("expected entry before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := ms.GetEntry(context.Background(), EntryCursor, "sess1", "user1"); ok {
		t.Fatalf("expected entry expired")
	}

	// A write refreshes the TTL.
	if err := ms.SetEntry(context.Background(), EntryCursor, "sess1", "user1", []byte("v2"), time.Minute); err != nil {
		t.Fatalf("SetEntry refresh: %v", err)
	}
	now = now.Add(30 * time.Second)
	if raw, ok, _ := ms.GetEntry(context.Background(), EntryCursor, "sess1", "user1"); !ok || string(raw) != "v2" {
		t.Fatalf("expected refreshed entry, got raw=%s ok=%v", raw, ok)
	}
}

func TestMemoryStoreSessionCache(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.CacheSession(ctx, "sess1", []byte(`{"name":"demo"}`), 0); err != nil {
		t.Fatalf("CacheSession: %v", err)
	}
	raw, ok, err := s.GetCachedSession(ctx, "sess1")
	if err != nil || !ok || string(raw) != `{"name":"demo"}` {
		t.Fatalf("GetCachedSession: raw=%s ok=%v err=%v", raw, ok, err)
	}
	if err := s.EvictSession(ctx, "sess1"); err != nil {
		t.Fatalf("EvictSession: %v", err)
	}
	if _, ok, _ := s.GetCachedSession(ctx, "sess1"); ok {
		t.Fatalf("expected cache evicted")
	}
}
