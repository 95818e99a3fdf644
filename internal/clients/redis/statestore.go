package redis

import (
	"context"
	"time"
)

// EntryKind selects the key family an ephemeral record lives under.
type EntryKind string

const (
	EntryCursor   EntryKind = "cursor"
	EntryPresence EntryKind = "presence"
)

// DefaultTTL bounds how long cursor and presence state survives without
// a refreshing write.
const DefaultTTL = 30 * time.Minute

// StateStore holds ephemeral per-user session state and a best-effort
// cache of session metadata. Every write refreshes the TTL; reads never
// extend it.
type StateStore interface {
	SetEntry(ctx context.Context, kind EntryKind, sessionID, userID string, value []byte, ttl time.Duration) error
	GetEntry(ctx context.Context, kind EntryKind, sessionID, userID string) ([]byte, bool, error)
	DeleteEntry(ctx context.Context, kind EntryKind, sessionID, userID string) error

	CacheSession(ctx context.Context, sessionID string, value []byte, ttl time.Duration) error
	GetCachedSession(ctx context.Context, sessionID string) ([]byte, bool, error)
	EvictSession(ctx context.Context, sessionID string) error

	Close() error
}

func entryKey(kind EntryKind, sessionID, userID string) string {
	return string(kind) + ":" + sessionID + ":" + userID
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}
