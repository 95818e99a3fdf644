package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/climatehub/collab-backend/internal/platform/logger"
)

const opTimeout = 2 * time.Second

type redisStore struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewRedisStore(log *logger.Logger) (StateStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisStore{
		log: log.With("service", "RedisStateStore"),
		rdb: rdb,
	}, nil
}

func (s *redisStore) SetEntry(ctx context.Context, kind EntryKind, sessionID, userID string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.rdb.Set(ctx, entryKey(kind, sessionID, userID), value, ttl).Err()
}

func (s *redisStore) GetEntry(ctx context.Context, kind EntryKind, sessionID, userID string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	raw, err := s.rdb.Get(ctx, entryKey(kind, sessionID, userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *redisStore) DeleteEntry(ctx context.Context, kind EntryKind, sessionID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.rdb.Del(ctx, entryKey(kind, sessionID, userID)).Err()
}

func (s *redisStore) CacheSession(ctx context.Context, sessionID string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.rdb.Set(ctx, sessionKey(sessionID), value, ttl).Err()
}

func (s *redisStore) GetCachedSession(ctx context.Context, sessionID string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	raw, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *redisStore) EvictSession(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *redisStore) Close() error {
	return s.rdb.Close()
}
