package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
)

type redisSessionStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore connects using REDIS_ADDR. Callers fall back to the
// in-memory store when this returns an error.
func NewRedisSessionStore(log *logger.Logger, ttl time.Duration) (SessionStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
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

	return &redisSessionStore{
		log:    log.With("service", "RedisSessionStore"),
		rdb:    rdb,
		prefix: "pawquest:session:",
		ttl:    ttl,
	}, nil
}

func (st *redisSessionStore) key(id uuid.UUID) string {
	return st.prefix + id.String()
}

func (st *redisSessionStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := st.rdb.Get(ctx, st.key(id)).Bytes()
	if err == goredis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	s := &Session{}
	if err := json.Unmarshal(data, s); err != nil {
		st.log.Warn("corrupted session payload, dropping", "session_id", id, "error", err)
		_ = st.rdb.Del(ctx, st.key(id)).Err()
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (st *redisSessionStore) Put(ctx context.Context, s *Session) error {
	if s == nil || s.ID == uuid.Nil {
		return fmt.Errorf("session requires an id")
	}
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return st.rdb.Set(ctx, st.key(s.ID), data, st.ttl).Err()
}

func (st *redisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return st.rdb.Del(ctx, st.key(id)).Err()
}
