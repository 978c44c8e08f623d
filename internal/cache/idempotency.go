// Package cache stores checkout Idempotency-Key claims.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore maps an Idempotency-Key to the reference of the checkout
// that first used it.
type IdempotencyStore interface {
	// Claim stores reference under key if the key is free. When the key was
	// already claimed it returns the stored reference and false.
	Claim(ctx context.Context, key, reference string) (existing string, claimed bool, err error)
	// Release frees a key so a failed attempt can be retried.
	Release(ctx context.Context, key string) error
}

type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &Redis{rdb: rdb, ttl: ttl, prefix: "idempotency:checkout:"}
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (s *Redis) Claim(ctx context.Context, key, reference string) (string, bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.prefix+key, reference, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return reference, true, nil
	}
	existing, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		// Expired between SETNX and GET; try once more.
		return s.Claim(ctx, key, reference)
	}
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

func (s *Redis) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

type memoryEntry struct {
	reference string
	expires   time.Time
}

// Memory is a process-local IdempotencyStore for single-instance runs.
type Memory struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]memoryEntry
	now func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &Memory{ttl: ttl, m: make(map[string]memoryEntry), now: time.Now}
}

func (s *Memory) Claim(ctx context.Context, key, reference string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, ok := s.m[key]; ok && now.Before(e.expires) {
		return e.reference, false, nil
	}
	s.m[key] = memoryEntry{reference: reference, expires: now.Add(s.ttl)}
	return reference, true, nil
}

func (s *Memory) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}
