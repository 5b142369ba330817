// Package oauthstate issues and consumes single-use OAuth state values.
package oauthstate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store hands out state values and accepts each one exactly once before it expires.
type Store interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) (bool, error)
}

const keyPrefix = "oauth_state:"

// RedisStore keeps pending states as expiring Redis keys.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Issue(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+state, time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// Consume deletes the key; only the caller that actually removed it wins.
func (s *RedisStore) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	n, err := s.client.Del(ctx, keyPrefix+state).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MemoryStore is the fallback when no Redis is configured. States do not
// survive a restart and are not shared between processes.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, pending: map[string]time.Time{}}
}

func (s *MemoryStore) Issue(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.pending {
		if now.After(exp) {
			delete(s.pending, k)
		}
	}
	state := uuid.NewString()
	s.pending[state] = now.Add(s.ttl)
	return state, nil
}

func (s *MemoryStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.pending[state]
	if !ok {
		return false, nil
	}
	delete(s.pending, state)
	return !s.now().After(exp), nil
}
