package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClaimStore implements ClaimStore with SET NX and a TTL
type RedisClaimStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisClaimStore connects to Redis and verifies the connection
func NewRedisClaimStore(addr, password string, db int, prefix string, logger *zap.Logger) (*RedisClaimStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClaimStore{client: client, prefix: prefix, logger: logger}, nil
}

// Claim takes key for ttl unless someone else holds it
func (s *RedisClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !ok {
		s.logger.Debug("Claim already held", zap.String("key", key))
	}
	return ok, nil
}

// Release drops a claim
func (s *RedisClaimStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Close closes the Redis client
func (s *RedisClaimStore) Close() error {
	return s.client.Close()
}

// MemoryClaimStore implements ClaimStore for a single process
type MemoryClaimStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

// NewMemoryClaimStore returns an empty claim table
func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{claims: make(map[string]time.Time), now: time.Now}
}

// Claim takes key for ttl unless an unexpired claim exists
func (s *MemoryClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, ok := s.claims[key]; ok && now.Before(expires) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

// Release drops a claim
func (s *MemoryClaimStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.claims, key)
	return nil
}

// Close is a no-op
func (s *MemoryClaimStore) Close() error { return nil }
