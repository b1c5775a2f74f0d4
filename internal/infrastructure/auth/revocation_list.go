package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList tracks tokens revoked before their natural expiry, keyed
// by JTI. Entries only need to live as long as the token itself.
type RevocationList interface {
	// Revoke marks a JTI as revoked for ttl
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked checks whether a JTI has been revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevocationList implements RevocationList using Redis
type RedisRevocationList struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRevocationList creates a revocation list on an existing Redis client
func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{
		client:    client,
		keyPrefix: "token:revoked:",
	}
}

func (l *RedisRevocationList) key(jti string) string {
	return l.keyPrefix + jti
}

// Revoke marks a JTI as revoked for ttl
func (l *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks whether a JTI has been revoked
func (l *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := l.client.Exists(ctx, l.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists > 0, nil
}

// Ensure RedisRevocationList implements RevocationList
var _ RevocationList = (*RedisRevocationList)(nil)

// InMemoryRevocationList provides an in-process implementation for tests
// and single-instance deployments.
type InMemoryRevocationList struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewInMemoryRevocationList creates an empty in-memory revocation list
func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{entries: make(map[string]time.Time)}
}

// Revoke marks a JTI as revoked for ttl
func (l *InMemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked checks whether a JTI has been revoked
func (l *InMemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.RLock()
	expiry, ok := l.entries[jti]
	l.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		l.mu.Lock()
		delete(l.entries, jti)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Ensure InMemoryRevocationList implements RevocationList
var _ RevocationList = (*InMemoryRevocationList)(nil)
