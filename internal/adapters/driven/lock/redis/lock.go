// Package redis provides a RunLock backed by Redis so that processes on
// different hosts never collect the same vendor at once.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

const (
	// DefaultKeyPrefix namespaces run lock keys.
	DefaultKeyPrefix = "pricepilot:run:"

	// DefaultTTL bounds how long a crashed holder blocks a vendor.
	DefaultTTL = 30 * time.Minute

	connectTimeout = 5 * time.Second
)

// Ensure RunLock implements the interface.
var _ driven.RunLock = (*RunLock)(nil)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RunLock implements driven.RunLock with SET NX and a token-checked release.
type RunLock struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// Connect dials Redis, verifies the connection, and returns a run lock.
func Connect(ctx context.Context, settings domain.RedisSettings) (*RunLock, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     settings.Addr,
		Password: settings.Password,
		DB:       settings.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", settings.Addr, err)
	}

	logger.Debug("redis: connected to %s", settings.Addr)
	return New(rdb, DefaultKeyPrefix, settings.LockTTL), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, keyPrefix string, ttl time.Duration) *RunLock {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RunLock{rdb: rdb, keyPrefix: keyPrefix, ttl: ttl}
}

// Acquire takes the lock for a vendor without waiting.
func (l *RunLock) Acquire(ctx context.Context, vendorID string) (driven.ReleaseFunc, error) {
	key := l.key(vendorID)
	token := uuid.New().String()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock for %s: %w", vendorID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: vendor %s", domain.ErrRunInProgress, vendorID)
	}

	logger.Debug("redis: acquired run lock %s", key)
	return func(ctx context.Context) error {
		released, err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Int64()
		if err != nil {
			return fmt.Errorf("release run lock for %s: %w", vendorID, err)
		}
		if released == 0 {
			logger.Warn("redis: run lock %s expired before release", key)
		}
		return nil
	}, nil
}

// Close closes the Redis connection.
func (l *RunLock) Close() error {
	return l.rdb.Close()
}

func (l *RunLock) key(vendorID string) string {
	return l.keyPrefix + vendorID
}
