package producer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/pubflow/internal/errors"
)

// RunLock grants a scheduled run to a single instance. Acquire returns false
// when another holder owns key and its ttl has not elapsed.
type RunLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisRunLock shares run locks across instances through Redis SET NX.
type RedisRunLock struct {
	client *redis.Client
	owner  string
}

// NewRedisRunLock creates a RedisRunLock.
func NewRedisRunLock(client *redis.Client) *RedisRunLock {
	host, _ := os.Hostname()
	return &RedisRunLock{
		client: client,
		owner:  fmt.Sprintf("%s:%d", host, os.Getpid()),
	}
}

// Acquire implements RunLock.
func (l *RedisRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return false, apperrors.Wrapf(apperrors.ErrUnavailable, "run lock %s: %v", key, err)
	}
	return ok, nil
}

// LocalRunLock is a process-local RunLock for single instance deployments.
type LocalRunLock struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewLocalRunLock creates a LocalRunLock.
func NewLocalRunLock() *LocalRunLock {
	return &LocalRunLock{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Acquire implements RunLock.
func (l *LocalRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, exp := range l.expires {
		if !exp.After(now) {
			delete(l.expires, k)
		}
	}

	if _, held := l.expires[key]; held {
		return false, nil
	}
	l.expires[key] = now.Add(ttl)
	return true, nil
}
