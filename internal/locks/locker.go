// Package locks provides the per-product distributed lock used by batch pricing runs
package locks

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotObtained is returned when another holder owns the lock
var ErrNotObtained = errors.New("lock held by another worker")

// Locker obtains short-lived named locks. The returned release func is safe to call once.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// RedisLocker implements Locker on top of redislock
type RedisLocker struct {
	client *redislock.Client
	logger *logrus.Entry
}

func NewRedisLocker(rdb *redis.Client, logger *logrus.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		logger: logger.WithField("component", "redis-locker"),
	}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.WithField("key", key).WithError(err).Warn("Failed to release lock")
		}
	}, nil
}

// NoopLocker always succeeds. Used when Redis is not available; the pricing
// record compare-and-swap still serializes writes.
type NoopLocker struct{}

func (NoopLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
