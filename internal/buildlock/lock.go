// Package buildlock serializes entry-summary builds across replicas.
package buildlock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	redis "github.com/redis/go-redis/v9"
)

var ErrNotObtained = errors.New("lock_not_obtained")

// Release frees a held lock.
type Release func(ctx context.Context) error

// Locker hands out short-lived exclusive locks by key.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

type redisLocker struct {
	client *redislock.Client
}

// NewLocker returns a Redis-backed locker, or a no-op locker when no client
// is configured.
func NewLocker(client *redis.Client) Locker {
	if client == nil {
		return noopLocker{}
	}
	return &redisLocker{client: redislock.New(client)}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}

	lock, err := l.client.Obtain(ctx, "ftzflow:lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}

type noopLocker struct{}

func (noopLocker) Obtain(context.Context, string, time.Duration) (Release, error) {
	return func(context.Context) error { return nil }, nil
}
