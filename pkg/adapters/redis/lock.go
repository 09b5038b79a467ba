package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/ndanaka/chatflow/pkg/session"
)

// unlockScript deletes the lock key only when it still holds our token, so
// a lock that expired and was re-acquired elsewhere is never released by
// the previous holder.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Locker implements session.Locker with Redis SET NX PX.
type Locker struct {
	client    *backend.Client
	prefix    string
	retryWait time.Duration
}

// LockerOption customizes a Locker.
type LockerOption func(*Locker)

// WithRetryInterval sets the polling interval while waiting for a held lock.
func WithRetryInterval(d time.Duration) LockerOption {
	return func(l *Locker) {
		if d > 0 {
			l.retryWait = d
		}
	}
}

// NewLocker creates a Locker sharing the given client.
func NewLocker(client *backend.Client, opts ...LockerOption) *Locker {
	l := &Locker{
		client:    client,
		prefix:    defaultPrefix + "lock:",
		retryWait: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock acquires the lock for key, polling until it succeeds or the context
// is canceled.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (session.UnlockFunc, error) {
	lockKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return l.client.Eval(ctx, unlockScript, []string{lockKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryWait):
		}
	}
}
