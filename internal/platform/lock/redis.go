// Package lock provides a Redis backed mutex shared by the API and worker processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when the lock is held elsewhere and could not be acquired in time.
var ErrLocked = errors.New("lock: held by another process")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a single key lock with a token so only the holder can release it.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	retry  time.Duration
	wait   time.Duration
}

// Option customises a Redis lock.
type Option func(*Redis)

// WithWait sets how long Acquire polls before giving up.
func WithWait(d time.Duration) Option {
	return func(r *Redis) { r.wait = d }
}

// NewRedis returns a lock on key. The ttl bounds how long a crashed holder blocks others.
func NewRedis(client redis.UniversalClient, key string, ttl time.Duration, opts ...Option) *Redis {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	r := &Redis{client: client, key: key, ttl: ttl, retry: 100 * time.Millisecond, wait: 30 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire blocks until the lock is taken, the wait elapses or ctx ends.
func (r *Redis) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)
	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: set %s: %w", r.key, err)
		}
		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, r.client, []string{r.key}, token).Err()
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLocked
		}
		timer := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
