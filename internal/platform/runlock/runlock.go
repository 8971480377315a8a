// Package runlock serializes matching runs. The matching core assumes a
// single invocation at a time; the trigger layer acquires a lock before every
// run so the HTTP endpoint and the scheduled job cannot double-process the
// same identifiers.
package runlock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "tandem/pkg/domain-errors"
)

// ErrHeld is returned when another run currently holds the lock.
var ErrHeld = dErrors.New(dErrors.CodeConflict, "matching run already in progress")

// Locker guards a matching run. The returned release function must be called
// exactly once after a successful Acquire.
type Locker interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

// Local is a process-level lock for deployments without Redis.
type Local struct {
	mu sync.Mutex
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Acquire(_ context.Context) (func(context.Context) error, error) {
	if !l.mu.TryLock() {
		return nil, ErrHeld
	}
	return func(context.Context) error {
		l.mu.Unlock()
		return nil
	}, nil
}

// Redis implements the lock with SET NX and a TTL so a crashed run cannot
// hold the lock forever. The TTL must exceed the longest expected run.
type Redis struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// releaseScript deletes the lock only if this run still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewRedis(client redis.Cmdable, key string, ttl time.Duration) *Redis {
	return &Redis{client: client, key: key, ttl: ttl}
}

func (r *Redis) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.New().String()
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "acquire run lock")
	}
	if !ok {
		return nil, ErrHeld
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "release run lock")
		}
		return nil
	}, nil
}

var (
	_ Locker = (*Local)(nil)
	_ Locker = (*Redis)(nil)
)
