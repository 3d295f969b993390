package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("slot lock not acquired")

// Locker guards the reserve critical section per slot. The lock only
// narrows the race window between concurrent bookings of the same slot;
// the conditional update in the repository is what decides the winner.
type Locker interface {
	WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error
}

type slotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSlotLocker returns a Locker backed by a per-slot Redis key with an
// owner token, released via a compare-and-delete script.
func NewSlotLocker(client *redis.Client, ttl time.Duration) Locker {
	return &slotLocker{client: client, ttl: ttl}
}

func (l *slotLocker) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	key := "lock:slot:" + slotID.String()
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}
	if !acquired {
		return ErrLockNotAcquired
	}
	defer func() {
		_ = l.release(ctx, key, token)
	}()

	// Bound the critical section by the lock TTL so fn cannot keep running
	// after the lock has lapsed.
	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *slotLocker) release(ctx context.Context, key, token string) error {
	if _, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}
