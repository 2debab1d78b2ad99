package notify

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ThrottleIndex tracks when a (ticket, alert type) pair was last notified.
// The dispatcher owns it exclusively; callers never mutate it directly.
type ThrottleIndex interface {
	// Claim atomically records a send for the key unless one was already
	// recorded within the window ending at now. It reports whether the key
	// is throttled; check and mark are a single operation so two concurrent
	// claimants cannot both pass.
	Claim(ctx context.Context, key string, window time.Duration, now time.Time) (throttled bool, err error)
	// Prune drops entries older than the cutoff.
	Prune(ctx context.Context, cutoff time.Time) error
}

type memoryThrottle struct {
	mu   sync.Mutex
	sent map[string]time.Time
}

// NewMemoryThrottle returns the in-process throttle index used by default.
func NewMemoryThrottle() ThrottleIndex {
	return &memoryThrottle{sent: make(map[string]time.Time)}
}

func (t *memoryThrottle) Claim(_ context.Context, key string, window time.Duration, now time.Time) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if at, ok := t.sent[key]; ok && now.Sub(at) < window {
		return true, nil
	}
	t.sent[key] = now
	return false, nil
}

func (t *memoryThrottle) Prune(_ context.Context, cutoff time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, at := range t.sent {
		if at.Before(cutoff) {
			delete(t.sent, key)
		}
	}
	return nil
}

const redisThrottlePrefix = "sla:throttle:"

type redisThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewRedisThrottle returns a throttle index shared across engine instances,
// so two replicas monitoring the same ticket store do not double-notify.
// Entries expire with the throttle window, so Prune is a no-op.
func NewRedisThrottle(client *redis.Client, window time.Duration) ThrottleIndex {
	return &redisThrottle{client: client, window: window}
}

// Claim uses SET NX so the claim is atomic across replicas: exactly one
// claimant wins a racing key, the rest observe it as throttled.
func (t *redisThrottle) Claim(ctx context.Context, key string, _ time.Duration, now time.Time) (bool, error) {
	claimed, err := t.client.SetNX(ctx, redisThrottlePrefix+key, now.UnixMilli(), t.window).Result()
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

func (t *redisThrottle) Prune(context.Context, time.Time) error {
	return nil
}
