//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memRedis is a tiny in-memory RedisClient good enough for counter semantics.
type memRedis struct {
	mu         sync.Mutex
	vals       map[string]int64
	ttls       map[string]time.Duration
	incrErr    error
	expireErrs int // number of upcoming Expire calls that fail
}

func newMemRedis() *memRedis {
	return &memRedis{vals: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (m *memRedis) Ping(ctx context.Context) error { return nil }
func (m *memRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (m *memRedis) Get(ctx context.Context, key string) (string, error) { return "", errors.New("nil") }
func (m *memRedis) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key]++
	return m.vals[key], nil
}
func (m *memRedis) Expire(ctx context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expireErrs > 0 {
		m.expireErrs--
		return errors.New("i/o timeout")
	}
	if _, ok := m.vals[key]; ok {
		m.ttls[key] = expiration
	}
	return nil
}
func (m *memRedis) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vals[key]; !ok {
		return -2, nil
	}
	if ttl, ok := m.ttls[key]; ok {
		return ttl, nil
	}
	return -1, nil
}

// expire drops key if it carries a TTL, as Redis would once the window ends.
func (m *memRedis) expire(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ttls[key]; ok {
		delete(m.vals, key)
		delete(m.ttls, key)
	}
}
func (m *memRedis) Del(ctx context.Context, keys ...string) error { return nil }
func (m *memRedis) FlushDB(ctx context.Context) error             { return nil }
func (m *memRedis) Close() error                                  { return nil }

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit then blocks", func(t *testing.T) {
		mem := newMemRedis()
		rl := NewRateLimiter(mem)
		key := ScanKey("10.0.0.1")

		for i := 1; i <= 3; i++ {
			ok, err := rl.Allow(ctx, key, 3, time.Minute)
			if err != nil || !ok {
				t.Fatalf("hit %d: expected allowed, got ok=%v err=%v", i, ok, err)
			}
		}
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatal("expected the 4th hit to be blocked")
		}
		if mem.ttls[key] != time.Minute {
			t.Errorf("expected window ttl to be set once, got %s", mem.ttls[key])
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		rl := NewRateLimiter(newMemRedis())
		if ok, _ := rl.Allow(ctx, ScanKey("a"), 1, time.Minute); !ok {
			t.Fatal("expected first key allowed")
		}
		if ok, _ := rl.Allow(ctx, ScanKey("b"), 1, time.Minute); !ok {
			t.Fatal("expected second key allowed")
		}
	})

	t.Run("recovers the window after a failed expire", func(t *testing.T) {
		mem := newMemRedis()
		mem.expireErrs = 1
		rl := NewRateLimiter(mem)
		key := ScanKey("10.0.0.2")

		if _, err := rl.Allow(ctx, key, 3, time.Minute); err == nil {
			t.Fatal("expected the failed expire to surface")
		}
		for i := 2; i <= 3; i++ {
			if ok, err := rl.Allow(ctx, key, 3, time.Minute); err != nil || !ok {
				t.Fatalf("hit %d: expected allowed, got ok=%v err=%v", i, ok, err)
			}
		}
		if ok, _ := rl.Allow(ctx, key, 3, time.Minute); ok {
			t.Fatal("expected the 4th hit to be blocked")
		}
		if ttl, _ := mem.TTL(ctx, key); ttl != time.Minute {
			t.Fatalf("expected the blocked hit to restore the window ttl, got %s", ttl)
		}

		mem.expire(key)
		if ok, err := rl.Allow(ctx, key, 3, time.Minute); err != nil || !ok {
			t.Fatalf("expected a fresh window after expiry, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("propagates redis errors", func(t *testing.T) {
		mem := newMemRedis()
		mem.incrErr = errors.New("connection refused")
		rl := NewRateLimiter(mem)
		if _, err := rl.Allow(ctx, ScanKey("a"), 1, time.Minute); err == nil {
			t.Fatal("expected an error")
		}
	})
}
