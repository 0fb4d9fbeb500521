package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLimiter_AllowsBurstThenRejects(t *testing.T) {
	rdb := newMiniRedis(t)
	limiter := New(rdb, "test", 1, 3)

	for i := 0; i < 3; i++ {
		ok, _, err := limiter.Allow(context.Background(), "1.2.3.4")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request %d should be within burst", i)
		}
	}

	ok, retry, err := limiter.Allow(context.Background(), "1.2.3.4")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("expected rejection once burst is spent")
	}
	if retry <= 0 || retry > time.Second {
		t.Fatalf("unexpected retry-after %v", retry)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	rdb := newMiniRedis(t)
	limiter := New(rdb, "test", 1, 1)

	if ok, _, _ := limiter.Allow(context.Background(), "a"); !ok {
		t.Fatalf("first request for a should pass")
	}
	if ok, _, _ := limiter.Allow(context.Background(), "b"); !ok {
		t.Fatalf("first request for b should pass")
	}
	if ok, _, _ := limiter.Allow(context.Background(), "a"); ok {
		t.Fatalf("second request for a should be limited")
	}
}

func TestLimiter_Refills(t *testing.T) {
	rdb := newMiniRedis(t)
	limiter := New(rdb, "test", 10, 1)
	clock := time.Now()
	limiter.now = func() time.Time { return clock }

	if ok, _, _ := limiter.Allow(context.Background(), "k"); !ok {
		t.Fatalf("first request should pass")
	}
	if ok, _, _ := limiter.Allow(context.Background(), "k"); ok {
		t.Fatalf("bucket should be empty")
	}

	clock = clock.Add(150 * time.Millisecond)
	if ok, _, _ := limiter.Allow(context.Background(), "k"); !ok {
		t.Fatalf("bucket should have refilled")
	}
}

func TestLimiter_DisabledAlwaysAllows(t *testing.T) {
	var limiter *Limiter
	ok, _, err := limiter.Allow(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("nil limiter should allow, got %v %v", ok, err)
	}
}

func newMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}
