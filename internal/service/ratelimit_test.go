package service

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func newTestBucket(t *testing.T, rate, capacity float64) *TokenBucket {
	t.Helper()
	tb := NewTokenBucket(rate, capacity)
	t.Cleanup(tb.Stop)
	return tb
}

func TestTokenBucket_AllowsUpToCapacity(t *testing.T) {
	tb := newTestBucket(t, 1, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow("203.0.113.7") {
			t.Fatalf("request %d should be allowed (bucket not yet empty)", i+1)
		}
	}

	if tb.Allow("203.0.113.7") {
		t.Fatal("4th request should be denied (bucket empty)")
	}
}

func TestTokenBucket_DifferentKeysAreIndependent(t *testing.T) {
	tb := newTestBucket(t, 1, 1)

	if !tb.Allow("ip-a") {
		t.Fatal("ip-a first request should be allowed")
	}
	if tb.Allow("ip-a") {
		t.Fatal("ip-a second request should be denied")
	}
	if !tb.Allow("ip-b") {
		t.Fatal("ip-b first request should be allowed (independent bucket)")
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	tb := newTestBucket(t, 1, 1)
	clock := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	tb.now = func() time.Time { return clock }

	if !tb.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow("k") {
		t.Fatal("second request should be denied")
	}

	clock = clock.Add(time.Second)
	if !tb.Allow("k") {
		t.Fatal("request after one second should be allowed")
	}
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	tb := newTestBucket(t, 0, 2)

	if !tb.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if !tb.Allow("k") {
		t.Fatal("second request should be allowed")
	}
	if tb.Allow("k") {
		t.Fatal("third request should be denied (no refill)")
	}
}

func TestTokenBucket_SweepDropsIdleKeys(t *testing.T) {
	tb := newTestBucket(t, 1, 1)
	clock := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	tb.now = func() time.Time { return clock }

	tb.Allow("old")
	clock = clock.Add(9 * time.Minute)
	tb.Allow("fresh")
	clock = clock.Add(2 * time.Minute)

	tb.sweep()
	if tb.Len() != 1 {
		t.Fatalf("expected only the fresh key to survive, got %d keys", tb.Len())
	}
}

func TestTokenBucket_StopEndsSweep(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tb := NewTokenBucket(1, 1)
	tb.Allow("10.0.0.1")
	tb.Stop()
	tb.Stop()
}
