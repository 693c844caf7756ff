package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket_Allow(t *testing.T) {
	clock := time.Unix(0, 0)
	tb := NewTokenBucket(1, 2)
	tb.now = func() time.Time { return clock }
	tb.lastTokenTime = clock

	if !tb.Allow() || !tb.Allow() {
		t.Fatal("expected the initial burst to be allowed")
	}
	if tb.Allow() {
		t.Fatal("expected the bucket to be empty")
	}

	clock = clock.Add(time.Second)
	if !tb.Allow() {
		t.Error("expected a token after one second")
	}
}

func TestTokenBucket_WaitBlocksUntilRefill(t *testing.T) {
	tb := NewTokenBucket(50, 1) // one token every 20ms

	ctx := context.Background()
	if err := tb.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	start := time.Now()
	if err := tb.Wait(ctx); err != nil {
		t.Fatalf("second Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected Wait to block, returned after %v", elapsed)
	}
}

func TestTokenBucket_WaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(0.001, 1)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
