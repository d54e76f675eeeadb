package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	limiter := NewLimiter("test", 60) // 60 per minute = 1 per second

	if limiter.Name() != "test" {
		t.Errorf("Expected name 'test', got '%s'", limiter.Name())
	}

	// First few requests should be allowed immediately (burst)
	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Errorf("Request %d should have been allowed", i)
		}
	}
}

func TestLimiterWait(t *testing.T) {
	limiter := NewLimiter("test", 120) // 2 per second

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Should complete quickly
	start := time.Now()
	err := limiter.Wait(ctx)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if time.Since(start) > 1*time.Second {
		t.Error("Wait took too long")
	}
}

func TestLimiterBackoff(t *testing.T) {
	limiter := NewLimiter("test", 60)

	initial := limiter.GetBackoff()

	limiter.SignalRateLimited()
	after1 := limiter.GetBackoff()
	if after1 <= initial {
		t.Error("Backoff should increase after rate limit signal")
	}

	limiter.SignalRateLimited()
	after2 := limiter.GetBackoff()
	if after2 <= after1 {
		t.Error("Backoff should continue to increase")
	}

	limiter.ResetBackoff()
	afterReset := limiter.GetBackoff()
	if afterReset >= after2 {
		t.Error("Backoff should reset to initial value")
	}
}

func TestLimiterContextCancellation(t *testing.T) {
	limiter := NewLimiter("test", 1) // Very slow rate

	// Exhaust the burst
	for i := 0; i < 5; i++ {
		limiter.Allow()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	if err == nil {
		t.Error("Wait should fail when context expires before a token is available")
	}
}
