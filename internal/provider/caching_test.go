package provider

import (
	"context"
	"errors"
	"testing"

	"pairlens/pkg/model"
)

func TestCachingHistory(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, candles: someCandles(5)}
	c := NewCachingProvider(inner)

	for i := 0; i < 3; i++ {
		candles, err := c.GetDailyHistory(context.Background(), "AAPL", "1y")
		if err != nil {
			t.Fatalf("GetDailyHistory failed: %v", err)
		}
		if len(candles) != 5 {
			t.Fatalf("expected 5 candles, got %d", len(candles))
		}
	}
	if inner.histCalls != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", inner.histCalls)
	}
}

func TestCachingKeyIncludesPeriod(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, candles: someCandles(5)}
	c := NewCachingProvider(inner)

	c.GetDailyHistory(context.Background(), "AAPL", "1y")
	c.GetDailyHistory(context.Background(), "AAPL", "6mo")
	c.GetDailyHistory(context.Background(), "MSFT", "1y")

	if inner.histCalls != 3 {
		t.Errorf("distinct symbol/period pairs should each fetch, got %d calls", inner.histCalls)
	}
}

func TestCachingFundamentals(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, fundamentals: &model.FundamentalSnapshot{Symbol: "AAPL"}}
	c := NewCachingProvider(inner)

	c.GetFundamentals(context.Background(), "AAPL")
	c.GetFundamentals(context.Background(), "AAPL")

	if inner.fundCalls != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", inner.fundCalls)
	}
}

func TestCachingDoesNotCacheErrors(t *testing.T) {
	inner := &stubProvider{name: "stub", available: true, histErr: &ProviderError{Provider: "stub", Err: ErrUnavailable}}
	c := NewCachingProvider(inner)

	for i := 0; i < 2; i++ {
		if _, err := c.GetDailyHistory(context.Background(), "AAPL", "1y"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	}
	if inner.histCalls != 2 {
		t.Errorf("failed fetches should not be cached, got %d calls", inner.histCalls)
	}
}
