package provider

import (
	"context"
	"errors"

	"pairlens/pkg/model"
)

// Periods enumerates the supported lookback windows, in selector order.
var Periods = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y"}

// periodDays maps a period to the number of calendar days it covers.
var periodDays = map[string]int{
	"1mo": 30,
	"3mo": 91,
	"6mo": 182,
	"1y":  365,
	"2y":  730,
	"5y":  1825,
}

// ValidPeriod reports whether period is one of the supported windows.
func ValidPeriod(period string) bool {
	_, ok := periodDays[period]
	return ok
}

// PeriodDays returns the calendar-day span for a valid period.
func PeriodDays(period string) int {
	return periodDays[period]
}

var (
	// ErrNoData indicates the provider returned an empty series or has no
	// record of the symbol.
	ErrNoData = errors.New("no data found")

	// ErrUnavailable indicates a network or provider-side failure. The
	// caller surfaces it; there are no internal retries.
	ErrUnavailable = errors.New("data provider unavailable")
)

// Provider defines the interface for market data providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetDailyHistory fetches the full daily price history for a symbol
	// over the given lookback period
	GetDailyHistory(ctx context.Context, symbol, period string) ([]model.Candle, error)

	// GetFundamentals fetches a snapshot of fundamental metrics for a
	// symbol. Fields the provider cannot supply stay nil.
	GetFundamentals(ctx context.Context, symbol string) (*model.FundamentalSnapshot, error)

	// IsAvailable checks if the provider is available (has valid API key)
	IsAvailable() bool

	// RateLimit returns the rate limit per minute
	RateLimit() int
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	// Filter to only available providers
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetDailyHistory tries each provider in order until one succeeds
func (f *FallbackProvider) GetDailyHistory(ctx context.Context, symbol, period string) ([]model.Candle, error) {
	var lastErr error
	for _, p := range f.providers {
		candles, err := p.GetDailyHistory(ctx, symbol, period)
		if err == nil {
			return candles, nil
		}
		lastErr = err
		// An unknown symbol will be unknown everywhere; stop early
		if errors.Is(err, ErrNoData) {
			return nil, err
		}
	}
	if lastErr == nil {
		lastErr = ErrUnavailable
	}
	return nil, lastErr
}

// GetFundamentals tries each provider in order
func (f *FallbackProvider) GetFundamentals(ctx context.Context, symbol string) (*model.FundamentalSnapshot, error) {
	var lastErr error
	for _, p := range f.providers {
		snap, err := p.GetFundamentals(ctx, symbol)
		if err == nil {
			return snap, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrUnavailable
	}
	return nil, lastErr
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// RateLimit returns the highest rate limit among providers
func (f *FallbackProvider) RateLimit() int {
	maxRate := 0
	for _, p := range f.providers {
		if p.RateLimit() > maxRate {
			maxRate = p.RateLimit()
		}
	}
	return maxRate
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}
