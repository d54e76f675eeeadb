package provider

import (
	"context"
	"sync"

	"pairlens/pkg/model"
)

// CachingProvider wraps a Provider with an in-memory cache so that a
// single run can chart and summarize a ticker from one fetch. Entries
// live for the lifetime of the wrapper; create one per run.
type CachingProvider struct {
	inner        Provider
	mu           sync.Mutex
	history      map[string][]model.Candle
	fundamentals map[string]*model.FundamentalSnapshot
}

// NewCachingProvider creates a caching wrapper around a provider
func NewCachingProvider(inner Provider) *CachingProvider {
	return &CachingProvider{
		inner:        inner,
		history:      make(map[string][]model.Candle),
		fundamentals: make(map[string]*model.FundamentalSnapshot),
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }
func (p *CachingProvider) RateLimit() int    { return p.inner.RateLimit() }

func (p *CachingProvider) GetDailyHistory(ctx context.Context, symbol, period string) ([]model.Candle, error) {
	key := symbol + "|" + period

	p.mu.Lock()
	if cached, ok := p.history[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	candles, err := p.inner.GetDailyHistory(ctx, symbol, period)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.history[key] = candles
	p.mu.Unlock()

	return candles, nil
}

func (p *CachingProvider) GetFundamentals(ctx context.Context, symbol string) (*model.FundamentalSnapshot, error) {
	p.mu.Lock()
	if cached, ok := p.fundamentals[symbol]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	snap, err := p.inner.GetFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.fundamentals[symbol] = snap
	p.mu.Unlock()

	return snap, nil
}
