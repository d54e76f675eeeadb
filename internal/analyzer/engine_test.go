package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"pairlens/internal/provider"
	"pairlens/pkg/model"
)

// fakeProvider serves canned candles keyed by symbol
type fakeProvider struct {
	candles      map[string][]model.Candle
	fundamentals map[string]*model.FundamentalSnapshot
	histErr      error
	fundErr      error
}

func (f *fakeProvider) Name() string      { return "fake" }
func (f *fakeProvider) IsAvailable() bool { return true }
func (f *fakeProvider) RateLimit() int    { return 1000 }

func (f *fakeProvider) GetDailyHistory(ctx context.Context, symbol, period string) ([]model.Candle, error) {
	if f.histErr != nil {
		return nil, f.histErr
	}
	candles, ok := f.candles[symbol]
	if !ok || len(candles) == 0 {
		return nil, provider.ErrNoData
	}
	return candles, nil
}

func (f *fakeProvider) GetFundamentals(ctx context.Context, symbol string) (*model.FundamentalSnapshot, error) {
	if f.fundErr != nil {
		return nil, f.fundErr
	}
	if snap, ok := f.fundamentals[symbol]; ok {
		return snap, nil
	}
	return &model.FundamentalSnapshot{Symbol: symbol}, nil
}

func makeCandles(closes []float64) []model.Candle {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return candles
}

func TestAnalyzeEmptyTicker(t *testing.T) {
	engine := NewEngine(&fakeProvider{})

	_, err := engine.Analyze(context.Background(), "", "1y")
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for empty ticker, got %v", err)
	}
}

func TestAnalyzeBadPeriod(t *testing.T) {
	engine := NewEngine(&fakeProvider{})

	_, err := engine.Analyze(context.Background(), "AAPL", "7y")
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for bad period, got %v", err)
	}
}

func TestAnalyzeUnknownSymbol(t *testing.T) {
	engine := NewEngine(&fakeProvider{candles: map[string][]model.Candle{}})

	_, err := engine.Analyze(context.Background(), "XYZFAKE", "1y")
	if !errors.Is(err, provider.ErrNoData) {
		t.Errorf("Expected ErrNoData for unknown symbol, got %v", err)
	}
}

func TestAnalyzeProviderDown(t *testing.T) {
	engine := NewEngine(&fakeProvider{histErr: provider.ErrUnavailable})

	_, err := engine.Analyze(context.Background(), "AAPL", "1y")
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestAnalyzeLinearRise(t *testing.T) {
	// Closing prices rising linearly from 100 to 150 over 60 sessions
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 50*float64(i)/59
	}

	engine := NewEngine(&fakeProvider{
		candles: map[string][]model.Candle{"AAPL": makeCandles(closes)},
	})

	result, err := engine.Analyze(context.Background(), "AAPL", "6mo")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	summary := result.Summary
	if summary.Sessions != 60 {
		t.Errorf("Expected 60 sessions, got %d", summary.Sessions)
	}

	if summary.SMA50 == nil {
		t.Fatal("Expected SMA-50 to be defined for 60 sessions")
	}
	var want float64
	for i := 10; i < 60; i++ {
		want += closes[i]
	}
	want /= 50
	if math.Abs(*summary.SMA50-want) > 1e-9 {
		t.Errorf("Expected SMA-50 %f, got %f", want, *summary.SMA50)
	}

	if summary.SMA200 != nil {
		t.Errorf("SMA-200 must be undefined for 60 sessions, got %f", *summary.SMA200)
	}

	if summary.RSI14 == nil {
		t.Fatal("Expected RSI to be defined for 60 sessions")
	}
	if *summary.RSI14 != 100.0 {
		t.Errorf("Strictly rising closes should give RSI 100, got %f", *summary.RSI14)
	}

	if summary.Trend != TrendBullish {
		t.Errorf("Expected trend %q, got %q", TrendBullish, summary.Trend)
	}
}

func TestAnalyzeShortSeriesTrend(t *testing.T) {
	closes := []float64{100, 101, 102, 101, 100}

	engine := NewEngine(&fakeProvider{
		candles: map[string][]model.Candle{"AAPL": makeCandles(closes)},
	})

	result, err := engine.Analyze(context.Background(), "AAPL", "1mo")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Summary.SMA50 != nil {
		t.Error("SMA-50 must be undefined for 5 sessions")
	}
	if result.Summary.RSI14 != nil {
		t.Error("RSI must be undefined for 5 sessions")
	}
	if result.Summary.Trend != TrendInsufficient {
		t.Errorf("Expected trend %q, got %q", TrendInsufficient, result.Summary.Trend)
	}
}

func TestAnalyzeBearishTrend(t *testing.T) {
	// 250 sessions falling linearly: close < SMA50 < SMA200
	closes := make([]float64, 250)
	for i := range closes {
		closes[i] = 300 - float64(i)
	}

	engine := NewEngine(&fakeProvider{
		candles: map[string][]model.Candle{"MSFT": makeCandles(closes)},
	})

	result, err := engine.Analyze(context.Background(), "MSFT", "1y")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Summary.SMA200 == nil {
		t.Fatal("Expected SMA-200 to be defined for 250 sessions")
	}
	if result.Summary.Trend != TrendBearish {
		t.Errorf("Expected trend %q, got %q", TrendBearish, result.Summary.Trend)
	}
}

func TestAnalyzeFundamentalsBestEffort(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	engine := NewEngine(&fakeProvider{
		candles: map[string][]model.Candle{"AAPL": makeCandles(closes)},
		fundErr: provider.ErrNoData,
	})

	result, err := engine.Analyze(context.Background(), "AAPL", "6mo")
	if err != nil {
		t.Fatalf("Missing metadata must not fail the analysis: %v", err)
	}
	if result.Fundamentals == nil {
		t.Fatal("Expected an empty fundamentals snapshot")
	}
	if result.Fundamentals.PERatio != nil {
		t.Error("Expected unavailable P/E to stay nil")
	}
	if result.Fundamentals.AvgVolume == nil {
		t.Error("Expected average volume computed from the fetched window")
	}
}

func TestAnalyzeFundamentalsOutage(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	engine := NewEngine(&fakeProvider{
		candles: map[string][]model.Candle{"AAPL": makeCandles(closes)},
		fundErr: provider.ErrUnavailable,
	})

	_, err := engine.Analyze(context.Background(), "AAPL", "6mo")
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("Expected provider outage to surface, got %v", err)
	}
}

func TestAnalyzeNormalizesTicker(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 50 + float64(i)
	}

	engine := NewEngine(&fakeProvider{
		candles: map[string][]model.Candle{"PETR4.SA": makeCandles(closes)},
	})

	result, err := engine.Analyze(context.Background(), "  petr4.sa ", "1mo")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Symbol != "PETR4.SA" {
		t.Errorf("Expected normalized symbol PETR4.SA, got %s", result.Symbol)
	}
}
