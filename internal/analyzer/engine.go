package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pairlens/internal/indicator"
	"pairlens/internal/provider"
	"pairlens/pkg/model"
)

// ErrInvalidParameter indicates a bad ticker or period input. It is
// surfaced to the user directly; nothing is fetched.
var ErrInvalidParameter = errors.New("invalid parameter")

// Trend labels derived from close vs SMA-50/SMA-200 ordering
const (
	TrendBullish          = "bullish"
	TrendBullishCrossover = "bullish crossover"
	TrendBearish          = "bearish"
	TrendNeutral          = "neutral"
	TrendInsufficient     = "insufficient data"
)

// Engine fetches price history and fundamentals for one ticker and
// derives its technical summary. One outbound provider call per data
// kind, no retries.
type Engine struct {
	provider provider.Provider
}

// NewEngine creates an engine bound to a data provider
func NewEngine(p provider.Provider) *Engine {
	return &Engine{provider: p}
}

// Analyze fetches and summarizes a single ticker over the given period
func (e *Engine) Analyze(ctx context.Context, ticker, period string) (*model.StockAnalysis, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker: %w", ErrInvalidParameter)
	}
	if !provider.ValidPeriod(period) {
		return nil, fmt.Errorf("period %q (want one of %s): %w",
			period, strings.Join(provider.Periods, ", "), ErrInvalidParameter)
	}

	candles, err := e.provider.GetDailyHistory(ctx, ticker, period)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, provider.ErrNoData)
	}

	closes := indicator.Closes(candles)
	sma50 := indicator.SMASeries(closes, 50)
	sma200 := indicator.SMASeries(closes, 200)
	rsi := indicator.RSISeries(closes, 14)

	summary := &model.TechnicalSummary{
		Symbol:      ticker,
		Period:      period,
		Sessions:    len(candles),
		LatestClose: closes[len(closes)-1],
	}
	if v, ok := indicator.Latest(sma50); ok {
		summary.SMA50 = &v
	}
	if v, ok := indicator.Latest(sma200); ok {
		summary.SMA200 = &v
	}
	if v, ok := indicator.Latest(rsi); ok {
		summary.RSI14 = &v
	}
	summary.Trend = classifyTrend(summary.LatestClose, sma50, sma200)

	// A symbol with history but no metadata still gets a snapshot with
	// every metric unavailable; a provider outage is surfaced.
	fundamentals, err := e.provider.GetFundamentals(ctx, ticker)
	if err != nil {
		if errors.Is(err, provider.ErrUnavailable) {
			return nil, err
		}
		fundamentals = &model.FundamentalSnapshot{Symbol: ticker}
	}
	if fundamentals.AvgVolume == nil {
		fundamentals.AvgVolume = averageVolume(candles)
	}

	return &model.StockAnalysis{
		Symbol:       ticker,
		Period:       period,
		Candles:      candles,
		SMA50Series:  sma50,
		SMA200Series: sma200,
		RSISeries:    rsi,
		Summary:      summary,
		Fundamentals: fundamentals,
	}, nil
}

// classifyTrend labels the trend from the latest close vs SMA ordering
func classifyTrend(latestClose float64, sma50, sma200 []*float64) string {
	s50, ok50 := indicator.Latest(sma50)
	if !ok50 {
		return TrendInsufficient
	}

	s200, ok200 := indicator.Latest(sma200)
	if !ok200 {
		// Only the short average is defined; compare against it alone
		if latestClose > s50 {
			return TrendBullish
		}
		if latestClose < s50 {
			return TrendBearish
		}
		return TrendNeutral
	}

	switch {
	case latestClose > s50 && s50 > s200:
		if crossedAbove(sma50, sma200) {
			return TrendBullishCrossover
		}
		return TrendBullish
	case latestClose < s50 && s50 < s200:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

// crossedAbove reports whether the short average moved above the long
// average within the last few sessions of the series
func crossedAbove(short, long []*float64) bool {
	const window = 5
	n := len(short)
	if len(long) != n {
		return false
	}

	for i := n - 2; i >= 0 && i >= n-1-window; i-- {
		if short[i] == nil || long[i] == nil {
			return false
		}
		if *short[i] <= *long[i] {
			return true
		}
	}
	return false
}

// averageVolume computes the mean volume over the fetched window
func averageVolume(candles []model.Candle) *float64 {
	if len(candles) == 0 {
		return nil
	}
	var sum int64
	for _, c := range candles {
		sum += c.Volume
	}
	avg := float64(sum) / float64(len(candles))
	return &avg
}
