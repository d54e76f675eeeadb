package model

import "time"

// Candle represents a single daily candlestick (OHLCV data)
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// TechnicalSummary contains the latest indicator values for one ticker.
// Indicator pointers are nil when the series is too short to compute them.
type TechnicalSummary struct {
	Symbol      string   `json:"symbol"`
	Period      string   `json:"period"`
	Sessions    int      `json:"sessions"`
	LatestClose float64  `json:"latest_close"`
	SMA50       *float64 `json:"sma50,omitempty"`
	SMA200      *float64 `json:"sma200,omitempty"`
	RSI14       *float64 `json:"rsi14,omitempty"`
	Trend       string   `json:"trend"`
}

// FundamentalSnapshot holds per-ticker fundamental metrics at fetch time.
// Fields the provider does not supply stay nil and are surfaced as
// "unavailable" downstream, never defaulted to zero.
type FundamentalSnapshot struct {
	Symbol             string   `json:"symbol"`
	Name               string   `json:"name,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	CurrentPrice       *float64 `json:"current_price,omitempty"`
	TargetMeanPrice    *float64 `json:"target_mean_price,omitempty"`
	RecommendationMean *float64 `json:"recommendation_mean,omitempty"`
	DividendYield      *float64 `json:"dividend_yield,omitempty"`
	PERatio            *float64 `json:"pe_ratio,omitempty"`
	Beta               *float64 `json:"beta,omitempty"`
	MarketCap          *float64 `json:"market_cap,omitempty"`
	AvgVolume          *float64 `json:"avg_volume,omitempty"`
}

// StockAnalysis is the full per-ticker result: the fetched series, the
// chart-aligned indicator series and the derived summaries. Indicator
// series entries are nil for sessions where the window is not yet
// satisfied, so they chart as gaps rather than fabricated values.
type StockAnalysis struct {
	Symbol       string               `json:"symbol"`
	Period       string               `json:"period"`
	Candles      []Candle             `json:"candles"`
	SMA50Series  []*float64           `json:"sma50_series,omitempty"`
	SMA200Series []*float64           `json:"sma200_series,omitempty"`
	RSISeries    []*float64           `json:"rsi_series,omitempty"`
	Summary      *TechnicalSummary    `json:"summary"`
	Fundamentals *FundamentalSnapshot `json:"fundamentals"`
}

// Report is the generated comparison text, returned verbatim from the
// text-generation provider.
type Report struct {
	Text        string    `json:"text"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}
