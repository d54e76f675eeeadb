package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"pairlens/internal/ratelimit"
	"pairlens/pkg/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider implements the Provider interface for Alpha Vantage API
type AlphaVantageProvider struct {
	apiKey    string
	client    *http.Client
	limiter   *ratelimit.Limiter
	rateLimit int
	baseURL   string
}

// NewAlphaVantageProvider creates a new Alpha Vantage provider
func NewAlphaVantageProvider(apiKey string, rateLimitPerMin int) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   ratelimit.NewLimiter("alphavantage", rateLimitPerMin),
		rateLimit: rateLimitPerMin,
		baseURL:   alphaVantageBaseURL,
	}
}

// Name returns the provider name
func (p *AlphaVantageProvider) Name() string {
	return "alphavantage"
}

// IsAvailable checks if the provider has an API key
func (p *AlphaVantageProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// RateLimit returns the rate limit per minute
func (p *AlphaVantageProvider) RateLimit() int {
	return p.rateLimit
}

// alphaVantageDailyResponse represents the TIME_SERIES_DAILY response
type alphaVantageDailyResponse struct {
	MetaData   map[string]string            `json:"Meta Data"`
	TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
	Note       string                       `json:"Note"` // Rate limit message
	Error      string                       `json:"Error Message"`
}

// alphaVantageOverview represents the OVERVIEW response; all values are
// strings, absent metrics come back as "None" or "-"
type alphaVantageOverview struct {
	Symbol              string `json:"Symbol"`
	Name                string `json:"Name"`
	Currency            string `json:"Currency"`
	PERatio             string `json:"PERatio"`
	Beta                string `json:"Beta"`
	DividendYield       string `json:"DividendYield"`
	MarketCapitalizaton string `json:"MarketCapitalization"`
	AnalystTargetPrice  string `json:"AnalystTargetPrice"`
	Note                string `json:"Note"`
	Error               string `json:"Error Message"`
}

// GetDailyHistory fetches daily candles and trims them to the period window
func (p *AlphaVantageProvider) GetDailyHistory(ctx context.Context, symbol, period string) ([]model.Candle, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	outputSize := "compact" // last 100 sessions
	if PeriodDays(period) > 100 {
		outputSize = "full"
	}
	url := fmt.Sprintf("%s?function=TIME_SERIES_DAILY&symbol=%s&outputsize=%s&apikey=%s",
		p.baseURL, symbol, outputSize, p.apiKey)

	var data alphaVantageDailyResponse
	if err := p.getJSON(ctx, url, &data); err != nil {
		return nil, err
	}

	if data.Note != "" {
		p.limiter.SignalRateLimited()
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited: %w", ErrUnavailable), Retryable: true}
	}
	if data.Error != "" {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}
	if len(data.TimeSeries) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}

	cutoff := time.Now().AddDate(0, 0, -PeriodDays(period))

	var candles []model.Candle
	for dateStr, values := range data.TimeSeries {
		t, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if t.Before(cutoff) {
			continue
		}

		// A close that fails to parse would enter the series as 0 and
		// skew every average; drop the session instead
		closePrice, err := strconv.ParseFloat(values["4. close"], 64)
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(values["1. open"], 64)
		high, _ := strconv.ParseFloat(values["2. high"], 64)
		low, _ := strconv.ParseFloat(values["3. low"], 64)
		volume, _ := strconv.ParseInt(values["5. volume"], 10, 64)

		candles = append(candles, model.Candle{
			Time:   t,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	if len(candles) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}

	// Map iteration order is random; the series must be chronological
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	return candles, nil
}

// GetFundamentals fetches company fundamentals via the OVERVIEW function
func (p *AlphaVantageProvider) GetFundamentals(ctx context.Context, symbol string) (*model.FundamentalSnapshot, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s?function=OVERVIEW&symbol=%s&apikey=%s", p.baseURL, symbol, p.apiKey)

	var data alphaVantageOverview
	if err := p.getJSON(ctx, url, &data); err != nil {
		return nil, err
	}

	if data.Note != "" {
		p.limiter.SignalRateLimited()
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited: %w", ErrUnavailable), Retryable: true}
	}
	if data.Error != "" || data.Symbol == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}

	return &model.FundamentalSnapshot{
		Symbol:          symbol,
		Name:            data.Name,
		Currency:        data.Currency,
		PERatio:         parseMetric(data.PERatio),
		Beta:            parseMetric(data.Beta),
		DividendYield:   parseMetric(data.DividendYield),
		MarketCap:       parseMetric(data.MarketCapitalizaton),
		TargetMeanPrice: parseMetric(data.AnalystTargetPrice),
	}, nil
}

func (p *AlphaVantageProvider) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%v: %w", err, ErrUnavailable), Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.SignalRateLimited()
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited: %w", ErrUnavailable), Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d: %w", resp.StatusCode, ErrUnavailable)}
	}

	p.limiter.ResetBackoff()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// parseMetric converts an Alpha Vantage string metric to a float pointer.
// "None", "-" and empty values are treated as unavailable.
func parseMetric(s string) *float64 {
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
