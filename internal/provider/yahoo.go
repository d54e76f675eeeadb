package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pairlens/internal/ratelimit"
	"pairlens/pkg/model"
)

const (
	yahooChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooSummaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary"

	yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// summaryModules are the quoteSummary modules needed for the fundamental
// snapshot.
const summaryModules = "price,summaryDetail,financialData"

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	client     *http.Client
	limiter    *ratelimit.Limiter
	rateLimit  int
	chartURL   string
	summaryURL string
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		client:     &http.Client{Timeout: 30 * time.Second},
		limiter:    ratelimit.NewLimiter("yahoo", 30), // Conservative rate limit
		rateLimit:  30,
		chartURL:   yahooChartURL,
		summaryURL: yahooSummaryURL,
	}
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *YahooProvider) RateLimit() int {
	return p.rateLimit
}

// yahooChartResponse represents the Yahoo Finance chart API response.
// Quote arrays use pointers because Yahoo emits null for halted sessions.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooValue is Yahoo's {raw, fmt} wrapper around numeric fields.
type yahooValue struct {
	Raw *float64 `json:"raw"`
}

// yahooSummaryResponse represents the quoteSummary API response
type yahooSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price *struct {
				LongName  string      `json:"longName"`
				ShortName string      `json:"shortName"`
				Currency  string      `json:"currency"`
				MarketCap *yahooValue `json:"marketCap"`
			} `json:"price"`
			SummaryDetail *struct {
				TrailingPE    *yahooValue `json:"trailingPE"`
				DividendYield *yahooValue `json:"dividendYield"`
				Beta          *yahooValue `json:"beta"`
				AverageVolume *yahooValue `json:"averageVolume"`
			} `json:"summaryDetail"`
			FinancialData *struct {
				CurrentPrice       *yahooValue `json:"currentPrice"`
				TargetMeanPrice    *yahooValue `json:"targetMeanPrice"`
				RecommendationMean *yahooValue `json:"recommendationMean"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// GetDailyHistory fetches daily candles for a symbol over the given period
func (p *YahooProvider) GetDailyHistory(ctx context.Context, symbol, period string) ([]model.Candle, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Yahoo's range parameter uses the same tokens as our period set
	reqURL := fmt.Sprintf("%s/%s?range=%s&interval=1d&includePrePost=false",
		p.chartURL, url.PathEscape(symbol), period)

	var data yahooChartResponse
	if err := p.getJSON(ctx, reqURL, &data); err != nil {
		return nil, err
	}

	if data.Chart.Error != nil {
		if data.Chart.Error.Code == "Not Found" {
			return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
		}
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s", data.Chart.Error.Description)}
	}

	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Timestamp) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}

	result := data.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}
	quotes := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i := range result.Timestamp {
		if i >= len(quotes.Close) || quotes.Close[i] == nil {
			continue
		}

		c := model.Candle{
			Time:  time.Unix(result.Timestamp[i], 0),
			Close: *quotes.Close[i],
		}
		if i < len(quotes.Open) && quotes.Open[i] != nil {
			c.Open = *quotes.Open[i]
		}
		if i < len(quotes.High) && quotes.High[i] != nil {
			c.High = *quotes.High[i]
		}
		if i < len(quotes.Low) && quotes.Low[i] != nil {
			c.Low = *quotes.Low[i]
		}
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			c.Volume = *quotes.Volume[i]
		}
		candles = append(candles, c)
	}

	if len(candles) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}

	return candles, nil
}

// GetFundamentals fetches the fundamental snapshot via the quoteSummary API
func (p *YahooProvider) GetFundamentals(ctx context.Context, symbol string) (*model.FundamentalSnapshot, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s?modules=%s", p.summaryURL, url.PathEscape(symbol), summaryModules)

	var data yahooSummaryResponse
	if err := p.getJSON(ctx, reqURL, &data); err != nil {
		return nil, err
	}

	if data.QuoteSummary.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}
	if len(data.QuoteSummary.Result) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}

	r := data.QuoteSummary.Result[0]
	snap := &model.FundamentalSnapshot{Symbol: symbol}

	if r.Price != nil {
		snap.Name = r.Price.LongName
		if snap.Name == "" {
			snap.Name = r.Price.ShortName
		}
		snap.Currency = r.Price.Currency
		snap.MarketCap = rawValue(r.Price.MarketCap)
	}
	if r.SummaryDetail != nil {
		snap.PERatio = rawValue(r.SummaryDetail.TrailingPE)
		snap.DividendYield = rawValue(r.SummaryDetail.DividendYield)
		snap.Beta = rawValue(r.SummaryDetail.Beta)
		snap.AvgVolume = rawValue(r.SummaryDetail.AverageVolume)
	}
	if r.FinancialData != nil {
		snap.CurrentPrice = rawValue(r.FinancialData.CurrentPrice)
		snap.TargetMeanPrice = rawValue(r.FinancialData.TargetMeanPrice)
		snap.RecommendationMean = rawValue(r.FinancialData.RecommendationMean)
	}

	return snap, nil
}

// getJSON performs a rate-limit-aware GET and decodes the JSON body
func (p *YahooProvider) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%v: %w", err, ErrUnavailable), Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.SignalRateLimited()
		return &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited: %w", ErrUnavailable), Retryable: true}
	}

	if resp.StatusCode == http.StatusNotFound {
		return &ProviderError{Provider: p.Name(), Err: ErrNoData}
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

func rawValue(v *yahooValue) *float64 {
	if v == nil || v.Raw == nil {
		return nil
	}
	f := *v.Raw
	return &f
}
