package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pairlens/internal/analyzer"
	"pairlens/internal/provider"
	"pairlens/internal/report"
	"pairlens/pkg/model"
)

// CompareRequest represents a comparison request
type CompareRequest struct {
	TickerA string `json:"ticker_a"`
	TickerB string `json:"ticker_b"`
	Period  string `json:"period"`
	APIKey  string `json:"api_key"`
}

// CompareResponse carries both analyses and the generated report
type CompareResponse struct {
	A        *model.StockAnalysis `json:"a"`
	B        *model.StockAnalysis `json:"b"`
	Report   *model.Report        `json:"report"`
	Duration string               `json:"duration"`
}

// StockResponse represents a single-ticker analysis for charting
type StockResponse struct {
	*model.StockAnalysis
}

// PeriodsResponse lists the supported lookback windows
type PeriodsResponse struct {
	Periods []string `json:"periods"`
	Default string   `json:"default"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// handleCompare runs the full pipeline: analyze both tickers in order,
// then compose the report
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed — use POST", http.StatusMethodNotAllowed)
		return
	}

	reqID := uuid.NewString()[:8]

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, reqID, analyzer.ErrInvalidParameter)
		return
	}

	if req.Period == "" {
		req.Period = s.config.DefaultPeriod
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.config.Report.Key
	}

	log.Printf("[WEB] %s compare %s vs %s (period=%s)", reqID, req.TickerA, req.TickerB, req.Period)
	start := time.Now()

	ctx := r.Context()
	engine := s.newAnalyzer()

	// Sequential by design; A and B ordering is preserved for the composer
	a, err := engine.Analyze(ctx, req.TickerA, req.Period)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	b, err := engine.Analyze(ctx, req.TickerB, req.Period)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	rep, err := s.composer.Compose(ctx, a, b, apiKey)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	elapsed := time.Since(start)
	log.Printf("[WEB] %s compare done in %s", reqID, elapsed.Round(time.Millisecond))

	resp := CompareResponse{
		A:        a,
		B:        b,
		Report:   rep,
		Duration: elapsed.Round(time.Millisecond).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleStock returns a single ticker's analysis with chart series
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reqID := uuid.NewString()[:8]

	// Extract symbol from path: /api/stock/AAPL
	symbol := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/stock/"))

	period := r.URL.Query().Get("period")
	if period == "" {
		period = s.config.DefaultPeriod
	}

	log.Printf("[WEB] %s stock %s (period=%s)", reqID, symbol, period)

	result, err := s.newAnalyzer().Analyze(r.Context(), symbol, period)
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StockResponse{StockAnalysis: result})
}

// handlePeriods returns the supported lookback windows for the selector
func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := PeriodsResponse{
		Periods: provider.Periods,
		Default: s.config.DefaultPeriod,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError maps pipeline error kinds to HTTP statuses. Every error is
// terminal for the run; the browser shows the message and lets the user
// re-trigger the flow.
func writeError(w http.ResponseWriter, reqID string, err error) {
	status := http.StatusInternalServerError
	kind := "internal"

	switch {
	case errors.Is(err, analyzer.ErrInvalidParameter):
		status = http.StatusBadRequest
		kind = "invalid_parameter"
	case errors.Is(err, provider.ErrNoData):
		status = http.StatusNotFound
		kind = "no_data_found"
	case errors.Is(err, provider.ErrUnavailable):
		status = http.StatusBadGateway
		kind = "data_provider_unavailable"
	case errors.Is(err, report.ErrAuthentication):
		status = http.StatusUnauthorized
		kind = "authentication_error"
	case errors.Is(err, report.ErrGenerationFailed):
		status = http.StatusBadGateway
		kind = "generation_failed"
	}

	log.Printf("[WEB] %s error (%s): %v", reqID, kind, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Kind: kind})
}
