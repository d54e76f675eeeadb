package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"pairlens/internal/analyzer"
	"pairlens/internal/config"
	"pairlens/internal/provider"
	"pairlens/internal/report"
	"pairlens/internal/web"
	"pairlens/pkg/model"
)

var (
	cfgFile string
	period  string
	format  string
	apiKey  string
	verbose bool
	port    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pairlens TICKER_A TICKER_B",
		Short: "Compare two stocks with technical indicators and an AI report",
		Long: `Pairlens fetches daily price history and fundamentals for two tickers,
computes SMA-50/SMA-200/RSI-14, classifies the trend and asks an
OpenRouter-hosted model for a comparative report.

Examples:
  pairlens AAPL MSFT --period 1y
  pairlens PETR4.SA VALE3.SA --period 6mo --format json
  pairlens serve --port 8080`,
		Args: cobra.ExactArgs(2),
		RunE: runCompare,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.Flags().StringVar(&period, "period", "", "lookback period: 1mo, 3mo, 6mo, 1y, 2y, 5y")
	rootCmd.Flags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "OpenRouter API key (default: OPENROUTER_API_KEY)")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "show detailed output")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	serveCmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if period == "" {
		period = cfg.DefaultPeriod
	}
	if apiKey == "" {
		apiKey = cfg.Report.Key
	}

	prov := createProvider(cfg)
	if verbose {
		fmt.Printf("Using providers: ")
		for i, p := range prov.Providers() {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(p.Name())
		}
		fmt.Println()
	}

	engine := analyzer.NewEngine(provider.NewCachingProvider(prov))
	composer := report.NewComposer(report.Options{
		BaseURL:     cfg.Report.BaseURL,
		Model:       cfg.Report.Model,
		Temperature: cfg.Report.Temperature,
		MaxTokens:   cfg.Report.MaxTokens,
		Timeout:     cfg.Report.Timeout,
	})

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted.")
		cancel()
	}()

	tickerA, tickerB := args[0], args[1]

	bar := progressbar.NewOptions(3,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("Analyzing %s", tickerA)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	a, err := engine.Analyze(ctx, tickerA, period)
	if err != nil {
		bar.Finish()
		return fmt.Errorf("analyzing %s: %w", tickerA, err)
	}
	bar.Describe(fmt.Sprintf("Analyzing %s", tickerB))
	bar.Add(1)

	b, err := engine.Analyze(ctx, tickerB, period)
	if err != nil {
		bar.Finish()
		return fmt.Errorf("analyzing %s: %w", tickerB, err)
	}
	bar.Describe("Generating report")
	bar.Add(1)

	rep, err := composer.Compose(ctx, a, b, apiKey)
	if err != nil {
		bar.Finish()
		return fmt.Errorf("composing report: %w", err)
	}
	bar.Add(1)
	bar.Finish()
	fmt.Println()

	if format == "json" {
		return outputJSON(a, b, rep)
	}
	return outputTable(a, b, rep)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if port == 0 {
		port = cfg.Web.Port
	}

	prov := createProvider(cfg)
	composer := report.NewComposer(report.Options{
		BaseURL:     cfg.Report.BaseURL,
		Model:       cfg.Report.Model,
		Temperature: cfg.Report.Temperature,
		MaxTokens:   cfg.Report.MaxTokens,
		Timeout:     cfg.Report.Timeout,
	})

	// A fresh engine (and run-scoped cache) per request; prices are
	// never served across runs
	newAnalyzer := func() web.Analyzer {
		return analyzer.NewEngine(provider.NewCachingProvider(prov))
	}

	server := web.NewServer(cfg, newAnalyzer, composer)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		server.Shutdown(context.Background())
	}()

	return server.Start(port)
}

func createProvider(cfg *config.Config) *provider.FallbackProvider {
	var providers []provider.Provider

	// Yahoo Finance (primary - no API key, serves fundamentals too)
	providers = append(providers, provider.NewYahooProvider())

	// Alpha Vantage (secondary)
	if cfg.API.AlphaVantage.Key != "" {
		providers = append(providers, provider.NewAlphaVantageProvider(cfg.API.AlphaVantage.Key, cfg.API.AlphaVantage.RateLimit))
	}

	return provider.NewFallbackProvider(providers...)
}

func outputTable(a, b *model.StockAnalysis, rep *model.Report) error {
	fmt.Printf("Comparison: %s vs %s (period: %s)\n\n", a.Symbol, b.Symbol, a.Period)

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Metric", a.Symbol, b.Symbol}),
	)

	rows := []struct {
		name string
		av   string
		bv   string
	}{
		{"Sessions", fmt.Sprintf("%d", a.Summary.Sessions), fmt.Sprintf("%d", b.Summary.Sessions)},
		{"Latest close", fmtCell(&a.Summary.LatestClose), fmtCell(&b.Summary.LatestClose)},
		{"SMA-50", fmtCell(a.Summary.SMA50), fmtCell(b.Summary.SMA50)},
		{"SMA-200", fmtCell(a.Summary.SMA200), fmtCell(b.Summary.SMA200)},
		{"RSI-14", fmtCell(a.Summary.RSI14), fmtCell(b.Summary.RSI14)},
		{"Trend", a.Summary.Trend, b.Summary.Trend},
		{"Current price", fmtCell(a.Fundamentals.CurrentPrice), fmtCell(b.Fundamentals.CurrentPrice)},
		{"Target mean price", fmtCell(a.Fundamentals.TargetMeanPrice), fmtCell(b.Fundamentals.TargetMeanPrice)},
		{"P/E ratio", fmtCell(a.Fundamentals.PERatio), fmtCell(b.Fundamentals.PERatio)},
		{"Dividend yield", fmtCell(a.Fundamentals.DividendYield), fmtCell(b.Fundamentals.DividendYield)},
		{"Beta", fmtCell(a.Fundamentals.Beta), fmtCell(b.Fundamentals.Beta)},
		{"Market cap", fmtCell(a.Fundamentals.MarketCap), fmtCell(b.Fundamentals.MarketCap)},
	}
	for _, r := range rows {
		table.Append([]string{r.name, r.av, r.bv})
	}
	table.Render()

	fmt.Printf("\n--- Report (%s) ---\n\n%s\n", rep.Model, rep.Text)
	return nil
}

func fmtCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func outputJSON(a, b *model.StockAnalysis, rep *model.Report) error {
	result := struct {
		A      *model.StockAnalysis `json:"a"`
		B      *model.StockAnalysis `json:"b"`
		Report *model.Report        `json:"report"`
	}{A: a, B: b, Report: rep}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
