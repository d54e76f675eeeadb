package report

import (
	"fmt"
	"strings"

	"pairlens/pkg/model"
)

// Sections are the five parts the generated report must contain, in
// request order.
var Sections = []string{
	"Technical Comparison",
	"Fundamental Evaluation",
	"Risk Assessment",
	"Investment Recommendation",
	"Outlook",
}

const unavailable = "unavailable"

// BuildPrompt serializes both analyses into the comparison prompt. The
// output is deterministic for a given pair of analyses.
func BuildPrompt(a, b *model.StockAnalysis) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a financial analyst. Compare the stocks %s and %s based on the data below (period: %s).\n\n",
		a.Symbol, b.Symbol, a.Period)

	writeTickerBlock(&sb, a)
	writeTickerBlock(&sb, b)

	sb.WriteString("Write a complete Markdown report with exactly these numbered sections:\n")
	for i, s := range Sections {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
	}

	sb.WriteString("\nHighlight the comparative advantages of each stock, their specific risks, and favorable and unfavorable scenarios. ")
	sb.WriteString("Use comparative tables where appropriate. ")
	sb.WriteString("If a value is marked 'unavailable', state that the information was not available instead of guessing.\n")

	return sb.String()
}

func writeTickerBlock(sb *strings.Builder, a *model.StockAnalysis) {
	s := a.Summary
	f := a.Fundamentals

	name := a.Symbol
	if f != nil && f.Name != "" {
		name = fmt.Sprintf("%s (%s)", a.Symbol, f.Name)
	}
	fmt.Fprintf(sb, "## %s\n", name)

	fmt.Fprintf(sb, "Technical (%d sessions):\n", s.Sessions)
	fmt.Fprintf(sb, "- Latest close: %.2f\n", s.LatestClose)
	fmt.Fprintf(sb, "- SMA-50: %s\n", fmtMetric(s.SMA50))
	fmt.Fprintf(sb, "- SMA-200: %s\n", fmtMetric(s.SMA200))
	fmt.Fprintf(sb, "- RSI-14: %s\n", fmtMetric(s.RSI14))
	fmt.Fprintf(sb, "- Trend: %s\n", s.Trend)

	sb.WriteString("Fundamentals:\n")
	if f == nil {
		f = &model.FundamentalSnapshot{}
	}
	fmt.Fprintf(sb, "- Current price: %s\n", fmtMetric(f.CurrentPrice))
	fmt.Fprintf(sb, "- Target mean price: %s\n", fmtMetric(f.TargetMeanPrice))
	fmt.Fprintf(sb, "- Recommendation mean: %s\n", fmtMetric(f.RecommendationMean))
	fmt.Fprintf(sb, "- Dividend yield: %s\n", fmtMetric(f.DividendYield))
	fmt.Fprintf(sb, "- P/E ratio: %s\n", fmtMetric(f.PERatio))
	fmt.Fprintf(sb, "- Beta: %s\n", fmtMetric(f.Beta))
	fmt.Fprintf(sb, "- Market cap: %s\n", fmtMetric(f.MarketCap))
	fmt.Fprintf(sb, "- Average volume: %s\n", fmtMetric(f.AvgVolume))
	sb.WriteString("\n")
}

func fmtMetric(v *float64) string {
	if v == nil {
		return unavailable
	}
	return fmt.Sprintf("%.2f", *v)
}
