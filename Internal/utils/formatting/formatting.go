package formatting

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fazecat/tokensentry/Internal/types"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// RepeatString repeats a string n times
func RepeatString(s string, count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat(s, count)
}

// Separator returns a line separator of given width
func Separator(width int) string {
	return RepeatString("=", width)
}

// USD formats a dollar amount with thousands separators, e.g. $12,345.
func USD(v float64) string {
	return printer.Sprintf("$%d", int64(math.Round(v)))
}

// Percent formats a percentage with one decimal, e.g. 25.0%.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func gradeIcon(g types.Grade) string {
	switch g {
	case types.GradeA, types.GradeB:
		return "🟢"
	case types.GradeC:
		return "🟡"
	case types.GradeD:
		return "🟠"
	case types.GradeF:
		return "🔴"
	}
	return "⚪"
}

func badgeIcon(l types.BadgeLevel) string {
	switch l {
	case types.BadgeHigh:
		return "🚨"
	case types.BadgeWarn:
		return "⚠️ "
	}
	return "ℹ️ "
}

func okIcon(ok *bool) string {
	if ok == nil {
		return "➖"
	}
	if *ok {
		return "✅"
	}
	return "❌"
}

// RenderReport writes a human-readable report for terminals.
func RenderReport(w io.Writer, r *types.Report) {
	title := r.Address
	if r.Symbol != "" {
		title = fmt.Sprintf("%s (%s) %s", r.Name, r.Symbol, r.Address)
	}

	fmt.Fprintln(w, Separator(70))
	fmt.Fprintf(w, "🔎 %s  chain %d\n", title, r.ChainID)
	fmt.Fprintln(w, Separator(70))
	fmt.Fprintf(w, "%s Score: %d/100   Grade: %s", gradeIcon(r.Grade), r.Score, r.Grade)
	if r.Score != r.RawScore {
		fmt.Fprintf(w, "   (raw %d)", r.RawScore)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "📊 Coverage: %d%%   Confidence: %s\n", r.Coverage, r.Confidence)

	if len(r.RiskBadges) > 0 {
		fmt.Fprintln(w, "\nRisks:")
		for _, b := range r.RiskBadges {
			fmt.Fprintf(w, "  %s %s\n", badgeIcon(b.Level), b.Text)
		}
	}

	fmt.Fprintln(w, "\nFindings:")
	for _, f := range r.Findings {
		mark := "✅"
		if !f.Passed {
			mark = "❌"
		}
		fmt.Fprintf(w, "  %s [%-9s] %-22s %4.0f  %s\n", mark, f.Category, f.Key, f.Weight, f.Note)
	}

	fmt.Fprintln(w, "\nMetrics:")
	m := r.Metrics
	if m.LiquidityUSD != nil {
		fmt.Fprintf(w, "  Liquidity:     %s\n", USD(*m.LiquidityUSD))
	}
	if m.TopHolderPct != nil {
		fmt.Fprintf(w, "  Top holder:    %s\n", Percent(*m.TopHolderPct))
	}
	if m.BuySellRatio != "" {
		fmt.Fprintf(w, "  Buy/sell 24h:  %s\n", m.BuySellRatio)
	}
	if m.BuyTaxPct != nil && m.SellTaxPct != nil {
		fmt.Fprintf(w, "  Tax buy/sell:  %s / %s\n", Percent(*m.BuyTaxPct), Percent(*m.SellTaxPct))
	}
	if m.HolderCount != nil {
		fmt.Fprintf(w, "  Holders:       %s\n", printer.Sprintf("%d", *m.HolderCount))
	}

	fmt.Fprintln(w, "\nSources:")
	for _, s := range r.SourcesTable {
		line := fmt.Sprintf("  %s %-20s", okIcon(s.OK), s.Label)
		if s.Note != "" {
			line += "  " + s.Note
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, Separator(70))
}
