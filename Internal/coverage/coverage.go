// Package coverage rates how much of an analysis actually completed and
// derives the user-facing risk badges.
package coverage

import (
	"fmt"
	"math"

	"github.com/fazecat/tokensentry/Internal/sources"
	"github.com/fazecat/tokensentry/Internal/types"
	"github.com/fazecat/tokensentry/Internal/utils/config"
)

type PlannedSource struct {
	Key   string
	Label string
}

// Planned is the fixed, ordered list of externally visible sources. The
// on-chain reader is not listed; it counts through the scorer.
var Planned = []PlannedSource{
	{sources.KeyExplorerSource, "Explorer source"},
	{sources.KeyExplorerHolders, "Explorer holders"},
	{sources.KeyExplorerLP, "Explorer LP holders"},
	{sources.KeyGoPlus, "GoPlus security"},
	{sources.KeyHoneypot, "Honeypot simulation"},
	{sources.KeyDexScreener, "DexScreener market"},
	{sources.KeySocialWebsite, "Website"},
	{sources.KeySocialTwitter, "Twitter / X"},
	{sources.KeySocialTelegram, "Telegram"},
}

type Estimator struct {
	cfg     config.CoverageConfig
	scoring config.ScoringConfig
}

func NewEstimator(cfg config.CoverageConfig, scoring config.ScoringConfig) *Estimator {
	return &Estimator{cfg: cfg, scoring: scoring}
}

// SourcesTable lists every planned source in order with its outcome.
func SourcesTable(statuses map[string]sources.Status) []types.SourceStatus {
	table := make([]types.SourceStatus, 0, len(Planned))
	for _, p := range Planned {
		st := statuses[p.Key]
		row := types.SourceStatus{Key: p.Key, Label: p.Label, OK: st.Outcome()}
		switch {
		case !st.Attempted:
			row.Note = "not attempted"
			if st.Error != "" {
				row.Note = "not attempted: " + st.Error
			}
		case !st.OK:
			row.Note = st.Error
		default:
			row.Note = fmt.Sprintf("%d ms", st.MS)
		}
		table = append(table, row)
	}
	return table
}

// Coverage is round(100 * known / planned), where known means ok is true or false.
func Coverage(table []types.SourceStatus) int {
	if len(table) == 0 {
		return 0
	}
	known := 0
	for _, s := range table {
		if s.OK != nil {
			known++
		}
	}
	return int(math.Round(100 * float64(known) / float64(len(table))))
}

func (e *Estimator) Confidence(coverage int) types.Confidence {
	switch {
	case coverage >= e.cfg.HighMin:
		return types.ConfidenceHigh
	case coverage >= e.cfg.MedMin:
		return types.ConfidenceMed
	}
	return types.ConfidenceLow
}

// Apply fills coverage, confidence, sources table and badges on a scored
// report. Below the suppression threshold the grade becomes N/A and the score
// is softened from the raw score.
func (e *Estimator) Apply(report *types.Report, b *sources.Bundle) *types.Report {
	report.SourcesTable = SourcesTable(b.Statuses())
	report.Coverage = Coverage(report.SourcesTable)
	report.Confidence = e.Confidence(report.Coverage)

	if report.Coverage < e.cfg.SuppressBelow {
		report.Grade = types.GradeNA
		report.Score = int(math.Round(float64(report.RawScore) * e.cfg.SoftenFactor))
	} else {
		report.Score = report.RawScore
	}

	report.RiskBadges = e.Badges(report, b)
	return report
}
