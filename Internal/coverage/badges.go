package coverage

import (
	"fmt"
	"math"

	"github.com/fazecat/tokensentry/Internal/sources"
	"github.com/fazecat/tokensentry/Internal/types"
	"github.com/fazecat/tokensentry/Internal/utils/formatting"
	"github.com/fazecat/tokensentry/Internal/utils/scoring"
)

const (
	BadgeOwnerPrivileges    = "owner_privileges"
	BadgeUnverified         = "unverified"
	BadgeLowLiquidity       = "low_liquidity"
	BadgeHolderConcentrated = "holder_concentration"
	BadgeHoneypot           = "honeypot"
	BadgeTransferControls   = "transfer_controls"
)

const severeConcentrationPct = 50

// Badges inspects findings and metrics after scoring. Findings that failed
// only for lack of data never raise a badge.
func (e *Estimator) Badges(r *types.Report, b *sources.Bundle) []types.RiskBadge {
	badges := []types.RiskBadge{}

	if f, ok := r.Finding(scoring.KeyOwnershipRenounced); ok && !f.Passed && !f.Unknown {
		badges = append(badges, types.RiskBadge{Key: BadgeOwnerPrivileges, Level: types.BadgeWarn, Text: "Owner retains privileges"})
	}
	if f, ok := r.Finding(scoring.KeySourceVerified); ok && !f.Passed && !f.Unknown {
		badges = append(badges, types.RiskBadge{Key: BadgeUnverified, Level: types.BadgeHigh, Text: "Contract source is not verified"})
	}
	if liq := r.Metrics.LiquidityUSD; liq != nil && *liq < e.scoring.LiquidityMinUSD {
		// floored so an amount just under the minimum never prints as the minimum
		badges = append(badges, types.RiskBadge{
			Key:   BadgeLowLiquidity,
			Level: types.BadgeWarn,
			Text:  fmt.Sprintf("Liquidity %s is below %s", formatting.USD(math.Floor(*liq)), formatting.USD(e.scoring.LiquidityMinUSD)),
		})
	}
	if top := r.Metrics.TopHolderPct; top != nil && *top >= e.scoring.TopHolderMaxPct {
		level := types.BadgeWarn
		if *top >= severeConcentrationPct {
			level = types.BadgeHigh
		}
		badges = append(badges, types.RiskBadge{
			Key:   BadgeHolderConcentrated,
			Level: level,
			Text:  fmt.Sprintf("Top holder controls %s of listed supply", formatting.Percent(*top)),
		})
	}
	if reason, flagged := honeypotFlag(b); flagged {
		badges = append(badges, types.RiskBadge{Key: BadgeHoneypot, Level: types.BadgeHigh, Text: "Honeypot risk: " + reason})
	}
	if f, ok := r.Finding(scoring.KeyTransferControls); ok && !f.Passed && !f.Unknown {
		badges = append(badges, types.RiskBadge{Key: BadgeTransferControls, Level: types.BadgeWarn, Text: "Restrictive transfer controls detected"})
	}
	return badges
}

func honeypotFlag(b *sources.Bundle) (string, bool) {
	sim, sec := b.Simulation, b.Security
	if sim.OK && sim.IsHoneypot != nil && *sim.IsHoneypot {
		if sim.HoneypotReason != "" {
			return sim.HoneypotReason, true
		}
		return "simulated sell failed", true
	}
	if sim.OK && sim.SimulationSuccess && sim.CanSell != nil && !*sim.CanSell {
		return "simulated sell failed", true
	}
	if sec.OK && sec.Honeypot != nil && *sec.Honeypot {
		return "flagged by security scanner", true
	}
	return "", false
}
