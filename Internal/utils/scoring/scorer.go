package scoring

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/fazecat/tokensentry/Internal/sources"
	"github.com/fazecat/tokensentry/Internal/types"
	"github.com/fazecat/tokensentry/Internal/utils/config"
	"github.com/fazecat/tokensentry/Internal/utils/formatting"
)

const (
	CategoryContract  = "contract"
	CategorySupply    = "supply"
	CategoryLiquidity = "liquidity"
	CategoryMarket    = "market"
	CategorySecurity  = "security"
)

const (
	KeySourceVerified      = "source_verified"
	KeyProxyRisk           = "proxy_risk"
	KeyOwnershipRenounced  = "ownership_renounced"
	KeyTransferControls    = "transfer_controls"
	KeyHolderConcentration = "holder_concentration"
	KeyTeamBalance         = "team_balance"
	KeyAirdropPattern      = "airdrop_pattern"
	KeyLiquidityDepth      = "liquidity_depth"
	KeyLPLocked            = "lp_locked"
	KeyLPPullMint          = "lp_pull_mint"
	KeyBuySellBalance      = "buy_sell_balance"
	KeyDominantWallet      = "dominant_wallet"
	KeyTaxSwing            = "tax_swing"
	KeyTradeSimulation     = "trade_simulation"
	KeyScannerFlags        = "scanner_flags"
	KeySocialsPresent      = "socials_present"
)

// Category weights: contract 30, supply 20, liquidity 20, market 15, security 15.
const (
	WeightSourceVerified      = 10
	WeightProxyRisk           = 6
	WeightOwnershipRenounced  = 8
	WeightTransferControls    = 6
	WeightHolderConcentration = 8
	WeightTeamBalance         = 6
	WeightAirdropPattern      = 6
	WeightLiquidityDepth      = 10
	WeightLPLocked            = 6
	WeightLPPullMint          = 4
	WeightBuySellBalance      = 6
	WeightDominantWallet      = 5
	WeightTaxSwing            = 4
	WeightTradeSimulation     = 6
	WeightScannerFlags        = 6
	WeightSocialsPresent      = 3
)

type Scorer struct {
	cfg        config.ScoringConfig
	teamLike   *regexp.Regexp
	restricted *regexp.Regexp
	mint       *regexp.Regexp
}

func NewScorer(cfg config.ScoringConfig) (*Scorer, error) {
	s := &Scorer{cfg: cfg}
	var err error
	if s.teamLike, err = regexp.Compile(cfg.TeamLikePattern); err != nil {
		return nil, fmt.Errorf("team_like_pattern: %w", err)
	}
	if s.restricted, err = regexp.Compile(cfg.RestrictedCodePattern); err != nil {
		return nil, fmt.Errorf("restricted_code_pattern: %w", err)
	}
	if s.mint, err = regexp.Compile(cfg.MintCodePattern); err != nil {
		return nil, fmt.Errorf("mint_code_pattern: %w", err)
	}
	return s, nil
}

// Score derives findings, metrics, score and grade from a bundle. Coverage
// fields are left for the estimator.
func (s *Scorer) Score(address string, b *sources.Bundle) *types.Report {
	ev := BuildEvidence(b)
	hc := holderContext{
		owner:    ev.Owner,
		creator:  ev.Creator,
		pairs:    ev.Pairs,
		lockers:  s.cfg.Lockers,
		teamLike: s.teamLike.MatchString,
	}

	report := &types.Report{
		Address: address,
		ChainID: b.ChainID,
		Name:    ev.Name,
		Symbol:  ev.Symbol,
	}

	topPct := TopHolderPct(ev.Holders)
	report.Metrics = types.Metrics{
		LiquidityUSD: ev.LiquidityUSD,
		TopHolderPct: topPct,
		BuySellRatio: buySellRatio(ev.Buys, ev.Sells),
		BuyTaxPct:    ev.BuyTaxPct,
		SellTaxPct:   ev.SellTaxPct,
		HolderCount:  ev.HolderCount,
	}

	locked := ev.Listed && anyLocker(ev.LPHolders, s.cfg.Lockers)

	report.Findings = []types.Finding{
		s.sourceVerified(ev),
		s.proxyRisk(ev),
		s.ownershipRenounced(ev),
		s.transferControls(ev, b.Security),
		s.holderConcentration(ev, topPct),
		s.teamBalance(ev, hc),
		s.airdropPattern(ev),
		s.liquidityDepth(ev),
		s.lpLocked(ev, locked),
		s.lpPullMint(ev, b.Security, locked),
		s.buySellBalance(ev),
		s.dominantWallet(ev, hc),
		s.taxSwing(ev),
		s.tradeSimulation(b.Simulation),
		s.scannerFlags(b.Security),
		s.socialsPresent(b),
	}

	report.RawScore = WeightedScore(report.Findings)
	report.Score = report.RawScore
	report.Grade = GradeFor(report.Score)
	report.Summary = Summarize(report.Findings, s.cfg.SummarySize)
	return report
}

// WeightedScore is round(100 * earned / total).
func WeightedScore(findings []types.Finding) int {
	var earned, total float64
	for _, f := range findings {
		total += f.Weight
		if f.Passed {
			earned += f.Weight
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * earned / total))
}

func GradeFor(score int) types.Grade {
	switch {
	case score >= 90:
		return types.GradeA
	case score >= 80:
		return types.GradeB
	case score >= 70:
		return types.GradeC
	case score >= 60:
		return types.GradeD
	}
	return types.GradeF
}

// Summarize returns the n heaviest findings; ties keep taxonomy order.
func Summarize(findings []types.Finding, n int) []types.Finding {
	sorted := make([]types.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func finding(key, category string, weight float64, passed bool, note string) types.Finding {
	return types.Finding{Key: key, Category: category, Weight: weight, Passed: passed, Note: note}
}

func unknown(key, category string, weight float64, note string) types.Finding {
	return types.Finding{Key: key, Category: category, Weight: weight, Note: note, Unknown: true}
}

func (s *Scorer) sourceVerified(ev Evidence) types.Finding {
	const key, cat, w = KeySourceVerified, CategoryContract, WeightSourceVerified
	switch {
	case ev.Verified == nil:
		return unknown(key, cat, w, "Verification status unavailable")
	case *ev.Verified:
		return finding(key, cat, w, true, fmt.Sprintf("Source code verified (%s)", ev.VerifiedBy))
	}
	return finding(key, cat, w, false, fmt.Sprintf("Source code not verified (%s)", ev.VerifiedBy))
}

func (s *Scorer) proxyRisk(ev Evidence) types.Finding {
	const key, cat, w = KeyProxyRisk, CategoryContract, WeightProxyRisk
	switch {
	case len(ev.ProxyYes) > 0:
		note := "Upgradeable proxy detected via " + strings.Join(ev.ProxyYes, ", ")
		if ev.Implementation != "" {
			note += "; implementation " + ev.Implementation
		}
		return finding(key, cat, w, false, note)
	case len(ev.ProxyNo) > 0:
		return finding(key, cat, w, true, "No proxy detected via "+strings.Join(ev.ProxyNo, ", "))
	}
	return unknown(key, cat, w, "Proxy status unavailable")
}

func (s *Scorer) ownershipRenounced(ev Evidence) types.Finding {
	const key, cat, w = KeyOwnershipRenounced, CategoryContract, WeightOwnershipRenounced
	if !ev.OwnerKnown {
		return unknown(key, cat, w, "Owner could not be determined")
	}
	if IsBurnAddress(ev.Owner) {
		return finding(key, cat, w, true, fmt.Sprintf("Ownership renounced to %s", ev.Owner))
	}
	return finding(key, cat, w, false, fmt.Sprintf("Owner %s retains privileges (%s)", ev.Owner, ev.OwnerFrom))
}

func (s *Scorer) transferControls(ev Evidence, sec sources.SecurityRecord) types.Finding {
	const key, cat, w = KeyTransferControls, CategoryContract, WeightTransferControls
	if sec.OK && (sec.Blacklisted != nil || sec.Whitelisted != nil) {
		var flagged []string
		if isTrue(sec.Blacklisted) {
			flagged = append(flagged, "blacklist")
		}
		if isTrue(sec.Whitelisted) {
			flagged = append(flagged, "whitelist")
		}
		if len(flagged) > 0 {
			return finding(key, cat, w, false, "Scanner reports "+strings.Join(flagged, " and ")+" controls")
		}
		return finding(key, cat, w, true, "No blacklist or whitelist controls reported")
	}
	if ev.SourceCode != "" {
		if m := s.restricted.FindString(ev.SourceCode); m != "" {
			return finding(key, cat, w, false, fmt.Sprintf("Verified source declares %s", strings.TrimSpace(m)))
		}
		return finding(key, cat, w, true, "No blacklist or whitelist functions in verified source")
	}
	return unknown(key, cat, w, "Transfer controls could not be checked")
}

func (s *Scorer) holderConcentration(ev Evidence, topPct *float64) types.Finding {
	const key, cat, w = KeyHolderConcentration, CategorySupply, WeightHolderConcentration
	if topPct == nil {
		return unknown(key, cat, w, "Holder list unavailable")
	}
	note := fmt.Sprintf("Top holder controls %s of listed supply", formatting.Percent(*topPct))
	return finding(key, cat, w, *topPct < s.cfg.TopHolderMaxPct, note)
}

func (s *Scorer) teamBalance(ev Evidence, hc holderContext) types.Finding {
	const key, cat, w = KeyTeamBalance, CategorySupply, WeightTeamBalance
	if len(ev.Holders) == 0 {
		return unknown(key, cat, w, "Holder list unavailable")
	}
	pct := hc.TeamLikePct(ev.Holders)
	pct += unlistedPct(ev.Holders, ev.Owner, ev.OwnerPct)
	if ev.Creator != ev.Owner {
		pct += unlistedPct(ev.Holders, ev.Creator, ev.CreatorPct)
	}
	note := fmt.Sprintf("Team-like wallets hold %s", formatting.Percent(pct))
	return finding(key, cat, w, pct < s.cfg.TeamBalanceMaxPct, note)
}

// unlistedPct adds a scanner-reported share for an owner or creator that does
// not appear in the holder list.
func unlistedPct(holders []sources.Holder, addr string, pct *float64) float64 {
	if pct == nil || addr == "" || IsBurnAddress(addr) {
		return 0
	}
	for _, h := range holders {
		if h.Address == addr {
			return 0
		}
	}
	return *pct
}

func (s *Scorer) airdropPattern(ev Evidence) types.Finding {
	const key, cat, w = KeyAirdropPattern, CategorySupply, WeightAirdropPattern
	if len(ev.Holders) == 0 {
		return unknown(key, cat, w, "Holder list unavailable")
	}
	pairs := NearEqualPairs(ev.Holders, s.cfg.AirdropTolerance)
	if pairs > s.cfg.AirdropMaxEqualPairs {
		return finding(key, cat, w, false, fmt.Sprintf("%d near-identical holder balances suggest an airdrop", pairs))
	}
	return finding(key, cat, w, true, fmt.Sprintf("%d near-identical holder balances", pairs))
}

func (s *Scorer) liquidityDepth(ev Evidence) types.Finding {
	const key, cat, w = KeyLiquidityDepth, CategoryLiquidity, WeightLiquidityDepth
	if ev.LiquidityUSD == nil {
		return unknown(key, cat, w, "Liquidity unavailable")
	}
	note := fmt.Sprintf("Pool liquidity %s", formatting.USD(math.Floor(*ev.LiquidityUSD)))
	return finding(key, cat, w, *ev.LiquidityUSD >= s.cfg.LiquidityMinUSD, note)
}

func (s *Scorer) lpLocked(ev Evidence, locked bool) types.Finding {
	const key, cat, w = KeyLPLocked, CategoryLiquidity, WeightLPLocked
	switch {
	case !ev.Listed:
		return finding(key, cat, w, false, "No DEX listing found")
	case locked:
		return finding(key, cat, w, true, "LP tokens held by a locker or burned")
	case len(ev.LPHolders) == 0:
		return unknown(key, cat, w, "LP holders unavailable")
	}
	return finding(key, cat, w, false, "No LP lock detected")
}

func (s *Scorer) lpPullMint(ev Evidence, sec sources.SecurityRecord, locked bool) types.Finding {
	const key, cat, w = KeyLPPullMint, CategoryLiquidity, WeightLPPullMint

	var mintable *bool
	switch {
	case sec.OK && sec.Mintable != nil:
		mintable = sec.Mintable
	case ev.SourceCode != "":
		m := s.mint.MatchString(ev.SourceCode)
		mintable = &m
	}
	if mintable == nil {
		return unknown(key, cat, w, "Mint capability unknown")
	}
	if *mintable {
		return finding(key, cat, w, false, "Supply is mintable")
	}
	if !ev.Listed || locked {
		return finding(key, cat, w, true, "Not mintable; no unlocked LP to pull")
	}
	if len(ev.LPHolders) == 0 {
		return unknown(key, cat, w, "Not mintable; LP holders unavailable")
	}

	top := TopHolderPct(ev.LPHolders)
	if top == nil {
		return unknown(key, cat, w, "Not mintable; LP holders unavailable")
	}
	note := fmt.Sprintf("Not mintable; largest LP holder has %s", formatting.Percent(*top))
	return finding(key, cat, w, *top < s.cfg.LPPullMaxPct, note)
}

func (s *Scorer) buySellBalance(ev Evidence) types.Finding {
	const key, cat, w = KeyBuySellBalance, CategoryMarket, WeightBuySellBalance
	if ev.Buys == nil || ev.Sells == nil {
		return unknown(key, cat, w, "24h transactions unavailable")
	}
	buys, sells := *ev.Buys, *ev.Sells
	note := fmt.Sprintf("24h buys %d / sells %d", buys, sells)
	if sells == 0 {
		return finding(key, cat, w, buys > 0, note)
	}
	ratio := float64(buys) / float64(sells)
	return finding(key, cat, w, ratio >= s.cfg.BuySellMin && ratio <= s.cfg.BuySellMax, note)
}

func buySellRatio(buys, sells *int) string {
	if buys == nil || sells == nil {
		return ""
	}
	if *sells == 0 {
		if *buys == 0 {
			return ""
		}
		return "inf"
	}
	return fmt.Sprintf("%.2f", float64(*buys)/float64(*sells))
}

func (s *Scorer) dominantWallet(ev Evidence, hc holderContext) types.Finding {
	const key, cat, w = KeyDominantWallet, CategoryMarket, WeightDominantWallet
	if len(ev.Holders) == 0 {
		return unknown(key, cat, w, "Holder list unavailable")
	}
	pct := hc.DominantWalletPct(ev.Holders)
	note := fmt.Sprintf("Largest non-pool wallet holds %s", formatting.Percent(pct))
	return finding(key, cat, w, pct < s.cfg.DominantWalletMaxPct, note)
}

func (s *Scorer) taxSwing(ev Evidence) types.Finding {
	const key, cat, w = KeyTaxSwing, CategoryMarket, WeightTaxSwing
	if ev.BuyTaxPct == nil || ev.SellTaxPct == nil {
		return unknown(key, cat, w, "Taxes unavailable")
	}
	swing := *ev.SellTaxPct - *ev.BuyTaxPct
	note := fmt.Sprintf("Buy tax %s, sell tax %s (%s)", formatting.Percent(*ev.BuyTaxPct), formatting.Percent(*ev.SellTaxPct), ev.TaxFrom)
	return finding(key, cat, w, math.Abs(swing) <= s.cfg.TaxSwingMax, note)
}

func (s *Scorer) tradeSimulation(sim sources.SimulationRecord) types.Finding {
	const key, cat, w = KeyTradeSimulation, CategorySecurity, WeightTradeSimulation
	switch {
	case !sim.OK:
		return unknown(key, cat, w, "Trade simulation unavailable")
	case isTrue(sim.IsHoneypot):
		reason := sim.HoneypotReason
		if reason == "" {
			reason = "sell blocked"
		}
		return finding(key, cat, w, false, "Honeypot: "+reason)
	case !sim.SimulationSuccess:
		reason := sim.HoneypotReason
		if reason == "" {
			reason = "simulation did not complete"
		}
		return finding(key, cat, w, false, "Simulation failed: "+reason)
	case !isTrue(sim.CanBuy) || !isTrue(sim.CanSell):
		return finding(key, cat, w, false, "Simulated buy or sell did not go through")
	}
	return finding(key, cat, w, true, "Simulated buy and sell succeeded")
}

func (s *Scorer) scannerFlags(sec sources.SecurityRecord) types.Finding {
	const key, cat, w = KeyScannerFlags, CategorySecurity, WeightScannerFlags
	if !sec.OK {
		return unknown(key, cat, w, "Security scanner unavailable")
	}
	flags := []struct {
		name string
		val  *bool
	}{
		{"honeypot", sec.Honeypot},
		{"cannot buy", sec.CannotBuy},
		{"cannot sell all", sec.CannotSellAll},
		{"hidden owner", sec.HiddenOwner},
		{"selfdestruct", sec.SelfDestruct},
		{"owner can reclaim", sec.TakeBackOwnership},
		{"owner can change balances", sec.OwnerChangeBalance},
		{"transfers pausable", sec.TransferPausable},
		{"slippage modifiable", sec.SlippageModifiable},
		{"trading cooldown", sec.TradingCooldown},
	}
	var raised []string
	for _, f := range flags {
		if isTrue(f.val) {
			raised = append(raised, f.name)
		}
	}
	if len(raised) > 0 {
		return finding(key, cat, w, false, "Scanner flags: "+strings.Join(raised, ", "))
	}
	return finding(key, cat, w, true, "No scanner flags raised")
}

func (s *Scorer) socialsPresent(b *sources.Bundle) types.Finding {
	const key, cat, w = KeySocialsPresent, CategorySecurity, WeightSocialsPresent
	var live []string
	for _, rec := range []sources.SocialRecord{b.Website, b.Twitter, b.Telegram} {
		if rec.OK {
			live = append(live, rec.Kind)
		}
	}
	if len(live) == 0 {
		return finding(key, cat, w, false, "No live social profiles found")
	}
	return finding(key, cat, w, true, "Live socials: "+strings.Join(live, ", "))
}

func anyLocker(holders []sources.Holder, lockers []string) bool {
	for _, h := range holders {
		if matchesLocker(h, lockers) {
			return true
		}
	}
	return false
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
