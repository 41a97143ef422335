package scoring

import (
	"strings"

	"github.com/fazecat/tokensentry/Internal/sources"
)

// Evidence is the canonical input to the scorer. Each field is resolved once
// from the bundle, with provider fallbacks applied here.
type Evidence struct {
	Name   string
	Symbol string

	Verified   *bool
	VerifiedBy string
	SourceCode string

	ProxyYes       []string
	ProxyNo        []string
	Implementation string

	Owner      string
	OwnerKnown bool
	OwnerFrom  string
	Creator    string
	OwnerPct   *float64
	CreatorPct *float64

	Holders     []sources.Holder
	HoldersFrom string
	LPHolders   []sources.Holder
	Pairs       map[string]bool
	HolderCount *int

	Listed       bool
	LiquidityUSD *float64
	Buys         *int
	Sells        *int

	BuyTaxPct  *float64
	SellTaxPct *float64
	TaxFrom    string
}

func BuildEvidence(b *sources.Bundle) Evidence {
	ev := Evidence{Pairs: map[string]bool{}}
	chain, src, sec, sim, market := b.Chain, b.Source, b.Security, b.Simulation, b.Market

	ev.Name, ev.Symbol = firstNonEmpty(chain.Name, sec.TokenName, sim.TokenName), firstNonEmpty(chain.Symbol, sec.TokenSymbol, sim.TokenSymbol)
	if market.Pair != nil {
		ev.Name = firstNonEmpty(ev.Name, market.Pair.BaseName)
		ev.Symbol = firstNonEmpty(ev.Symbol, market.Pair.BaseSymbol)
	}

	switch {
	case src.OK && src.Verified != nil:
		ev.Verified, ev.VerifiedBy = src.Verified, "explorer"
		ev.SourceCode = src.SourceCode
	case sec.OK && sec.OpenSource != nil:
		ev.Verified, ev.VerifiedBy = sec.OpenSource, "scanner"
	}

	if chain.OK && chain.ProxyChecked {
		if chain.Implementation != "" {
			ev.ProxyYes = append(ev.ProxyYes, "implementation slot")
			ev.Implementation = chain.Implementation
		} else {
			ev.ProxyNo = append(ev.ProxyNo, "implementation slot")
		}
	}
	if src.OK && src.Proxy != nil {
		if *src.Proxy {
			ev.ProxyYes = append(ev.ProxyYes, "explorer")
			if ev.Implementation == "" {
				ev.Implementation = src.Implementation
			}
		} else {
			ev.ProxyNo = append(ev.ProxyNo, "explorer")
		}
	}
	if sec.OK && sec.Proxy != nil {
		if *sec.Proxy {
			ev.ProxyYes = append(ev.ProxyYes, "scanner")
		} else {
			ev.ProxyNo = append(ev.ProxyNo, "scanner")
		}
	}

	switch {
	case chain.OK && chain.OwnerKnown:
		ev.Owner, ev.OwnerKnown, ev.OwnerFrom = strings.ToLower(chain.Owner), true, "chain"
	case sec.OK && sec.OwnerAddress != "":
		ev.Owner, ev.OwnerKnown, ev.OwnerFrom = sec.OwnerAddress, true, "scanner"
	default:
		ev.Owner = chain.Owner
	}
	if sec.OK {
		ev.Creator = sec.CreatorAddress
		ev.OwnerPct = sec.OwnerPct
		ev.CreatorPct = sec.CreatorPct
	}

	switch {
	case b.Holders.OK && len(b.Holders.Holders) > 0:
		ev.Holders, ev.HoldersFrom = b.Holders.Holders, "explorer"
	case sec.OK && len(sec.Holders) > 0:
		ev.Holders, ev.HoldersFrom = sec.Holders, "scanner"
	}
	// explorer lists have no labels; borrow tags and contract flags from the scanner
	if ev.HoldersFrom == "explorer" && sec.OK {
		ev.Holders = annotate(ev.Holders, sec.Holders)
	}

	var lpFromScanner []sources.Holder
	if sec.OK {
		lpFromScanner = sec.LPHolders
	}
	var lpFromExplorer []sources.Holder
	if b.LPHolders.OK {
		lpFromExplorer = b.LPHolders.Holders
	}
	ev.LPHolders = mergeHolders(lpFromScanner, lpFromExplorer)

	if sec.OK {
		for _, p := range sec.DexPairs {
			ev.Pairs[p] = true
		}
		ev.HolderCount = sec.HolderCount
	}
	if ev.HolderCount == nil && sim.OK {
		ev.HolderCount = sim.HolderCount
	}

	if market.OK && market.Pair != nil {
		ev.Listed = market.Listed
		ev.LiquidityUSD = market.Pair.LiquidityUSD
		ev.Buys = market.Pair.BuysH24
		ev.Sells = market.Pair.SellsH24
		if market.Pair.PairAddress != "" {
			ev.Pairs[market.Pair.PairAddress] = true
		}
	}

	switch {
	case sim.OK && sim.BuyTaxPct != nil && sim.SellTaxPct != nil:
		ev.BuyTaxPct, ev.SellTaxPct, ev.TaxFrom = sim.BuyTaxPct, sim.SellTaxPct, "simulation"
	case sec.OK && sec.BuyTaxPct != nil && sec.SellTaxPct != nil:
		ev.BuyTaxPct, ev.SellTaxPct, ev.TaxFrom = sec.BuyTaxPct, sec.SellTaxPct, "scanner"
	}

	return ev
}

func annotate(holders, labelled []sources.Holder) []sources.Holder {
	if len(labelled) == 0 {
		return holders
	}
	byAddr := make(map[string]sources.Holder, len(labelled))
	for _, h := range labelled {
		byAddr[h.Address] = h
	}
	out := make([]sources.Holder, len(holders))
	for i, h := range holders {
		if l, ok := byAddr[h.Address]; ok {
			if h.Tag == "" {
				h.Tag = l.Tag
			}
			if h.IsContract == nil {
				h.IsContract = l.IsContract
			}
			if h.IsLocked == nil {
				h.IsLocked = l.IsLocked
			}
		}
		out[i] = h
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
