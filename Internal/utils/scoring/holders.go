package scoring

import (
	"sort"
	"strings"

	"github.com/fazecat/tokensentry/Internal/sources"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var burnAddresses = map[string]bool{
	"0x0000000000000000000000000000000000000000": true,
	"0x000000000000000000000000000000000000dead": true,
	"0xdead000000000000000042069420694206942069": true,
}

func IsBurnAddress(addr string) bool {
	return burnAddresses[strings.ToLower(addr)]
}

func totalBalance(holders []sources.Holder) decimal.Decimal {
	sum := decimal.Zero
	for _, h := range holders {
		sum = sum.Add(h.Balance)
	}
	return sum
}

func pctOf(part, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(total).InexactFloat64()
}

// TopHolderPct is the largest balance over the sum of listed balances. It is
// nil when the list is empty or sums to zero.
func TopHolderPct(holders []sources.Holder) *float64 {
	total := totalBalance(holders)
	if len(holders) == 0 || !total.IsPositive() {
		return nil
	}
	top := decimal.Zero
	for _, h := range holders {
		if h.Balance.GreaterThan(top) {
			top = h.Balance
		}
	}
	pct := pctOf(top, total)
	return &pct
}

// NearEqualPairs sorts nonzero balances ascending and counts adjacent pairs
// whose difference is within tolerance of the larger balance.
func NearEqualPairs(holders []sources.Holder, tolerance float64) int {
	balances := make([]decimal.Decimal, 0, len(holders))
	for _, h := range holders {
		if h.Balance.IsPositive() {
			balances = append(balances, h.Balance)
		}
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].LessThan(balances[j]) })

	tol := decimal.NewFromFloat(tolerance)
	count := 0
	for i := 1; i < len(balances); i++ {
		diff := balances[i].Sub(balances[i-1]).Abs()
		if diff.LessThanOrEqual(balances[i].Mul(tol)) {
			count++
		}
	}
	return count
}

// holderContext carries the addresses that change how a holder is classified.
type holderContext struct {
	owner    string
	creator  string
	pairs    map[string]bool
	lockers  []string
	teamLike func(tag string) bool
}

func (hc holderContext) isLocker(h sources.Holder) bool {
	return matchesLocker(h, hc.lockers)
}

func (hc holderContext) isInfrastructure(h sources.Holder) bool {
	return IsBurnAddress(h.Address) || hc.pairs[h.Address] || hc.isLocker(h)
}

func (hc holderContext) isTeamLike(h sources.Holder) bool {
	if hc.isInfrastructure(h) {
		return false
	}
	if h.Address != "" && (h.Address == hc.owner || h.Address == hc.creator) {
		return true
	}
	if h.Tag != "" && hc.teamLike != nil && hc.teamLike(h.Tag) {
		return true
	}
	return h.Tag == "" && h.IsContract != nil && *h.IsContract
}

// TeamLikePct sums balances of team-like holders as a share of listed supply.
func (hc holderContext) TeamLikePct(holders []sources.Holder) float64 {
	total := totalBalance(holders)
	team := decimal.Zero
	for _, h := range holders {
		if hc.isTeamLike(h) {
			team = team.Add(h.Balance)
		}
	}
	return pctOf(team, total)
}

// DominantWalletPct is the largest holder share after excluding burn, locker
// and pair addresses.
func (hc holderContext) DominantWalletPct(holders []sources.Holder) float64 {
	total := totalBalance(holders)
	top := decimal.Zero
	for _, h := range holders {
		if hc.isInfrastructure(h) {
			continue
		}
		if h.Balance.GreaterThan(top) {
			top = h.Balance
		}
	}
	return pctOf(top, total)
}

func matchesLocker(h sources.Holder, lockers []string) bool {
	tag := strings.ToLower(h.Tag)
	addr := strings.ToLower(h.Address)
	for _, l := range lockers {
		l = strings.ToLower(l)
		if l == "" {
			continue
		}
		if strings.Contains(tag, l) || strings.Contains(addr, l) {
			return true
		}
	}
	return false
}

// mergeHolders concatenates holder lists, keeping the first entry per address.
func mergeHolders(lists ...[]sources.Holder) []sources.Holder {
	seen := map[string]bool{}
	var out []sources.Holder
	for _, list := range lists {
		for _, h := range list {
			key := strings.ToLower(h.Address)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, h)
		}
	}
	return out
}
