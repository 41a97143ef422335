package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fazecat/tokensentry/Internal/fetch"
	"github.com/fazecat/tokensentry/Internal/utils/config"
)

var chainSlugs = map[int64]string{
	1:     "ethereum",
	10:    "optimism",
	56:    "bsc",
	137:   "polygon",
	8453:  "base",
	42161: "arbitrum",
	43114: "avalanche",
}

// ChainSlug returns the market-data chain identifier for a numeric chain id.
func ChainSlug(chainID int64) string {
	return chainSlugs[chainID]
}

// DexScreener adapts the DexScreener token pairs endpoint.
type DexScreener struct {
	client  *fetch.Client
	baseURL string
	chainID int64
	opts    fetch.Options
}

func NewDexScreener(client *fetch.Client, cfg *config.Config) *DexScreener {
	p := cfg.Providers.DexScreener
	return &DexScreener{
		client:  client,
		baseURL: strings.TrimRight(p.BaseURL, "/"),
		chainID: cfg.Chain.ID,
		opts: fetch.Options{
			Retries:     cfg.RetriesFor(p),
			Timeout:     cfg.Timeout(p),
			BackoffBase: cfg.BackoffBase(),
			JSON:        true,
		},
	}
}

type dexPair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	URL         string `json:"url"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	Txns struct {
		H24 struct {
			Buys  flexFloat `json:"buys"`
			Sells flexFloat `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	Volume struct {
		H24 flexFloat `json:"h24"`
	} `json:"volume"`
	Liquidity *struct {
		USD flexFloat `json:"usd"`
	} `json:"liquidity"`
	PairCreatedAt int64 `json:"pairCreatedAt"`
	Info          *struct {
		Websites []struct {
			Label string `json:"label"`
			URL   string `json:"url"`
		} `json:"websites"`
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
}

func (p dexPair) liquidity() float64 {
	if p.Liquidity == nil || !p.Liquidity.USD.set {
		return -1
	}
	return p.Liquidity.USD.val
}

func (d *DexScreener) Fetch(ctx context.Context, address string) MarketRecord {
	endpoint := fmt.Sprintf("%s/tokens/%s", d.baseURL, url.PathEscape(address))
	res := d.client.GetJSON(ctx, endpoint, nil, d.opts)
	rec := MarketRecord{Status: statusFrom(res)}
	if !res.OK {
		return rec
	}

	var env struct {
		Pairs []dexPair `json:"pairs"`
	}
	if err := res.Decode(&env); err != nil {
		rec.Status = failed(fmt.Sprintf("decode dexscreener response: %v", err))
		rec.MS = res.MS
		return rec
	}

	rec.PairCount = len(env.Pairs)
	selected, ok := selectPair(env.Pairs, ChainSlug(d.chainID))
	if !ok {
		return rec
	}

	pair := convertPair(selected)
	rec.Pair = &pair
	rec.Listed = pair.DexID != "" && pair.PairAddress != ""
	return rec
}

// selectPair keeps pairs on the target chain and picks the deepest by USD
// liquidity. With no pair on the chain it falls back to the first pair.
func selectPair(pairs []dexPair, slug string) (dexPair, bool) {
	if len(pairs) == 0 {
		return dexPair{}, false
	}

	best := -1
	for i, p := range pairs {
		if slug == "" || !strings.EqualFold(p.ChainID, slug) {
			continue
		}
		if best < 0 || p.liquidity() > pairs[best].liquidity() {
			best = i
		}
	}
	if best < 0 {
		return pairs[0], true
	}
	return pairs[best], true
}

func convertPair(p dexPair) Pair {
	pair := Pair{
		ChainID:     p.ChainID,
		DexID:       p.DexID,
		PairAddress: strings.ToLower(p.PairAddress),
		URL:         p.URL,
		BaseName:    p.BaseToken.Name,
		BaseSymbol:  p.BaseToken.Symbol,
		VolumeH24:   p.Volume.H24.ptr(),
		BuysH24:     p.Txns.H24.Buys.intPtr(),
		SellsH24:    p.Txns.H24.Sells.intPtr(),
	}
	if p.Liquidity != nil {
		pair.LiquidityUSD = p.Liquidity.USD.ptr()
	}
	if p.PairCreatedAt > 0 {
		pair.CreatedAt = time.UnixMilli(p.PairCreatedAt).UTC()
	}
	if p.Info != nil {
		for _, w := range p.Info.Websites {
			if w.URL != "" {
				pair.Websites = append(pair.Websites, w.URL)
			}
		}
		for _, s := range p.Info.Socials {
			if s.URL != "" {
				pair.Socials = append(pair.Socials, Social{Type: strings.ToLower(s.Type), URL: s.URL})
			}
		}
	}
	return pair
}
