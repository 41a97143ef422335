package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/fazecat/tokensentry/Internal/fetch"
	"github.com/fazecat/tokensentry/Internal/utils/config"
)

// GoPlus adapts the GoPlus token_security API, which encodes most booleans
// as "1"/"0" strings and taxes as fractions.
type GoPlus struct {
	client  *fetch.Client
	baseURL string
	chainID int64
	opts    fetch.Options
}

func NewGoPlus(client *fetch.Client, cfg *config.Config) *GoPlus {
	p := cfg.Providers.GoPlus
	return &GoPlus{
		client:  client,
		baseURL: strings.TrimRight(p.BaseURL, "/"),
		chainID: cfg.Chain.ID,
		opts: fetch.Options{
			Retries:     cfg.RetriesFor(p),
			Timeout:     cfg.Timeout(p),
			BackoffBase: cfg.BackoffBase(),
			JSON:        true,
			SoftFailure: goplusSoftFailure,
		},
	}
}

func goplusSoftFailure(body []byte) (bool, string) {
	var env struct {
		Code    *int   `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Code == nil {
		return false, ""
	}
	if *env.Code != 1 {
		return true, fmt.Sprintf("goplus code %d: %s", *env.Code, env.Message)
	}
	return false, ""
}

type goplusHolder struct {
	Address    string    `json:"address"`
	Tag        string    `json:"tag"`
	IsContract flexBool  `json:"is_contract"`
	Balance    string    `json:"balance"`
	Percent    flexFloat `json:"percent"`
	IsLocked   flexBool  `json:"is_locked"`
}

type goplusToken struct {
	TokenName            string         `json:"token_name"`
	TokenSymbol          string         `json:"token_symbol"`
	IsOpenSource         flexBool       `json:"is_open_source"`
	IsProxy              flexBool       `json:"is_proxy"`
	IsMintable           flexBool       `json:"is_mintable"`
	OwnerAddress         string         `json:"owner_address"`
	CreatorAddress       string         `json:"creator_address"`
	OwnerPercent         flexFloat      `json:"owner_percent"`
	CreatorPercent       flexFloat      `json:"creator_percent"`
	CanTakeBackOwnership flexBool       `json:"can_take_back_ownership"`
	OwnerChangeBalance   flexBool       `json:"owner_change_balance"`
	HiddenOwner          flexBool       `json:"hidden_owner"`
	SelfDestruct         flexBool       `json:"selfdestruct"`
	BuyTax               flexFloat      `json:"buy_tax"`
	SellTax              flexFloat      `json:"sell_tax"`
	CannotBuy            flexBool       `json:"cannot_buy"`
	CannotSellAll        flexBool       `json:"cannot_sell_all"`
	SlippageModifiable   flexBool       `json:"slippage_modifiable"`
	IsHoneypot           flexBool       `json:"is_honeypot"`
	TransferPausable     flexBool       `json:"transfer_pausable"`
	IsBlacklisted        flexBool       `json:"is_blacklisted"`
	IsWhitelisted        flexBool       `json:"is_whitelisted"`
	TradingCooldown      flexBool       `json:"trading_cooldown"`
	IsInDex              flexBool       `json:"is_in_dex"`
	HolderCount          flexFloat      `json:"holder_count"`
	Holders              []goplusHolder `json:"holders"`
	LPHolders            []goplusHolder `json:"lp_holders"`
	Dex                  []struct {
		Name string `json:"name"`
		Pair string `json:"pair"`
	} `json:"dex"`
}

// Fetch never returns an error; failures are carried in the record status.
func (g *GoPlus) Fetch(ctx context.Context, address string) SecurityRecord {
	endpoint := fmt.Sprintf("%s/token_security/%d?contract_addresses=%s", g.baseURL, g.chainID, url.QueryEscape(address))
	res := g.client.GetJSON(ctx, endpoint, nil, g.opts)
	rec := SecurityRecord{Status: statusFrom(res)}
	if !res.OK {
		return rec
	}

	var env struct {
		Result map[string]goplusToken `json:"result"`
	}
	if err := res.Decode(&env); err != nil {
		rec.Status = failed(fmt.Sprintf("decode goplus response: %v", err))
		rec.MS = res.MS
		return rec
	}

	tok, ok := lookupAddress(env.Result, address)
	if !ok {
		rec.Status = failed("token not indexed by scanner")
		rec.MS = res.MS
		return rec
	}

	rec.TokenName = tok.TokenName
	rec.TokenSymbol = tok.TokenSymbol
	rec.OpenSource = tok.IsOpenSource.ptr()
	rec.Proxy = tok.IsProxy.ptr()
	rec.Mintable = tok.IsMintable.ptr()
	rec.Honeypot = tok.IsHoneypot.ptr()
	rec.CannotBuy = tok.CannotBuy.ptr()
	rec.CannotSellAll = tok.CannotSellAll.ptr()
	rec.Blacklisted = tok.IsBlacklisted.ptr()
	rec.Whitelisted = tok.IsWhitelisted.ptr()
	rec.TransferPausable = tok.TransferPausable.ptr()
	rec.TradingCooldown = tok.TradingCooldown.ptr()
	rec.HiddenOwner = tok.HiddenOwner.ptr()
	rec.SelfDestruct = tok.SelfDestruct.ptr()
	rec.TakeBackOwnership = tok.CanTakeBackOwnership.ptr()
	rec.OwnerChangeBalance = tok.OwnerChangeBalance.ptr()
	rec.SlippageModifiable = tok.SlippageModifiable.ptr()
	rec.InDex = tok.IsInDex.ptr()
	rec.BuyTaxPct = tok.BuyTax.scaled(100)
	rec.SellTaxPct = tok.SellTax.scaled(100)
	rec.OwnerAddress = strings.ToLower(tok.OwnerAddress)
	rec.CreatorAddress = strings.ToLower(tok.CreatorAddress)
	rec.OwnerPct = tok.OwnerPercent.scaled(100)
	rec.CreatorPct = tok.CreatorPercent.scaled(100)
	rec.HolderCount = tok.HolderCount.intPtr()
	rec.Holders = convertGoPlusHolders(tok.Holders)
	rec.LPHolders = convertGoPlusHolders(tok.LPHolders)
	for _, d := range tok.Dex {
		if d.Pair != "" {
			rec.DexPairs = append(rec.DexPairs, strings.ToLower(d.Pair))
		}
	}
	return rec
}

func lookupAddress(result map[string]goplusToken, address string) (goplusToken, bool) {
	if tok, ok := result[strings.ToLower(address)]; ok {
		return tok, true
	}
	for k, tok := range result {
		if strings.EqualFold(k, address) {
			return tok, true
		}
	}
	return goplusToken{}, false
}

func convertGoPlusHolders(raw []goplusHolder) []Holder {
	holders := make([]Holder, 0, len(raw))
	for _, h := range raw {
		bal, ok := parseBalance(h.Balance)
		if !ok {
			continue
		}
		holders = append(holders, Holder{
			Address:    strings.ToLower(h.Address),
			Balance:    bal,
			Tag:        h.Tag,
			IsContract: h.IsContract.ptr(),
			IsLocked:   h.IsLocked.ptr(),
		})
	}
	return holders
}
