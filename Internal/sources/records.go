// Package sources holds one adapter per upstream provider. Adapters never
// return errors: every failure is folded into the record's Status so the
// scorer only ever sees canonical optional fields.
package sources

import (
	"math/big"
	"time"

	"github.com/fazecat/tokensentry/Internal/fetch"
	"github.com/shopspring/decimal"
)

// Source keys, in planned order.
const (
	KeyExplorerSource  = "explorer_source"
	KeyExplorerHolders = "explorer_holders"
	KeyExplorerLP      = "explorer_lp_holders"
	KeyGoPlus          = "goplus"
	KeyHoneypot        = "honeypot"
	KeyDexScreener     = "dexscreener"
	KeySocialWebsite   = "social_website"
	KeySocialTwitter   = "social_twitter"
	KeySocialTelegram  = "social_telegram"
	KeyChain           = "chain"
)

// Status describes how a single source call went.
type Status struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	MS        int64  `json:"ms"`
}

// Outcome is nil when the source was never attempted.
func (s Status) Outcome() *bool {
	if !s.Attempted {
		return nil
	}
	ok := s.OK
	return &ok
}

func skipped(reason string) Status {
	return Status{Error: reason}
}

func failed(err string) Status {
	return Status{Attempted: true, Error: err}
}

func statusFrom(res fetch.Result) Status {
	return Status{Attempted: true, OK: res.OK, Error: res.Error, MS: res.MS}
}

type ChainRecord struct {
	Status
	Name           string   `json:"name,omitempty"`
	Symbol         string   `json:"symbol,omitempty"`
	Decimals       *uint8   `json:"decimals,omitempty"`
	TotalSupply    *big.Int `json:"totalSupply,omitempty"`
	Owner          string   `json:"owner"`
	OwnerKnown     bool     `json:"ownerKnown"`
	Paused         *bool    `json:"paused,omitempty"`
	ProxyChecked   bool     `json:"proxyChecked"`
	Implementation string   `json:"implementation,omitempty"`
}

type SourceCodeRecord struct {
	Status
	Verified       *bool  `json:"verified,omitempty"`
	ContractName   string `json:"contractName,omitempty"`
	Proxy          *bool  `json:"proxy,omitempty"`
	Implementation string `json:"implementation,omitempty"`
	SourceCode     string `json:"-"`
}

type Holder struct {
	Address    string          `json:"address"`
	Balance    decimal.Decimal `json:"balance"`
	Tag        string          `json:"tag,omitempty"`
	IsContract *bool           `json:"isContract,omitempty"`
	IsLocked   *bool           `json:"isLocked,omitempty"`
}

type HoldersRecord struct {
	Status
	Holders []Holder `json:"holders"`
}

type SecurityRecord struct {
	Status
	TokenName          string   `json:"tokenName,omitempty"`
	TokenSymbol        string   `json:"tokenSymbol,omitempty"`
	OpenSource         *bool    `json:"openSource,omitempty"`
	Proxy              *bool    `json:"proxy,omitempty"`
	Mintable           *bool    `json:"mintable,omitempty"`
	Honeypot           *bool    `json:"honeypot,omitempty"`
	CannotBuy          *bool    `json:"cannotBuy,omitempty"`
	CannotSellAll      *bool    `json:"cannotSellAll,omitempty"`
	Blacklisted        *bool    `json:"blacklisted,omitempty"`
	Whitelisted        *bool    `json:"whitelisted,omitempty"`
	TransferPausable   *bool    `json:"transferPausable,omitempty"`
	TradingCooldown    *bool    `json:"tradingCooldown,omitempty"`
	HiddenOwner        *bool    `json:"hiddenOwner,omitempty"`
	SelfDestruct       *bool    `json:"selfDestruct,omitempty"`
	TakeBackOwnership  *bool    `json:"takeBackOwnership,omitempty"`
	OwnerChangeBalance *bool    `json:"ownerChangeBalance,omitempty"`
	SlippageModifiable *bool    `json:"slippageModifiable,omitempty"`
	InDex              *bool    `json:"inDex,omitempty"`
	BuyTaxPct          *float64 `json:"buyTaxPct,omitempty"`
	SellTaxPct         *float64 `json:"sellTaxPct,omitempty"`
	OwnerAddress       string   `json:"ownerAddress,omitempty"`
	CreatorAddress     string   `json:"creatorAddress,omitempty"`
	OwnerPct           *float64 `json:"ownerPct,omitempty"`
	CreatorPct         *float64 `json:"creatorPct,omitempty"`
	HolderCount        *int     `json:"holderCount,omitempty"`
	Holders            []Holder `json:"holders,omitempty"`
	LPHolders          []Holder `json:"lpHolders,omitempty"`
	DexPairs           []string `json:"dexPairs,omitempty"`
}

type SimulationRecord struct {
	Status
	TokenName         string   `json:"tokenName,omitempty"`
	TokenSymbol       string   `json:"tokenSymbol,omitempty"`
	SimulationSuccess bool     `json:"simulationSuccess"`
	IsHoneypot        *bool    `json:"isHoneypot,omitempty"`
	HoneypotReason    string   `json:"honeypotReason,omitempty"`
	CanBuy            *bool    `json:"canBuy,omitempty"`
	CanSell           *bool    `json:"canSell,omitempty"`
	BuyTaxPct         *float64 `json:"buyTaxPct,omitempty"`
	SellTaxPct        *float64 `json:"sellTaxPct,omitempty"`
	TransferTaxPct    *float64 `json:"transferTaxPct,omitempty"`
	BuyGas            *uint64  `json:"buyGas,omitempty"`
	SellGas           *uint64  `json:"sellGas,omitempty"`
	HolderCount       *int     `json:"holderCount,omitempty"`
}

type Social struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Pair struct {
	ChainID      string    `json:"chainId"`
	DexID        string    `json:"dexId"`
	PairAddress  string    `json:"pairAddress"`
	URL          string    `json:"url,omitempty"`
	BaseName     string    `json:"baseName,omitempty"`
	BaseSymbol   string    `json:"baseSymbol,omitempty"`
	LiquidityUSD *float64  `json:"liquidityUSD,omitempty"`
	VolumeH24    *float64  `json:"volumeH24,omitempty"`
	BuysH24      *int      `json:"buysH24,omitempty"`
	SellsH24     *int      `json:"sellsH24,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	Websites     []string  `json:"websites,omitempty"`
	Socials      []Social  `json:"socials,omitempty"`
}

type MarketRecord struct {
	Status
	Listed    bool  `json:"listed"`
	PairCount int   `json:"pairCount"`
	Pair      *Pair `json:"pair,omitempty"`
}

type SocialRecord struct {
	Status
	Kind  string `json:"kind"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// Bundle is the raw, fixed-shape collection of every adapter's record for one
// address. Fields are keyed by provider, never by completion order.
type Bundle struct {
	Address    string           `json:"address"`
	ChainID    int64            `json:"chainId"`
	Chain      ChainRecord      `json:"chain"`
	Source     SourceCodeRecord `json:"source"`
	Holders    HoldersRecord    `json:"holders"`
	LPHolders  HoldersRecord    `json:"lpHolders"`
	Security   SecurityRecord   `json:"security"`
	Simulation SimulationRecord `json:"simulation"`
	Market     MarketRecord     `json:"market"`
	Website    SocialRecord     `json:"website"`
	Twitter    SocialRecord     `json:"twitter"`
	Telegram   SocialRecord     `json:"telegram"`
}

// Statuses maps planned source keys to their status.
func (b *Bundle) Statuses() map[string]Status {
	return map[string]Status{
		KeyExplorerSource:  b.Source.Status,
		KeyExplorerHolders: b.Holders.Status,
		KeyExplorerLP:      b.LPHolders.Status,
		KeyGoPlus:          b.Security.Status,
		KeyHoneypot:        b.Simulation.Status,
		KeyDexScreener:     b.Market.Status,
		KeySocialWebsite:   b.Website.Status,
		KeySocialTwitter:   b.Twitter.Status,
		KeySocialTelegram:  b.Telegram.Status,
	}
}
