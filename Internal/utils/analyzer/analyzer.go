package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/fazecat/tokensentry/Internal/coverage"
	"github.com/fazecat/tokensentry/Internal/fetch"
	"github.com/fazecat/tokensentry/Internal/sources"
	"github.com/fazecat/tokensentry/Internal/types"
	"github.com/fazecat/tokensentry/Internal/utils/config"
	"github.com/fazecat/tokensentry/Internal/utils/scoring"
)

const userAgent = "tokensentry/1.0"

var ErrInvalidAddress = errors.New("invalid contract address")

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// NormalizeAddress trims and lowercases a contract address, rejecting
// anything that is not 0x followed by 40 hex digits.
func NormalizeAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if !addressPattern.MatchString(addr) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
	}
	return strings.ToLower(addr), nil
}

type Analyzer struct {
	chainID   int64
	chain     *sources.ChainReader
	explorer  *sources.Explorer
	goplus    *sources.GoPlus
	honeypot  *sources.Honeypot
	dex       *sources.DexScreener
	socials   *sources.SocialProber
	scorer    *scoring.Scorer
	estimator *coverage.Estimator
}

// New wires every adapter from cfg. caller may be nil, in which case the
// on-chain reader is skipped.
func New(cfg *config.Config, client *fetch.Client, caller sources.ContractCaller) (*Analyzer, error) {
	scorer, err := scoring.NewScorer(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("failed to build scorer: %w", err)
	}
	if client == nil {
		client = fetch.NewClient(userAgent)
	}

	a := &Analyzer{
		chainID:   cfg.Chain.ID,
		explorer:  sources.NewExplorer(client, cfg),
		goplus:    sources.NewGoPlus(client, cfg),
		honeypot:  sources.NewHoneypot(client, cfg),
		dex:       sources.NewDexScreener(client, cfg),
		socials:   sources.NewSocialProber(client, cfg),
		scorer:    scorer,
		estimator: coverage.NewEstimator(cfg.Coverage, cfg.Scoring),
	}
	if caller != nil {
		a.chain = sources.NewChainReader(caller, cfg.Timeout(config.ProviderConfig{}))
	}
	return a, nil
}

// NewFromConfig dials the RPC endpoint when one is configured. The returned
// close func is always safe to call.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Analyzer, func(), error) {
	closeFn := func() {}
	var caller sources.ContractCaller

	if cfg.Chain.RPCURL != "" {
		client, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
		if err != nil {
			log.Printf("⚠️  [chain] RPC unavailable, on-chain reads disabled: %v", err)
		} else {
			caller = client
			closeFn = client.Close
		}
	} else {
		log.Println("ℹ️  [chain] RPC_URL not set, on-chain reads disabled")
	}

	a, err := New(cfg, nil, caller)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return a, closeFn, nil
}

// Analyze validates the address, gathers every source and returns the scored
// report. The only error is ErrInvalidAddress; upstream outages only lower
// coverage.
func (a *Analyzer) Analyze(ctx context.Context, rawAddress string) (*types.Report, error) {
	address, err := NormalizeAddress(rawAddress)
	if err != nil {
		return nil, err
	}

	bundle := a.Collect(ctx, address)
	report := a.scorer.Score(address, bundle)
	a.estimator.Apply(report, bundle)

	log.Printf("📊 [analyze] %s score %d (%s) coverage %d%% confidence %s",
		address, report.Score, report.Grade, report.Coverage, report.Confidence)
	return report, nil
}

// Collect runs the adapters in two concurrent phases. Phase two needs the
// pair and social links picked from phase one market data.
func (a *Analyzer) Collect(ctx context.Context, address string) *sources.Bundle {
	b := &sources.Bundle{Address: address, ChainID: a.chainID}

	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeyChain, &b.Chain.Status)
		b.Chain = a.chain.Fetch(ctx, address)
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeyExplorerSource, &b.Source.Status)
		b.Source = a.explorer.FetchSource(ctx, address)
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeyExplorerHolders, &b.Holders.Status)
		b.Holders = a.explorer.FetchHolders(ctx, address)
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeyGoPlus, &b.Security.Status)
		b.Security = a.goplus.Fetch(ctx, address)
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeyHoneypot, &b.Simulation.Status)
		b.Simulation = a.honeypot.Fetch(ctx, address)
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeyDexScreener, &b.Market.Status)
		b.Market = a.dex.Fetch(ctx, address)
	}()
	wg.Wait()

	links := sources.SocialLinks(b.Market.Pair)
	wg.Add(4)
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeyExplorerLP, &b.LPHolders.Status)
		if b.Market.Pair == nil || b.Market.Pair.PairAddress == "" {
			b.LPHolders = sources.HoldersRecord{Status: sources.Status{Error: "no pair selected"}}
			return
		}
		b.LPHolders = a.explorer.FetchHolders(ctx, b.Market.Pair.PairAddress)
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeySocialWebsite, &b.Website.Status)
		b.Website = a.socials.Probe(ctx, sources.SocialWebsite, links[sources.SocialWebsite])
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeySocialTwitter, &b.Twitter.Status)
		b.Twitter = a.socials.Probe(ctx, sources.SocialTwitter, links[sources.SocialTwitter])
	}()
	go func() {
		defer wg.Done()
		defer recoverInto(sources.KeySocialTelegram, &b.Telegram.Status)
		b.Telegram = a.socials.Probe(ctx, sources.SocialTelegram, links[sources.SocialTelegram])
	}()
	wg.Wait()

	logStatus(sources.KeyChain, b.Chain.Status)
	statuses := b.Statuses()
	for _, p := range coverage.Planned {
		logStatus(p.Key, statuses[p.Key])
	}
	return b
}

func recoverInto(key string, st *sources.Status) {
	if r := recover(); r != nil {
		log.Printf("❌ [%s] adapter panicked: %v", key, r)
		*st = sources.Status{Attempted: true, Error: fmt.Sprintf("internal error: %v", r)}
	}
}

func logStatus(key string, st sources.Status) {
	if st.Attempted && !st.OK {
		log.Printf("⚠️  [%s] unavailable: %s", key, st.Error)
	}
}
