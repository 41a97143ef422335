package sources

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fazecat/tokensentry/Internal/fetch"
	"github.com/fazecat/tokensentry/Internal/utils/config"
)

const testToken = "0xAbCdEf0123456789abcdef0123456789ABCDEF01"

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Fetch.Retries = 0
	cfg.Fetch.BackoffBaseMS = 0
	cfg.Providers.Explorer.BaseURL = baseURL
	cfg.Providers.Explorer.APIKey = "test-key"
	cfg.Providers.GoPlus.BaseURL = baseURL
	cfg.Providers.Honeypot.BaseURL = baseURL
	cfg.Providers.DexScreener.BaseURL = baseURL
	return cfg
}

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoPlus_MapsStringlyTypedFlags(t *testing.T) {
	srv := jsonServer(t, `{"code":1,"message":"OK","result":{"0xabcdef0123456789abcdef0123456789abcdef01":{
		"token_name":"Test","token_symbol":"TST",
		"is_open_source":"1","is_proxy":"0","is_mintable":"0","is_honeypot":"0",
		"is_blacklisted":"1","is_whitelisted":"","buy_tax":"0.05","sell_tax":"0.1",
		"owner_address":"0x000000000000000000000000000000000000dEaD","owner_percent":"0.02",
		"holder_count":"1234",
		"holders":[{"address":"0xAAA","balance":"100.5","tag":"","is_contract":0,"is_locked":0}],
		"lp_holders":[{"address":"0xBBB","balance":"10","tag":"UNCX Network Security","is_contract":1,"is_locked":1}],
		"dex":[{"name":"UniswapV2","pair":"0xPAIR"}]}}}`)

	cfg := testConfig(srv.URL)
	rec := NewGoPlus(fetch.NewClient("test"), cfg).Fetch(context.Background(), testToken)

	if !rec.OK {
		t.Fatalf("expected ok record, got error %q", rec.Error)
	}
	if rec.OpenSource == nil || !*rec.OpenSource {
		t.Errorf("OpenSource = %v, want true", rec.OpenSource)
	}
	if rec.Proxy == nil || *rec.Proxy {
		t.Errorf("Proxy = %v, want false", rec.Proxy)
	}
	if rec.Blacklisted == nil || !*rec.Blacklisted {
		t.Errorf("Blacklisted = %v, want true", rec.Blacklisted)
	}
	if rec.Whitelisted != nil {
		t.Errorf("Whitelisted should be unset for empty string, got %v", *rec.Whitelisted)
	}
	if rec.BuyTaxPct == nil || *rec.BuyTaxPct != 5 {
		t.Errorf("BuyTaxPct = %v, want 5", rec.BuyTaxPct)
	}
	if rec.SellTaxPct == nil || *rec.SellTaxPct != 10 {
		t.Errorf("SellTaxPct = %v, want 10", rec.SellTaxPct)
	}
	if rec.OwnerAddress != "0x000000000000000000000000000000000000dead" {
		t.Errorf("OwnerAddress = %q", rec.OwnerAddress)
	}
	if rec.HolderCount == nil || *rec.HolderCount != 1234 {
		t.Errorf("HolderCount = %v, want 1234", rec.HolderCount)
	}
	if len(rec.Holders) != 1 || rec.Holders[0].Balance.String() != "100.5" {
		t.Errorf("Holders = %+v", rec.Holders)
	}
	if len(rec.LPHolders) != 1 || rec.LPHolders[0].IsLocked == nil || !*rec.LPHolders[0].IsLocked {
		t.Errorf("LPHolders = %+v", rec.LPHolders)
	}
	if len(rec.DexPairs) != 1 || rec.DexPairs[0] != "0xpair" {
		t.Errorf("DexPairs = %v", rec.DexPairs)
	}
}

func TestGoPlus_NonOKCodeIsSoftFailure(t *testing.T) {
	srv := jsonServer(t, `{"code":2,"message":"too many requests","result":{}}`)

	rec := NewGoPlus(fetch.NewClient("test"), testConfig(srv.URL)).Fetch(context.Background(), testToken)

	if rec.OK || !rec.Attempted {
		t.Fatalf("expected attempted failure, got %+v", rec.Status)
	}
	if !strings.Contains(rec.Error, "goplus code 2") {
		t.Errorf("Error = %q", rec.Error)
	}
}

func TestGoPlus_UnindexedToken(t *testing.T) {
	srv := jsonServer(t, `{"code":1,"message":"OK","result":{}}`)

	rec := NewGoPlus(fetch.NewClient("test"), testConfig(srv.URL)).Fetch(context.Background(), testToken)

	if rec.OK {
		t.Fatal("expected failure for a token missing from the result map")
	}
}

func TestHoneypot_MapsSimulation(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"token":{"name":"Test","symbol":"TST","totalHolders":42},
			"simulationSuccess":true,
			"honeypotResult":{"isHoneypot":false},
			"simulationResult":{"buyTax":1.5,"sellTax":2,"transferTax":0,"buyGas":"120000","sellGas":98000}}`))
	}))
	defer srv.Close()

	rec := NewHoneypot(fetch.NewClient("test"), testConfig(srv.URL)).Fetch(context.Background(), testToken)

	if !rec.OK {
		t.Fatalf("expected ok, got %q", rec.Error)
	}
	if gotQuery.Get("address") != testToken || gotQuery.Get("chainID") != "1" {
		t.Errorf("unexpected query %v", gotQuery)
	}
	if rec.CanBuy == nil || !*rec.CanBuy || rec.CanSell == nil || !*rec.CanSell {
		t.Errorf("CanBuy/CanSell = %v/%v, want true/true", rec.CanBuy, rec.CanSell)
	}
	if rec.BuyTaxPct == nil || *rec.BuyTaxPct != 1.5 {
		t.Errorf("BuyTaxPct = %v", rec.BuyTaxPct)
	}
	if rec.BuyGas == nil || *rec.BuyGas != 120000 {
		t.Errorf("BuyGas = %v", rec.BuyGas)
	}
	if rec.HolderCount == nil || *rec.HolderCount != 42 {
		t.Errorf("HolderCount = %v", rec.HolderCount)
	}
}

func TestHoneypot_HoneypotCannotSell(t *testing.T) {
	srv := jsonServer(t, `{"simulationSuccess":true,"honeypotResult":{"isHoneypot":true,"honeypotReason":"sell reverted"}}`)

	rec := NewHoneypot(fetch.NewClient("test"), testConfig(srv.URL)).Fetch(context.Background(), testToken)

	if rec.CanSell == nil || *rec.CanSell {
		t.Errorf("CanSell = %v, want false", rec.CanSell)
	}
	if rec.HoneypotReason != "sell reverted" {
		t.Errorf("HoneypotReason = %q", rec.HoneypotReason)
	}
}

func TestDexScreener_SelectsDeepestPairOnChain(t *testing.T) {
	srv := jsonServer(t, `{"pairs":[
		{"chainId":"bsc","dexId":"pancakeswap","pairAddress":"0xBSC","liquidity":{"usd":900000}},
		{"chainId":"ethereum","dexId":"uniswap","pairAddress":"0xSMALL","liquidity":{"usd":1000}},
		{"chainId":"ethereum","dexId":"uniswap","pairAddress":"0xDEEP","liquidity":{"usd":250000},
		 "txns":{"h24":{"buys":120,"sells":80}},"volume":{"h24":5000.5},"pairCreatedAt":1700000000000,
		 "info":{"websites":[{"label":"Website","url":"https://example.org"}],
		         "socials":[{"type":"twitter","url":"https://x.com/test"},{"type":"telegram","url":"https://t.me/test"}]}}
	]}`)

	rec := NewDexScreener(fetch.NewClient("test"), testConfig(srv.URL)).Fetch(context.Background(), testToken)

	if !rec.OK || !rec.Listed {
		t.Fatalf("expected listed ok record, got %+v", rec)
	}
	if rec.PairCount != 3 {
		t.Errorf("PairCount = %d, want 3", rec.PairCount)
	}
	if rec.Pair.PairAddress != "0xdeep" {
		t.Errorf("selected %q, want 0xdeep", rec.Pair.PairAddress)
	}
	if rec.Pair.BuysH24 == nil || *rec.Pair.BuysH24 != 120 || rec.Pair.SellsH24 == nil || *rec.Pair.SellsH24 != 80 {
		t.Errorf("txns = %v/%v", rec.Pair.BuysH24, rec.Pair.SellsH24)
	}

	links := SocialLinks(rec.Pair)
	if links[SocialWebsite] != "https://example.org" || links[SocialTwitter] != "https://x.com/test" || links[SocialTelegram] != "https://t.me/test" {
		t.Errorf("SocialLinks = %v", links)
	}
}

func TestDexScreener_FallsBackToFirstPair(t *testing.T) {
	srv := jsonServer(t, `{"pairs":[
		{"chainId":"solana","dexId":"raydium","pairAddress":"0xFIRST","liquidity":{"usd":10}},
		{"chainId":"bsc","dexId":"pancakeswap","pairAddress":"0xSECOND","liquidity":{"usd":99999}}
	]}`)

	rec := NewDexScreener(fetch.NewClient("test"), testConfig(srv.URL)).Fetch(context.Background(), testToken)

	if rec.Pair == nil || rec.Pair.PairAddress != "0xfirst" {
		t.Fatalf("expected fallback to first pair, got %+v", rec.Pair)
	}
}

func TestDexScreener_NoPairsIsNotListed(t *testing.T) {
	srv := jsonServer(t, `{"schemaVersion":"1.0.0","pairs":null}`)

	rec := NewDexScreener(fetch.NewClient("test"), testConfig(srv.URL)).Fetch(context.Background(), testToken)

	if !rec.OK {
		t.Fatalf("empty pair list is still a successful call: %q", rec.Error)
	}
	if rec.Listed || rec.Pair != nil {
		t.Errorf("expected unlisted record, got %+v", rec)
	}
}

func TestExplorer_NoKeyIsNotAttempted(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Providers.Explorer.APIKey = ""

	rec := NewExplorer(fetch.NewClient("test"), cfg).FetchSource(context.Background(), testToken)

	if rec.Attempted {
		t.Fatalf("expected not attempted, got %+v", rec.Status)
	}
	if rec.Outcome() != nil {
		t.Error("Outcome should be nil for a skipped source")
	}
}

func TestExplorer_SourceAndHolders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "test-key" || q.Get("chainid") != "1" {
			t.Errorf("missing key or chain: %v", q)
		}
		switch q.Get("action") {
		case "getsourcecode":
			w.Write([]byte(`{"status":"1","message":"OK","result":[{"SourceCode":"contract T {}","ContractName":"T","Proxy":"1","Implementation":"0xIMPL"}]}`))
		case "tokenholderlist":
			w.Write([]byte(`{"status":"1","message":"OK","result":[
				{"TokenHolderAddress":"0xA","TokenHolderQuantity":"75"},
				{"TokenHolderAddress":"0xB","TokenHolderQuantity":"25"}]}`))
		}
	}))
	defer srv.Close()

	ex := NewExplorer(fetch.NewClient("test"), testConfig(srv.URL))

	src := ex.FetchSource(context.Background(), testToken)
	if !src.OK || src.Verified == nil || !*src.Verified {
		t.Fatalf("expected verified source, got %+v", src)
	}
	if src.Proxy == nil || !*src.Proxy || src.Implementation != "0ximpl" {
		t.Errorf("proxy = %v impl = %q", src.Proxy, src.Implementation)
	}

	holders := ex.FetchHolders(context.Background(), testToken)
	if !holders.OK || len(holders.Holders) != 2 {
		t.Fatalf("expected two holders, got %+v", holders)
	}
	if holders.Holders[1].Balance.String() != "25" {
		t.Errorf("second balance = %s", holders.Holders[1].Balance)
	}
}

func TestExplorer_NotOKIsSoftFailure(t *testing.T) {
	srv := jsonServer(t, `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`)

	rec := NewExplorer(fetch.NewClient("test"), testConfig(srv.URL)).FetchSource(context.Background(), testToken)

	if rec.OK || !rec.Attempted {
		t.Fatalf("expected attempted failure, got %+v", rec.Status)
	}
	if !strings.Contains(rec.Error, "Invalid API Key") {
		t.Errorf("Error = %q", rec.Error)
	}
}

type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	out := r.Clone(r.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

func proberFor(t *testing.T, page string) *SocialProber {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	target, _ := url.Parse(srv.URL)
	client := fetch.NewClient("test")
	client.HTTP = &http.Client{Transport: rewriteTransport{target: target}}
	return NewSocialProber(client, testConfig(srv.URL))
}

func TestSocialProber_Telegram(t *testing.T) {
	p := proberFor(t, `<html><head><title>Telegram: Contact @test</title></head>
		<body><div class="tgme_page_title"><span>Test Token</span></div></body></html>`)

	rec := p.Probe(context.Background(), SocialTelegram, "https://t.me/test")

	if !rec.OK {
		t.Fatalf("expected ok, got %q", rec.Error)
	}
	if rec.Title != "Test Token" {
		t.Errorf("Title = %q", rec.Title)
	}
}

func TestSocialProber_TelegramMissingChannel(t *testing.T) {
	p := proberFor(t, `<html><head><title>Telegram Messenger</title></head><body></body></html>`)

	rec := p.Probe(context.Background(), SocialTelegram, "https://t.me/nothing")

	if rec.OK || !rec.Attempted {
		t.Fatalf("expected attempted failure, got %+v", rec.Status)
	}
}

func TestSocialProber_WebsiteTitle(t *testing.T) {
	p := proberFor(t, `<html><head><title> Test  Token </title></head></html>`)

	rec := p.Probe(context.Background(), SocialWebsite, "https://example.org")

	if !rec.OK || rec.Title != "Test Token" {
		t.Errorf("got ok=%v title=%q", rec.OK, rec.Title)
	}
}

func TestSocialProber_RejectsWrongHost(t *testing.T) {
	p := proberFor(t, `<html></html>`)

	rec := p.Probe(context.Background(), SocialTwitter, "https://evil.example.com/test")

	if rec.OK || !rec.Attempted {
		t.Fatalf("expected attempted failure, got %+v", rec.Status)
	}
}

func TestSocialProber_NoLinkIsNotAttempted(t *testing.T) {
	p := proberFor(t, `<html></html>`)

	rec := p.Probe(context.Background(), SocialTwitter, "")

	if rec.Outcome() != nil {
		t.Errorf("expected nil outcome, got %v", *rec.Outcome())
	}
}

func TestHostMatches(t *testing.T) {
	tests := []struct {
		url  string
		kind string
		want bool
	}{
		{"https://twitter.com/test", SocialTwitter, true},
		{"https://www.x.com/test", SocialTwitter, true},
		{"https://x.com.evil.io/test", SocialTwitter, false},
		{"https://t.me/test", SocialTelegram, true},
		{"https://telegram.me/test", SocialTelegram, true},
		{"https://t.me.example.com/test", SocialTelegram, false},
	}
	for _, tt := range tests {
		if got := hostMatches(tt.url, tt.kind); got != tt.want {
			t.Errorf("hostMatches(%q, %q) = %v, want %v", tt.url, tt.kind, got, tt.want)
		}
	}
}

type fakeCaller struct {
	values  map[string]interface{}
	slot    []byte
	slotErr error
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	for name, m := range parsedTokenABI.Methods {
		if len(msg.Data) >= 4 && bytes.Equal(m.ID, msg.Data[:4]) {
			v, ok := f.values[name]
			if !ok {
				return nil, errors.New("execution reverted")
			}
			return m.Outputs.Pack(v)
		}
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeCaller) StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error) {
	if key != ImplementationSlot {
		return nil, errors.New("unexpected slot")
	}
	return f.slot, f.slotErr
}

func TestChainReader_ReadsMetadataAndFallsBackToGetOwner(t *testing.T) {
	impl := common.HexToAddress("0x1111111111111111111111111111111111111111")
	caller := &fakeCaller{
		values: map[string]interface{}{
			"name":        "Test",
			"symbol":      "TST",
			"decimals":    uint8(18),
			"totalSupply": big.NewInt(1000000),
			"getOwner":    common.HexToAddress("0x2222222222222222222222222222222222222222"),
			"paused":      false,
		},
		slot: common.LeftPadBytes(impl.Bytes(), 32),
	}

	rec := NewChainReader(caller, 0).Fetch(context.Background(), testToken)

	if !rec.OK {
		t.Fatalf("expected ok, got %q", rec.Error)
	}
	if rec.Name != "Test" || rec.Symbol != "TST" {
		t.Errorf("name/symbol = %q/%q", rec.Name, rec.Symbol)
	}
	if rec.Decimals == nil || *rec.Decimals != 18 {
		t.Errorf("Decimals = %v", rec.Decimals)
	}
	if !rec.OwnerKnown || rec.Owner != "0x2222222222222222222222222222222222222222" {
		t.Errorf("owner = %q known=%v", rec.Owner, rec.OwnerKnown)
	}
	if rec.Paused == nil || *rec.Paused {
		t.Errorf("Paused = %v", rec.Paused)
	}
	if !rec.ProxyChecked || rec.Implementation != "0x1111111111111111111111111111111111111111" {
		t.Errorf("implementation = %q checked=%v", rec.Implementation, rec.ProxyChecked)
	}
}

func TestChainReader_OwnerDefaultsToZeroAndEmptySlot(t *testing.T) {
	caller := &fakeCaller{
		values: map[string]interface{}{"name": "Test"},
		slot:   make([]byte, 32),
	}

	rec := NewChainReader(caller, 0).Fetch(context.Background(), testToken)

	if rec.OwnerKnown {
		t.Error("owner should be unknown when both accessors revert")
	}
	if rec.Owner != zeroAddress {
		t.Errorf("Owner = %q, want zero address", rec.Owner)
	}
	if !rec.ProxyChecked || rec.Implementation != "" {
		t.Errorf("empty slot should mean no proxy, got %q", rec.Implementation)
	}
}

func TestChainReader_NilCallerIsNotAttempted(t *testing.T) {
	var r *ChainReader

	rec := r.Fetch(context.Background(), testToken)

	if rec.Attempted {
		t.Error("expected not attempted without a caller")
	}
}

type slowCaller struct {
	*fakeCaller
	delay time.Duration
}

func (s slowCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.fakeCaller.CallContract(ctx, msg, blockNumber)
}

func (s slowCaller) StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.fakeCaller.StorageAt(ctx, account, key, blockNumber)
}

func TestChainReader_ReadsRunConcurrently(t *testing.T) {
	caller := slowCaller{
		fakeCaller: &fakeCaller{
			values: map[string]interface{}{
				"name":        "Test",
				"symbol":      "TST",
				"decimals":    uint8(18),
				"totalSupply": big.NewInt(1000000),
				"getOwner":    common.HexToAddress("0x2222222222222222222222222222222222222222"),
				"paused":      false,
			},
			slot: make([]byte, 32),
		},
		delay: 150 * time.Millisecond,
	}

	start := time.Now()
	rec := NewChainReader(caller, 2*time.Second).Fetch(context.Background(), testToken)
	elapsed := time.Since(start)

	if !rec.OK || rec.Name != "Test" || !rec.OwnerKnown || !rec.ProxyChecked {
		t.Fatalf("unexpected record %+v", rec)
	}
	// eight calls back to back would take 1.2s; owner then getOwner is the longest chain
	if elapsed > 700*time.Millisecond {
		t.Errorf("Fetch took %v, reads are not running concurrently", elapsed)
	}
}

func TestChainReader_OverallDeadline(t *testing.T) {
	caller := slowCaller{
		fakeCaller: &fakeCaller{values: map[string]interface{}{"name": "Test"}, slot: make([]byte, 32)},
		delay:      time.Minute,
	}

	start := time.Now()
	rec := NewChainReader(caller, 50*time.Millisecond).Fetch(context.Background(), testToken)

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Fetch took %v with a 50ms per-call timeout", elapsed)
	}
	if rec.OK || !rec.Attempted || rec.Error == "" {
		t.Errorf("expected attempted failure, got %+v", rec.Status)
	}
}
