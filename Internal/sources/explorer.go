package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fazecat/tokensentry/Internal/fetch"
	"github.com/fazecat/tokensentry/Internal/utils/config"
)

const holderPageSize = 100

// Explorer reads verification status and holder lists from an Etherscan v2
// compatible API.
type Explorer struct {
	client  *fetch.Client
	baseURL string
	apiKey  string
	chainID int64
	opts    fetch.Options
}

func NewExplorer(client *fetch.Client, cfg *config.Config) *Explorer {
	p := cfg.Providers.Explorer
	return &Explorer{
		client:  client,
		baseURL: strings.TrimRight(p.BaseURL, "/"),
		apiKey:  p.APIKey,
		chainID: cfg.Chain.ID,
		opts: fetch.RetryConfig{
			MaxRetries:  cfg.RetriesFor(p),
			Timeout:     cfg.Timeout(p),
			BackoffBase: cfg.BackoffBase(),
		}.JSONOptions(),
	}
}

type explorerEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (e *Explorer) query(ctx context.Context, params url.Values) (explorerEnvelope, Status) {
	if e.apiKey == "" {
		return explorerEnvelope{}, skipped("no explorer API key configured")
	}

	params.Set("chainid", strconv.FormatInt(e.chainID, 10))
	params.Set("apikey", e.apiKey)
	res := e.client.GetJSON(ctx, e.baseURL+"?"+params.Encode(), nil, e.opts)
	st := statusFrom(res)
	if !res.OK {
		return explorerEnvelope{}, st
	}

	var env explorerEnvelope
	if err := res.Decode(&env); err != nil {
		st.OK = false
		st.Error = fmt.Sprintf("decode explorer response: %v", err)
	}
	return env, st
}

// FetchSource reads contract verification and the explorer's proxy hints.
func (e *Explorer) FetchSource(ctx context.Context, address string) SourceCodeRecord {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getsourcecode")
	params.Set("address", address)

	env, st := e.query(ctx, params)
	rec := SourceCodeRecord{Status: st}
	if !st.OK {
		return rec
	}

	var entries []struct {
		SourceCode     string `json:"SourceCode"`
		ABI            string `json:"ABI"`
		ContractName   string `json:"ContractName"`
		Proxy          string `json:"Proxy"`
		Implementation string `json:"Implementation"`
	}
	if err := json.Unmarshal(env.Result, &entries); err != nil || len(entries) == 0 {
		rec.Status = failed(fmt.Sprintf("unexpected getsourcecode result: %s", env.Message))
		rec.MS = st.MS
		return rec
	}

	entry := entries[0]
	verified := strings.TrimSpace(entry.SourceCode) != ""
	rec.Verified = &verified
	rec.ContractName = entry.ContractName
	rec.SourceCode = entry.SourceCode
	proxy := entry.Proxy == "1"
	rec.Proxy = &proxy
	if proxy {
		rec.Implementation = strings.ToLower(entry.Implementation)
	}
	return rec
}

// FetchHolders reads the first page of holders of a token contract.
func (e *Explorer) FetchHolders(ctx context.Context, token string) HoldersRecord {
	params := url.Values{}
	params.Set("module", "token")
	params.Set("action", "tokenholderlist")
	params.Set("contractaddress", token)
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(holderPageSize))

	env, st := e.query(ctx, params)
	rec := HoldersRecord{Status: st}
	if !st.OK {
		return rec
	}

	var entries []struct {
		Address  string `json:"TokenHolderAddress"`
		Quantity string `json:"TokenHolderQuantity"`
	}
	if err := json.Unmarshal(env.Result, &entries); err != nil {
		// "No data found" comes back as status 0 with a non-array result
		if env.Status == "0" && strings.Contains(strings.ToLower(env.Message), "no data") {
			rec.Holders = []Holder{}
			return rec
		}
		rec.Status = failed(fmt.Sprintf("unexpected tokenholderlist result: %s", env.Message))
		rec.MS = st.MS
		return rec
	}

	rec.Holders = make([]Holder, 0, len(entries))
	for _, h := range entries {
		bal, ok := parseBalance(h.Quantity)
		if !ok {
			continue
		}
		rec.Holders = append(rec.Holders, Holder{
			Address: strings.ToLower(h.Address),
			Balance: bal,
		})
	}
	return rec
}
