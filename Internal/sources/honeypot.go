package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fazecat/tokensentry/Internal/fetch"
	"github.com/fazecat/tokensentry/Internal/utils/config"
)

// Honeypot adapts the honeypot.is trade simulation API (buy then sell).
type Honeypot struct {
	client  *fetch.Client
	baseURL string
	chainID int64
	opts    fetch.Options
}

func NewHoneypot(client *fetch.Client, cfg *config.Config) *Honeypot {
	p := cfg.Providers.Honeypot
	return &Honeypot{
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

type honeypotResponse struct {
	Token struct {
		Name         string    `json:"name"`
		Symbol       string    `json:"symbol"`
		TotalHolders flexFloat `json:"totalHolders"`
	} `json:"token"`
	SimulationSuccess bool   `json:"simulationSuccess"`
	SimulationError   string `json:"simulationError"`
	HoneypotResult    *struct {
		IsHoneypot     bool   `json:"isHoneypot"`
		HoneypotReason string `json:"honeypotReason"`
	} `json:"honeypotResult"`
	SimulationResult *struct {
		BuyTax      flexFloat `json:"buyTax"`
		SellTax     flexFloat `json:"sellTax"`
		TransferTax flexFloat `json:"transferTax"`
		BuyGas      flexFloat `json:"buyGas"`
		SellGas     flexFloat `json:"sellGas"`
	} `json:"simulationResult"`
}

func (h *Honeypot) Fetch(ctx context.Context, address string) SimulationRecord {
	params := url.Values{}
	params.Set("address", address)
	params.Set("chainID", strconv.FormatInt(h.chainID, 10))

	res := h.client.GetJSON(ctx, h.baseURL+"/IsHoneypot?"+params.Encode(), nil, h.opts)
	rec := SimulationRecord{Status: statusFrom(res)}
	if !res.OK {
		return rec
	}

	var raw honeypotResponse
	if err := res.Decode(&raw); err != nil {
		rec.Status = failed(fmt.Sprintf("decode honeypot response: %v", err))
		rec.MS = res.MS
		return rec
	}

	rec.TokenName = raw.Token.Name
	rec.TokenSymbol = raw.Token.Symbol
	rec.HolderCount = raw.Token.TotalHolders.intPtr()
	rec.SimulationSuccess = raw.SimulationSuccess
	if raw.SimulationError != "" {
		rec.HoneypotReason = raw.SimulationError
	}

	if raw.HoneypotResult != nil {
		isHoneypot := raw.HoneypotResult.IsHoneypot
		rec.IsHoneypot = &isHoneypot
		if raw.HoneypotResult.HoneypotReason != "" {
			rec.HoneypotReason = raw.HoneypotResult.HoneypotReason
		}
	}

	canBuy := raw.SimulationSuccess
	canSell := raw.SimulationSuccess && (rec.IsHoneypot == nil || !*rec.IsHoneypot)
	rec.CanBuy = &canBuy
	rec.CanSell = &canSell

	if sim := raw.SimulationResult; sim != nil {
		rec.BuyTaxPct = sim.BuyTax.ptr()
		rec.SellTaxPct = sim.SellTax.ptr()
		rec.TransferTaxPct = sim.TransferTax.ptr()
		rec.BuyGas = sim.BuyGas.uintPtr()
		rec.SellGas = sim.SellGas.uintPtr()
	}
	return rec
}
