package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_Thresholds(t *testing.T) {
	cfg := Default()

	if cfg.Scoring.LiquidityMinUSD != 50000 {
		t.Errorf("LiquidityMinUSD = %v, want 50000", cfg.Scoring.LiquidityMinUSD)
	}
	if cfg.Scoring.AirdropMaxEqualPairs != 20 {
		t.Errorf("AirdropMaxEqualPairs = %d, want 20", cfg.Scoring.AirdropMaxEqualPairs)
	}
	if cfg.Scoring.SummarySize != 6 {
		t.Errorf("SummarySize = %d, want 6", cfg.Scoring.SummarySize)
	}
	if cfg.Coverage.HighMin != 85 || cfg.Coverage.MedMin != 60 || cfg.Coverage.SuppressBelow != 70 {
		t.Errorf("unexpected coverage bands: %+v", cfg.Coverage)
	}
	if cfg.Fetch.Retries != 2 {
		t.Errorf("Fetch.Retries = %d, want 2", cfg.Fetch.Retries)
	}
}

func TestLoadFile_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlData := `
chain:
  id: 56
providers:
  goplus:
    timeout_ms: 1500
    retries: 0
scoring:
  liquidity_min_usd: 75000
`
	if err := os.WriteFile(path, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHAIN_ID", "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Chain.ID != 56 {
		t.Errorf("Chain.ID = %d, want 56", cfg.Chain.ID)
	}
	if cfg.Scoring.LiquidityMinUSD != 75000 {
		t.Errorf("LiquidityMinUSD = %v, want 75000", cfg.Scoring.LiquidityMinUSD)
	}
	// untouched values keep their defaults
	if cfg.Scoring.TopHolderMaxPct != 20 {
		t.Errorf("TopHolderMaxPct = %v, want default 20", cfg.Scoring.TopHolderMaxPct)
	}
	if got := cfg.Timeout(cfg.Providers.GoPlus); got != 1500*time.Millisecond {
		t.Errorf("goplus timeout = %v, want 1.5s", got)
	}
	if got := cfg.RetriesFor(cfg.Providers.GoPlus); got != 0 {
		t.Errorf("goplus retries = %d, want explicit 0", got)
	}
	if got := cfg.RetriesFor(cfg.Providers.Honeypot); got != 2 {
		t.Errorf("honeypot retries = %d, want fallback 2", got)
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("CHAIN_ID", "8453")
	t.Setenv("ETHERSCAN_API_KEY", "abc")
	t.Setenv("PORT", "9090")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Chain.ID != 8453 {
		t.Errorf("Chain.ID = %d, want 8453", cfg.Chain.ID)
	}
	if cfg.Providers.Explorer.APIKey != "abc" {
		t.Errorf("explorer key not applied")
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
}

func TestConfigureInteractive_UpdatesAndSaves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")
	cfg := Default()

	// scoring menu: change top holder max, keep the rest, then save
	input := strings.Join([]string{"2", "25", "", "", "", "", "", "4"}, "\n") + "\n"
	var out bytes.Buffer
	if err := ConfigureInteractive(cfg, strings.NewReader(input), &out, path); err != nil {
		t.Fatalf("ConfigureInteractive: %v", err)
	}

	if cfg.Scoring.TopHolderMaxPct != 25 {
		t.Errorf("TopHolderMaxPct = %v, want 25", cfg.Scoring.TopHolderMaxPct)
	}
	if cfg.Scoring.LiquidityMinUSD != 50000 {
		t.Errorf("LiquidityMinUSD changed unexpectedly to %v", cfg.Scoring.LiquidityMinUSD)
	}

	saved, err := LoadFile(path)
	if err != nil {
		t.Fatalf("reload saved config: %v", err)
	}
	if saved.Scoring.TopHolderMaxPct != 25 {
		t.Errorf("saved TopHolderMaxPct = %v, want 25", saved.Scoring.TopHolderMaxPct)
	}
}

func TestSaveConfig_OmitsCredentials(t *testing.T) {
	secrets := map[string]string{
		"ETHERSCAN_API_KEY":       "etherscan-secret-value",
		"JWT_SECRET_KEY":          "jwt-secret-value",
		"ADMIN_API_KEY":           "admin-secret-value",
		"DB_PASSWORD":             "db-secret-value",
		"ALPACA_API_KEY":          "alpaca-key-value",
		"ALPACA_API_SECRET":       "alpaca-secret-value",
		"SETTINGS_ENCRYPTION_KEY": "encryption-secret-value",
		"RPC_URL":                 "https://rpc.example/v3/rpc-secret-value",
	}
	for k, v := range secrets {
		t.Setenv(k, v)
	}
	cfg := Default()
	cfg.ApplyEnv()
	path := filepath.Join(t.TempDir(), "config.yaml")

	var out bytes.Buffer
	if err := ConfigureInteractive(cfg, strings.NewReader("4\n"), &out, path); err != nil {
		t.Fatalf("ConfigureInteractive: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for env, v := range secrets {
		if strings.Contains(string(data), v) {
			t.Errorf("saved config contains the value of %s", env)
		}
	}
	if cfg.Auth.JWTSecret != "jwt-secret-value" || cfg.Providers.Explorer.APIKey != "etherscan-secret-value" {
		t.Error("saving must not clear secrets on the live config")
	}

	for k := range secrets {
		t.Setenv(k, "")
	}
	reloaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if reloaded.Scoring.LiquidityMinUSD != cfg.Scoring.LiquidityMinUSD || reloaded.Chain.ID != cfg.Chain.ID {
		t.Errorf("non-secret settings lost on save: %+v", reloaded.Scoring)
	}
	if reloaded.Database.Host != cfg.Database.Host || reloaded.Database.User != "postgres" {
		t.Errorf("database settings lost: %+v", reloaded.Database)
	}
}
