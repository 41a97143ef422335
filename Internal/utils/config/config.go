package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Chain struct {
		ID     int64  `yaml:"id"`
		RPCURL string `yaml:"rpc_url,omitempty"`
	} `yaml:"chain"`

	Fetch FetchConfig `yaml:"fetch"`

	Providers struct {
		Explorer    ProviderConfig `yaml:"explorer"`
		GoPlus      ProviderConfig `yaml:"goplus"`
		Honeypot    ProviderConfig `yaml:"honeypot"`
		DexScreener ProviderConfig `yaml:"dexscreener"`
		Socials     ProviderConfig `yaml:"socials"`
	} `yaml:"providers"`

	Scoring  ScoringConfig  `yaml:"scoring"`
	Coverage CoverageConfig `yaml:"coverage"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Auth struct {
		JWTSecret    string `yaml:"jwt_secret,omitempty"`
		AdminKey     string `yaml:"admin_key,omitempty"`
		RequireToken bool   `yaml:"require_token"`
		TokenHours   int    `yaml:"token_hours"`
	} `yaml:"auth"`

	Headlines struct {
		TTLMinutes   int    `yaml:"ttl_minutes"`
		Limit        int    `yaml:"limit"`
		AlpacaKey    string `yaml:"alpaca_key,omitempty"`
		AlpacaSecret string `yaml:"alpaca_secret,omitempty"`
	} `yaml:"headlines"`

	Database DatabaseConfig `yaml:"database"`
}

type FetchConfig struct {
	BackoffBaseMS int `yaml:"backoff_base_ms"`
	Retries       int `yaml:"retries"`
	TimeoutMS     int `yaml:"timeout_ms"`
}

type ProviderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key,omitempty"`
	TimeoutMS int    `yaml:"timeout_ms"`
	Retries   *int   `yaml:"retries"`
}

// ScoringConfig carries the tunable heuristic thresholds used by the scorer.
type ScoringConfig struct {
	TopHolderMaxPct       float64  `yaml:"top_holder_max_pct"`
	TeamBalanceMaxPct     float64  `yaml:"team_balance_max_pct"`
	DominantWalletMaxPct  float64  `yaml:"dominant_wallet_max_pct"`
	AirdropMaxEqualPairs  int      `yaml:"airdrop_max_equal_pairs"`
	AirdropTolerance      float64  `yaml:"airdrop_tolerance"`
	LiquidityMinUSD       float64  `yaml:"liquidity_min_usd"`
	LPPullMaxPct          float64  `yaml:"lp_pull_max_pct"`
	BuySellMin            float64  `yaml:"buy_sell_min"`
	BuySellMax            float64  `yaml:"buy_sell_max"`
	TaxSwingMax           float64  `yaml:"tax_swing_max"`
	SummarySize           int      `yaml:"summary_size"`
	Lockers               []string `yaml:"lockers"`
	TeamLikePattern       string   `yaml:"team_like_pattern"`
	RestrictedCodePattern string   `yaml:"restricted_code_pattern"`
	MintCodePattern       string   `yaml:"mint_code_pattern"`
}

type CoverageConfig struct {
	HighMin       int     `yaml:"high_min"`
	MedMin        int     `yaml:"med_min"`
	SuppressBelow int     `yaml:"suppress_below"`
	SoftenFactor  float64 `yaml:"soften_factor"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password,omitempty"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"sslmode"`
	EncryptionKey string `yaml:"encryption_key,omitempty"`
}

// Enabled reports whether a settings database was configured at all.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// Timeout returns the per-attempt timeout for a provider, falling back to the
// global fetch timeout.
func (c *Config) Timeout(p ProviderConfig) time.Duration {
	ms := p.TimeoutMS
	if ms <= 0 {
		ms = c.Fetch.TimeoutMS
	}
	return time.Duration(ms) * time.Millisecond
}

// RetriesFor returns the retry count for a provider, falling back to the global
// fetch retries. An explicit zero disables retries.
func (c *Config) RetriesFor(p ProviderConfig) int {
	if p.Retries != nil {
		return *p.Retries
	}
	return c.Fetch.Retries
}

func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.Fetch.BackoffBaseMS) * time.Millisecond
}

func (c *Config) HeadlineTTL() time.Duration {
	return time.Duration(c.Headlines.TTLMinutes) * time.Minute
}

func Default() *Config {
	cfg := &Config{}
	cfg.Chain.ID = 1

	cfg.Fetch = FetchConfig{
		BackoffBaseMS: 400,
		Retries:       2,
		TimeoutMS:     8000,
	}

	cfg.Providers.Explorer = ProviderConfig{BaseURL: "https://api.etherscan.io/v2/api"}
	cfg.Providers.GoPlus = ProviderConfig{BaseURL: "https://api.gopluslabs.io/api/v1"}
	cfg.Providers.Honeypot = ProviderConfig{BaseURL: "https://api.honeypot.is/v2"}
	cfg.Providers.DexScreener = ProviderConfig{BaseURL: "https://api.dexscreener.com/latest/dex"}
	socialRetries := 1
	cfg.Providers.Socials = ProviderConfig{TimeoutMS: 5000, Retries: &socialRetries}

	cfg.Scoring = ScoringConfig{
		TopHolderMaxPct:      20,
		TeamBalanceMaxPct:    10,
		DominantWalletMaxPct: 10,
		AirdropMaxEqualPairs: 20,
		AirdropTolerance:     0.000001,
		LiquidityMinUSD:      50000,
		LPPullMaxPct:         50,
		BuySellMin:           0.5,
		BuySellMax:           2.0,
		TaxSwingMax:          10,
		SummarySize:          6,
		Lockers: []string{
			"unicrypt",
			"uncx",
			"team.finance",
			"teamfinance",
			"pinksale",
			"pinklock",
			"dxsale",
			"deeplock",
			"mudra",
			"gempad",
			"0x663a5c229c09b049e36dcc11a9b0d4a8eb9db214", // UNCX v2 locker
			"0xe2fe530c047f2d85298b07d9333c05737f1435fb", // Team Finance lock
			"0x71b5759d73262fbb223956913ecf4ecc51057641", // PinkLock v2
			"0x000000000000000000000000000000000000dead",
		},
		TeamLikePattern:       `(?i)team|dev|deploy|creator|owner|treasury|marketing|foundation`,
		RestrictedCodePattern: `(?i)function\s+\w*(blacklist|whitelist|blocklist|allowlist|isbot|setbots?)\w*\s*\(`,
		MintCodePattern:       `(?i)function\s+mint\w*\s*\(`,
	}

	cfg.Coverage = CoverageConfig{
		HighMin:       85,
		MedMin:        60,
		SuppressBelow: 70,
		SoftenFactor:  0.9,
	}

	cfg.Server.Addr = ":8080"
	cfg.Auth.TokenHours = 24
	cfg.Headlines.TTLMinutes = 10
	cfg.Headlines.Limit = 5

	cfg.Database = DatabaseConfig{
		Port:    "5432",
		User:    "postgres",
		Name:    "tokensentry",
		SSLMode: "disable",
	}
	return cfg
}

// LoadConfig reads config.yaml on top of Default() and applies environment
// overrides. A missing file is not an error.
func LoadConfig() (*Config, error) {
	_, filePath, _, ok := runtime.Caller(0)
	var basePath string
	if ok {
		basePath = filepath.Dir(filePath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	possiblePaths := []string{}
	if p := os.Getenv("TOKENSENTRY_CONFIG"); p != "" {
		possiblePaths = append(possiblePaths, p)
	}
	possiblePaths = append(possiblePaths,
		filepath.Join(cwd, "config.yaml"),
		filepath.Join(cwd, "Internal", "utils", "config", "config.yaml"),
	)
	if basePath != "" {
		possiblePaths = append(possiblePaths, filepath.Join(basePath, "config.yaml"))
	}

	for _, path := range possiblePaths {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}

	cfg := Default()
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile parses one YAML file over the defaults and applies env overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides endpoints and secrets from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Chain.ID = id
		}
	}
	c.Chain.RPCURL = getEnvOrDefault("RPC_URL", c.Chain.RPCURL)
	c.Providers.Explorer.APIKey = getEnvOrDefault("ETHERSCAN_API_KEY", c.Providers.Explorer.APIKey)
	c.Headlines.AlpacaKey = getEnvOrDefault("ALPACA_API_KEY", c.Headlines.AlpacaKey)
	c.Headlines.AlpacaSecret = getEnvOrDefault("ALPACA_API_SECRET", c.Headlines.AlpacaSecret)
	c.Auth.JWTSecret = getEnvOrDefault("JWT_SECRET_KEY", c.Auth.JWTSecret)
	c.Auth.AdminKey = getEnvOrDefault("ADMIN_API_KEY", c.Auth.AdminKey)

	c.Database.Host = getEnvOrDefault("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvOrDefault("DB_PORT", c.Database.Port)
	c.Database.User = getEnvOrDefault("DB_USER", c.Database.User)
	c.Database.Password = getEnvOrDefault("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnvOrDefault("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", c.Database.SSLMode)
	c.Database.EncryptionKey = getEnvOrDefault("SETTINGS_ENCRYPTION_KEY", c.Database.EncryptionKey)

	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
}

// SaveConfig writes cfg without credentials. Keys and passwords come from the
// environment or the encrypted settings store and are never written back.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg.withoutSecrets())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) withoutSecrets() Config {
	out := *c
	out.Chain.RPCURL = ""
	out.Providers.Explorer.APIKey = ""
	out.Providers.GoPlus.APIKey = ""
	out.Providers.Honeypot.APIKey = ""
	out.Providers.DexScreener.APIKey = ""
	out.Providers.Socials.APIKey = ""
	out.Auth.JWTSecret = ""
	out.Auth.AdminKey = ""
	out.Headlines.AlpacaKey = ""
	out.Headlines.AlpacaSecret = ""
	out.Database.Password = ""
	out.Database.EncryptionKey = ""
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
