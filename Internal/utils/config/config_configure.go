package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ConfigureInteractive lets users tune scoring thresholds and save them.
func ConfigureInteractive(cfg *Config, in io.Reader, out io.Writer, path string) error {
	reader := bufio.NewReader(in)

	for {
		fmt.Fprintln(out, "\n⚙️  Configuration Menu:")
		fmt.Fprintln(out, "1. View Current Configuration")
		fmt.Fprintln(out, "2. Configure Scoring Thresholds")
		fmt.Fprintln(out, "3. Configure Coverage Bands")
		fmt.Fprintln(out, "4. Save & Exit")
		fmt.Fprint(out, "Select option: ")

		choice, err := reader.ReadString('\n')
		if err != nil && choice == "" {
			return err
		}
		choice = strings.TrimSpace(choice)

		switch choice {
		case "1":
			DisplayConfiguration(out, cfg)
		case "2":
			configureScoring(cfg, reader, out)
		case "3":
			configureCoverage(cfg, reader, out)
		case "4":
			if err := SaveConfig(cfg, path); err != nil {
				fmt.Fprintf(out, "❌ Error saving config: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "✅ Configuration saved successfully!")
			return nil
		default:
			fmt.Fprintln(out, "❌ Invalid option")
		}
	}
}

// DisplayConfiguration prints the effective configuration with secrets masked.
func DisplayConfiguration(out io.Writer, cfg *Config) {
	fmt.Fprintln(out, "\n📋 Current Configuration:")

	fmt.Fprintln(out, "\n=== Chain ===")
	fmt.Fprintf(out, "Chain ID: %d\n", cfg.Chain.ID)
	fmt.Fprintf(out, "RPC: %s\n", configuredStr(cfg.Chain.RPCURL != ""))

	fmt.Fprintln(out, "\n=== Providers ===")
	fmt.Fprintf(out, "Explorer: %s (key %s)\n", cfg.Providers.Explorer.BaseURL, configuredStr(cfg.Providers.Explorer.APIKey != ""))
	fmt.Fprintf(out, "GoPlus: %s\n", cfg.Providers.GoPlus.BaseURL)
	fmt.Fprintf(out, "Honeypot: %s\n", cfg.Providers.Honeypot.BaseURL)
	fmt.Fprintf(out, "DexScreener: %s\n", cfg.Providers.DexScreener.BaseURL)
	fmt.Fprintf(out, "Retries: %d  Timeout: %dms  Backoff base: %dms\n", cfg.Fetch.Retries, cfg.Fetch.TimeoutMS, cfg.Fetch.BackoffBaseMS)

	s := cfg.Scoring
	fmt.Fprintln(out, "\n=== Scoring ===")
	fmt.Fprintf(out, "  • Top holder max: %.1f%%\n", s.TopHolderMaxPct)
	fmt.Fprintf(out, "  • Team balance max: %.1f%%\n", s.TeamBalanceMaxPct)
	fmt.Fprintf(out, "  • Dominant wallet max: %.1f%%\n", s.DominantWalletMaxPct)
	fmt.Fprintf(out, "  • Airdrop near-equal pairs max: %d\n", s.AirdropMaxEqualPairs)
	fmt.Fprintf(out, "  • Liquidity min: $%.0f\n", s.LiquidityMinUSD)
	fmt.Fprintf(out, "  • Buy/sell band: %.2f - %.2f\n", s.BuySellMin, s.BuySellMax)
	fmt.Fprintf(out, "  • Tax swing max: %.1f points\n", s.TaxSwingMax)
	fmt.Fprintf(out, "  • Lockers: %s\n", strings.Join(s.Lockers, ", "))

	c := cfg.Coverage
	fmt.Fprintln(out, "\n=== Coverage ===")
	fmt.Fprintf(out, "High >= %d  Med >= %d  Suppress below %d  Soften x%.2f\n", c.HighMin, c.MedMin, c.SuppressBelow, c.SoftenFactor)
}

func configureScoring(cfg *Config, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "\n📊 Configure Scoring Thresholds (Enter keeps current):")
	s := &cfg.Scoring
	promptFloat(reader, out, "Top holder max %", &s.TopHolderMaxPct)
	promptFloat(reader, out, "Team balance max %", &s.TeamBalanceMaxPct)
	promptFloat(reader, out, "Dominant wallet max %", &s.DominantWalletMaxPct)
	promptInt(reader, out, "Airdrop near-equal pairs max", &s.AirdropMaxEqualPairs)
	promptFloat(reader, out, "Liquidity min USD", &s.LiquidityMinUSD)
	promptFloat(reader, out, "Tax swing max points", &s.TaxSwingMax)
	fmt.Fprintln(out, "✅ Scoring updated")
}

func configureCoverage(cfg *Config, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "\n🧭 Configure Coverage Bands (Enter keeps current):")
	c := &cfg.Coverage
	promptInt(reader, out, "High confidence min coverage", &c.HighMin)
	promptInt(reader, out, "Med confidence min coverage", &c.MedMin)
	promptInt(reader, out, "Suppress grade below coverage", &c.SuppressBelow)
	if c.MedMin > c.HighMin {
		fmt.Fprintf(out, "⚠️  Med band (%d) above high band (%d); high band raised\n", c.MedMin, c.HighMin)
		c.HighMin = c.MedMin
	}
	fmt.Fprintln(out, "✅ Coverage updated")
}

func promptFloat(reader *bufio.Reader, out io.Writer, label string, target *float64) {
	fmt.Fprintf(out, "%s [%.2f]: ", label, *target)
	input, _ := reader.ReadString('\n')
	if val, err := strconv.ParseFloat(strings.TrimSpace(input), 64); err == nil {
		*target = val
	}
}

func promptInt(reader *bufio.Reader, out io.Writer, label string, target *int) {
	fmt.Fprintf(out, "%s [%d]: ", label, *target)
	input, _ := reader.ReadString('\n')
	if val, err := strconv.Atoi(strings.TrimSpace(input)); err == nil {
		*target = val
	}
}

func configuredStr(ok bool) string {
	if ok {
		return "✅ Configured"
	}
	return "❌ Not set"
}
