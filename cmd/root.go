package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fazecat/tokensentry/Internal/handlers"
	"github.com/fazecat/tokensentry/Internal/utils/config"
	"github.com/fazecat/tokensentry/interactive"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	chainID    int64
)

var rootCmd = &cobra.Command{
	Use:   "tokensentry [address]",
	Short: "TokenSentry scores the rug-pull risk of an EVM token contract from public data sources.",
	Long: `TokenSentry scores the rug-pull risk of an EVM token contract.

It queries a block explorer, a security scanner, a honeypot simulator,
DexScreener market data and the project's social links, then reports a
0-100 score, a letter grade and how much of the data was actually available.

Usage:
  tokensentry                       interactive menu
  tokensentry 0x6982508145454ce325ddbe47a25d4ec3d2311933
  tokensentry analyze 0x... --json --chain 56
  tokensentry headlines PEPE
  tokensentry config`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return runAnalyze(cmd, args[0])
		}
		app, cleanup, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		return app.RunMenu(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), configPath())
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <address>",
	Short: "Analyze one token contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, args[0])
	},
}

var headlinesCmd = &cobra.Command{
	Use:   "headlines <symbol>",
	Short: "Show recent headlines with sentiment for a token symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		return app.HandleHeadlines(cmd.Context(), cmd.OutOrStdout(), args[0], wantJSON())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit scoring configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if !interactive.IsTerminal(os.Stdin) {
			config.DisplayConfiguration(cmd.OutOrStdout(), cfg)
			return nil
		}
		return config.ConfigureInteractive(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), configPath())
	},
}

func runAnalyze(cmd *cobra.Command, address string) error {
	app, cleanup, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	_, err = app.HandleAnalyze(cmd.Context(), cmd.OutOrStdout(), address, wantJSON())
	return err
}

func bootstrap(cmd *cobra.Command) (*handlers.App, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("chain") {
		cfg.Chain.ID = chainID
	}
	app, err := handlers.Bootstrap(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return app, app.Close, nil
}

// wantJSON prints JSON when asked, or when stdout is piped.
func wantJSON() bool {
	return jsonOutput || !interactive.IsTerminal(os.Stdout)
}

func configPath() string {
	if p := os.Getenv("TOKENSENTRY_CONFIG"); p != "" {
		return p
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(cwd, "config.yaml")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output result as JSON")
	rootCmd.PersistentFlags().Int64Var(&chainID, "chain", 1, "EVM chain id (1 Ethereum, 56 BSC, 8453 Base, ...)")

	rootCmd.AddCommand(analyzeCmd, headlinesCmd, configCmd)
}
