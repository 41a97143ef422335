package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	datafeed "github.com/fazecat/tokensentry/Internal/database"
	"github.com/fazecat/tokensentry/Internal/handlers/settings"
	newsscraping "github.com/fazecat/tokensentry/Internal/news_scraping"
	"github.com/fazecat/tokensentry/Internal/types"
	"github.com/fazecat/tokensentry/Internal/utils/analyzer"
	"github.com/fazecat/tokensentry/Internal/utils/config"
	"github.com/fazecat/tokensentry/Internal/utils/formatting"
	"github.com/fazecat/tokensentry/interactive"
)

// TokenAnalyzer is the part of the analyzer the handlers depend on.
type TokenAnalyzer interface {
	Analyze(ctx context.Context, address string) (*types.Report, error)
}

// App bundles everything the CLI and API front ends share.
type App struct {
	Cfg           *config.Config
	Analyzer      TokenAnalyzer
	News          *newsscraping.Service
	Settings      settings.Store
	Cipher        *settings.Cipher
	DatabaseReady bool

	closeAnalyzer func()
	closeDB       func()
}

// Bootstrap opens the optional settings database, loads stored provider keys
// and builds the analyzer and headline service. Missing optional pieces are
// logged and disabled, never fatal.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	c, err := settings.NewCipher(cfg.Database.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid SETTINGS_ENCRYPTION_KEY: %w", err)
	}
	app := &App{
		Cfg:           cfg,
		Settings:      settings.NewMemoryStore(),
		Cipher:        c,
		closeAnalyzer: func() {},
		closeDB:       func() {},
	}

	if cfg.Database.Enabled() {
		if err := datafeed.InitDatabase(ctx, cfg.Database); err != nil {
			log.Printf("⚠️  [database] unavailable, settings kept in memory: %v", err)
		} else {
			app.Settings = &settings.SQLStore{DB: datafeed.DB}
			app.DatabaseReady = true
			app.closeDB = func() { datafeed.CloseDatabase() }
			settings.LoadProviderKeys(ctx, app.Settings, app.Cipher, cfg)
		}
	}

	if err := app.buildAnalyzer(ctx); err != nil {
		app.Close()
		return nil, err
	}

	src, err := newsscraping.NewAlpacaNews(cfg.Headlines.AlpacaKey, cfg.Headlines.AlpacaSecret)
	if err != nil {
		log.Printf("ℹ️  [headlines] disabled: %v", err)
	} else {
		app.News = newsscraping.NewService(src, cfg.HeadlineTTL(), cfg.Headlines.Limit, nil)
	}
	return app, nil
}

func (app *App) buildAnalyzer(ctx context.Context) error {
	a, closeFn, err := analyzer.NewFromConfig(ctx, app.Cfg)
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}
	app.closeAnalyzer()
	app.Analyzer = a
	app.closeAnalyzer = closeFn
	return nil
}

func (app *App) Close() {
	app.closeAnalyzer()
	app.closeDB()
}

// SwitchChain rebuilds the analyzer for another chain id.
func (app *App) SwitchChain(ctx context.Context, chainID int64) error {
	prev := app.Cfg.Chain.ID
	app.Cfg.Chain.ID = chainID
	if err := app.buildAnalyzer(ctx); err != nil {
		app.Cfg.Chain.ID = prev
		return err
	}
	log.Printf("🔗 [chain] switched to %s", interactive.ChainName(chainID))
	return nil
}

// HandleAnalyze runs one analysis and writes it as JSON or as the text report.
func (app *App) HandleAnalyze(ctx context.Context, out io.Writer, address string, asJSON bool) (*types.Report, error) {
	report, err := app.Analyzer.Analyze(ctx, address)
	if err != nil {
		return nil, err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return report, enc.Encode(report)
	}
	formatting.RenderReport(out, report)
	return report, nil
}

var ErrHeadlinesDisabled = errors.New("headlines disabled: ALPACA_API_KEY and ALPACA_API_SECRET not set")

func (app *App) HandleHeadlines(ctx context.Context, out io.Writer, symbol string, asJSON bool) error {
	if app.News == nil {
		return ErrHeadlinesDisabled
	}
	digest, err := app.News.Headlines(ctx, symbol)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(digest)
	}
	interactive.DisplayHeadlines(out, digest)
	return nil
}

// RunMenu is the interactive loop used when the CLI starts without arguments.
func (app *App) RunMenu(ctx context.Context, in io.Reader, out io.Writer, configPath string) error {
	reader := bufio.NewReader(in)

	for {
		interactive.ShowMainMenu(out, app.Cfg.Chain.ID)
		input, err := interactive.PromptLine(reader, out, "")
		if err != nil {
			return nil
		}
		choice, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintln(out, "Invalid input. Try again.")
			continue
		}

		switch choice {
		case 1:
			addr, _ := interactive.PromptLine(reader, out, "Enter contract address (0x...): ")
			if _, err := app.HandleAnalyze(ctx, out, addr, false); err != nil {
				fmt.Fprintf(out, "❌ %v\n", err)
			}
		case 2:
			symbol, _ := interactive.PromptLine(reader, out, "Enter symbol (e.g., PEPE or ETH/USD): ")
			if err := app.HandleHeadlines(ctx, out, symbol, false); err != nil {
				fmt.Fprintf(out, "❌ %v\n", err)
			}
		case 3:
			id, err := interactive.ShowChainMenu(reader, out)
			if err != nil {
				continue
			}
			if err := app.SwitchChain(ctx, id); err != nil {
				fmt.Fprintf(out, "❌ %v\n", err)
			}
		case 4:
			if err := config.ConfigureInteractive(app.Cfg, reader, out, configPath); err != nil {
				fmt.Fprintf(out, "❌ %v\n", err)
			}
			if err := app.buildAnalyzer(ctx); err != nil {
				fmt.Fprintf(out, "❌ %v\n", err)
			}
		case 5:
			fmt.Fprintln(out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(out, "Invalid choice. Try again.")
		}
	}
}
