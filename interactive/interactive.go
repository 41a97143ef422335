package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	newsscraping "github.com/fazecat/tokensentry/Internal/news_scraping"
	"github.com/fazecat/tokensentry/Internal/sources"
	"github.com/fazecat/tokensentry/Internal/utils/formatting"
	"golang.org/x/term"
)

const lineWidth = 83

var chainChoices = []struct {
	id   int64
	name string
}{
	{1, "Ethereum"},
	{56, "BNB Smart Chain"},
	{8453, "Base"},
	{42161, "Arbitrum One"},
	{137, "Polygon"},
}

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PromptLine prints label and returns the trimmed reply.
func PromptLine(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func ShowMainMenu(out io.Writer, chainID int64) {
	fmt.Fprintf(out, "\n--- TokenSentry Menu (%s) ---\n", ChainName(chainID))
	fmt.Fprintln(out, "1. Analyze Token")
	fmt.Fprintln(out, "2. Headlines")
	fmt.Fprintln(out, "3. Switch Chain")
	fmt.Fprintln(out, "4. Configure Settings")
	fmt.Fprintln(out, "5. Exit")
	fmt.Fprint(out, "Enter choice (1-5): ")
}

func ShowChainMenu(reader *bufio.Reader, out io.Writer) (int64, error) {
	fmt.Fprintln(out, "\nChoose chain:")
	for i, c := range chainChoices {
		fmt.Fprintf(out, "%d. %s (%d)\n", i+1, c.name, c.id)
	}
	input, err := PromptLine(reader, out, "Enter choice: ")
	if err != nil {
		return 0, err
	}
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > len(chainChoices) {
		fmt.Fprintln(out, "Invalid choice.")
		return 0, fmt.Errorf("invalid choice")
	}
	return chainChoices[choice-1].id, nil
}

func ChainName(id int64) string {
	for _, c := range chainChoices {
		if c.id == id {
			return c.name
		}
	}
	if slug := sources.ChainSlug(id); slug != "" {
		return slug
	}
	return fmt.Sprintf("chain %d", id)
}

func DisplayHeadlines(out io.Writer, d newsscraping.HeadlineDigest) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, formatting.Separator(lineWidth))
	cached := ""
	if d.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(out, " LATEST NEWS FOR %s%s  overall: %s\n", d.Symbol, cached, d.Overall)
	fmt.Fprintln(out, formatting.Separator(lineWidth))

	if len(d.Articles) == 0 {
		fmt.Fprintln(out, " No recent headlines")
	}
	for _, a := range d.Articles {
		fmt.Fprintf(out, "\n %s\n", a.Headline)
		fmt.Fprintf(out, " %s | %s | %s (%.2f)\n", a.Source, a.PublishedAt.Format(time.RFC822), a.Sentiment, a.SentimentValue)
		if a.URL != "" {
			fmt.Fprintf(out, " URL: %s\n", a.URL)
		}
	}
	fmt.Fprintln(out, formatting.Separator(lineWidth))
}
