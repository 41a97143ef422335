package newsscraping

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// NewsSource returns the latest articles for a symbol, newest first.
type NewsSource interface {
	FetchNews(ctx context.Context, symbol string, limit int) ([]NewsArticle, error)
}

type AlpacaNews struct {
	client *marketdata.Client
}

func NewAlpacaNews(apiKey, apiSecret string) (*AlpacaNews, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("ALPACA_API_KEY or ALPACA_API_SECRET not set")
	}
	return &AlpacaNews{client: marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})}, nil
}

// FetchNews queries the Alpaca news endpoint. The client takes no context, so
// cancellation is only honoured before the request starts.
func (a *AlpacaNews) FetchNews(ctx context.Context, symbol string, limit int) ([]NewsArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	news, err := a.client.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{symbol},
		TotalLimit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca news for %s: %w", symbol, err)
	}

	articles := make([]NewsArticle, 0, len(news))
	for _, n := range news {
		articles = append(articles, articleFromAlpaca(symbol, n))
	}
	return articles, nil
}

// articleFromAlpaca maps one Alpaca news item. Alpaca carries no publisher
// field, so the byline stands in as the source.
func articleFromAlpaca(symbol string, n marketdata.News) NewsArticle {
	published := n.CreatedAt
	if published.IsZero() {
		published = n.UpdatedAt
	}
	return NewsArticle{
		ID:          int64(n.ID),
		Symbol:      symbol,
		Headline:    n.Headline,
		Summary:     n.Summary,
		URL:         n.URL,
		Source:      n.Author,
		PublishedAt: published,
	}
}
