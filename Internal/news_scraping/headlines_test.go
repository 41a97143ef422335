package newsscraping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type fakeSource struct {
	calls    int
	articles []NewsArticle
	err      error
}

func (f *fakeSource) FetchNews(ctx context.Context, symbol string, limit int) ([]NewsArticle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]NewsArticle, len(f.articles))
	copy(out, f.articles)
	return out, nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func TestSentimentAnalyzer(t *testing.T) {
	sa := NewSentimentAnalyzer()
	tests := []struct {
		text string
		want SentimentScore
	}{
		{"Token surges after Binance listing", Positive},
		{"Protocol exploited, liquidity drained in rug", Negative},
		{"Weekly market recap", Neutral},
		{"Partnership announced!", Positive},
	}
	for _, tt := range tests {
		if got, _ := sa.Analyze(tt.text); got != tt.want {
			t.Errorf("Analyze(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestCache_Expires(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(10*time.Minute, clock.Now)

	c.Set("PEPE", HeadlineDigest{Symbol: "PEPE"})
	if _, ok := c.Get("PEPE"); !ok {
		t.Fatal("fresh entry missing")
	}

	clock.t = clock.t.Add(10 * time.Minute)
	if _, ok := c.Get("PEPE"); ok {
		t.Error("entry should expire at the TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len = %d", c.Len())
	}
}

func TestCache_ZeroTTLDisables(t *testing.T) {
	c := NewCache(0, nil)
	c.Set("ETH", HeadlineDigest{Symbol: "ETH"})
	if _, ok := c.Get("ETH"); ok {
		t.Error("zero TTL should not cache")
	}
}

func TestService_CachesAndTags(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	src := &fakeSource{articles: []NewsArticle{
		{ID: 1, Headline: "PEPE rally continues on exchange listing"},
		{ID: 2, Headline: "Analysts see gains ahead"},
	}}
	svc := NewService(src, 5*time.Minute, 5, clock.Now)

	d, err := svc.Headlines(context.Background(), " pepe ")
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if d.Symbol != "PEPE" || d.Cached {
		t.Errorf("digest = %+v", d)
	}
	if d.Overall != Positive {
		t.Errorf("Overall = %s, want positive", d.Overall)
	}
	for _, a := range d.Articles {
		if a.Sentiment != Positive {
			t.Errorf("article %d sentiment = %s", a.ID, a.Sentiment)
		}
	}

	d, err = svc.Headlines(context.Background(), "PEPE")
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if !d.Cached || src.calls != 1 {
		t.Errorf("second call cached=%v calls=%d, want cached and one upstream call", d.Cached, src.calls)
	}

	clock.t = clock.t.Add(6 * time.Minute)
	if _, err := svc.Headlines(context.Background(), "PEPE"); err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("calls after expiry = %d, want 2", src.calls)
	}
}

func TestService_ErrorsAreNotCached(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream down")}
	svc := NewService(src, time.Minute, 5, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Headlines(context.Background(), "ETH"); err == nil {
			t.Fatal("expected error")
		}
	}
	if src.calls != 2 {
		t.Errorf("calls = %d, want 2", src.calls)
	}
}

func TestService_InvalidSymbol(t *testing.T) {
	src := &fakeSource{}
	svc := NewService(src, time.Minute, 5, nil)

	for _, s := range []string{"", "  ", "not a symbol", "$$$"} {
		if _, err := svc.Headlines(context.Background(), s); !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("Headlines(%q) err = %v", s, err)
		}
	}
	if src.calls != 0 {
		t.Errorf("invalid symbols reached upstream %d times", src.calls)
	}
}

func TestService_NoArticlesIsNeutral(t *testing.T) {
	svc := NewService(&fakeSource{}, time.Minute, 5, nil)
	d, err := svc.Headlines(context.Background(), "BTC/USD")
	if err != nil {
		t.Fatalf("Headlines: %v", err)
	}
	if d.Overall != Neutral || len(d.Articles) != 0 {
		t.Errorf("digest = %+v", d)
	}
}

func TestArticleFromAlpaca(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := marketdata.News{
		ID:        4242,
		Author:    "Benzinga Newsdesk",
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
		Headline:  "Token listed on major exchange",
		Summary:   "Trading opens Monday",
		URL:       "https://example.org/story",
		Symbols:   []string{"BTCUSD"},
	}

	a := articleFromAlpaca("BTC/USD", n)

	if a.ID != 4242 || a.Symbol != "BTC/USD" {
		t.Errorf("id/symbol = %d/%q", a.ID, a.Symbol)
	}
	if a.Source != "Benzinga Newsdesk" {
		t.Errorf("Source = %q, want the author", a.Source)
	}
	if a.Headline != n.Headline || a.Summary != n.Summary || a.URL != n.URL {
		t.Errorf("text fields not copied: %+v", a)
	}
	if !a.PublishedAt.Equal(created) {
		t.Errorf("PublishedAt = %v, want %v", a.PublishedAt, created)
	}
}
