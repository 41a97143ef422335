// Package newsscraping serves recent headlines for a token symbol with a
// keyword sentiment tag on each one.
package newsscraping

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"
)

var ErrInvalidSymbol = errors.New("invalid symbol")

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,15}(/[A-Z]{3,4})?$`)

type Service struct {
	source    NewsSource
	cache     *Cache
	sentiment *SentimentAnalyzer
	limit     int
	now       func() time.Time
}

func NewService(source NewsSource, ttl time.Duration, limit int, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if limit <= 0 {
		limit = 5
	}
	return &Service{
		source:    source,
		cache:     NewCache(ttl, now),
		sentiment: NewSentimentAnalyzer(),
		limit:     limit,
		now:       now,
	}
}

// NormalizeSymbol upper-cases and validates a ticker such as "pepe" or "eth/usd".
func NormalizeSymbol(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolPattern.MatchString(s) {
		return "", ErrInvalidSymbol
	}
	return s, nil
}

// Headlines returns tagged articles for symbol, served from cache while fresh.
func (s *Service) Headlines(ctx context.Context, raw string) (HeadlineDigest, error) {
	symbol, err := NormalizeSymbol(raw)
	if err != nil {
		return HeadlineDigest{}, err
	}

	if d, ok := s.cache.Get(symbol); ok {
		d.Cached = true
		return d, nil
	}

	articles, err := s.source.FetchNews(ctx, symbol, s.limit)
	if err != nil {
		log.Printf("⚠️  [headlines] %s unavailable: %v", symbol, err)
		return HeadlineDigest{}, err
	}

	var total float64
	for i := range articles {
		label, value := s.sentiment.Analyze(articles[i].Headline + " " + articles[i].Summary)
		articles[i].Sentiment = label
		articles[i].SentimentValue = value
		total += value
	}

	d := HeadlineDigest{
		Symbol:    symbol,
		Articles:  articles,
		Overall:   Neutral,
		FetchedAt: s.now(),
	}
	if len(articles) > 0 {
		d.Overall = labelFor(total / float64(len(articles)))
	}
	s.cache.Set(symbol, d)

	log.Printf("📰 [headlines] %s: %d articles, overall %s", symbol, len(articles), d.Overall)
	return d, nil
}

func labelFor(score float64) SentimentScore {
	switch {
	case score > 0.1:
		return Positive
	case score < -0.1:
		return Negative
	}
	return Neutral
}
