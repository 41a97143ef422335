package newsscraping

import "time"

type NewsArticle struct {
	ID             int64          `json:"id"`
	Symbol         string         `json:"symbol"`
	Headline       string         `json:"headline"`
	Summary        string         `json:"summary,omitempty"`
	URL            string         `json:"url"`
	Source         string         `json:"source"`
	PublishedAt    time.Time      `json:"published_at"`
	Sentiment      SentimentScore `json:"sentiment"`
	SentimentValue float64        `json:"sentiment_value"`
}

// HeadlineDigest is what callers get back for one symbol.
type HeadlineDigest struct {
	Symbol    string         `json:"symbol"`
	Articles  []NewsArticle  `json:"articles"`
	Overall   SentimentScore `json:"overall"`
	Cached    bool           `json:"cached"`
	FetchedAt time.Time      `json:"fetched_at"`
}
