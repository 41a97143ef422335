package newsscraping

import "strings"

type SentimentScore string

const (
	Positive SentimentScore = "positive"
	Negative SentimentScore = "negative"
	Neutral  SentimentScore = "neutral"
)

type SentimentAnalyzer struct {
	positiveWords map[string]float64
	negativeWords map[string]float64
}

func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{
		positiveWords: map[string]float64{
			// Strong positive (0.9-1.0)
			"surge": 1.0, "soar": 1.0, "skyrocket": 1.0, "breakthrough": 1.0,
			"bullish": 0.95, "rally": 0.95, "listing": 0.9, "listed": 0.9,
			"approval": 0.9, "approved": 0.9, "partnership": 0.9, "breakout": 0.9,

			// Moderate positive (0.7-0.89)
			"audit": 0.8, "audited": 0.85, "upgrade": 0.8, "launch": 0.8,
			"adoption": 0.8, "growth": 0.8, "gain": 0.8, "gains": 0.8,
			"integration": 0.75, "record": 0.75, "inflows": 0.75, "momentum": 0.75,
			"recover": 0.7, "rebound": 0.7, "burn": 0.7, "buyback": 0.7,

			// Mild positive (0.5-0.69)
			"positive": 0.65, "rise": 0.65, "rises": 0.65, "higher": 0.65,
			"support": 0.6, "stable": 0.6, "steady": 0.6, "staking": 0.55,
			"airdrop": 0.5, "milestone": 0.6, "expands": 0.6, "secure": 0.55,
		},
		negativeWords: map[string]float64{
			// Strong negative (0.9-1.0)
			"rug": 1.0, "rugpull": 1.0, "exploit": 1.0, "exploited": 1.0,
			"hack": 1.0, "hacked": 1.0, "scam": 1.0, "drained": 1.0,
			"collapse": 0.95, "crash": 0.95, "plunge": 0.95, "insolvent": 0.95,
			"fraud": 0.95, "honeypot": 0.9, "delist": 0.9, "delisted": 0.9,

			// Moderate negative (0.7-0.89)
			"lawsuit": 0.85, "sec": 0.7, "charges": 0.85, "investigation": 0.8,
			"bearish": 0.85, "outflows": 0.75, "dump": 0.85, "dumped": 0.85,
			"vulnerability": 0.85, "paused": 0.75, "frozen": 0.8, "halt": 0.8,
			"decline": 0.75, "slump": 0.8, "losses": 0.8, "warning": 0.8,

			// Mild negative (0.5-0.69)
			"risk": 0.6, "risks": 0.6, "concern": 0.65, "concerns": 0.65,
			"volatile": 0.6, "uncertainty": 0.6, "delay": 0.55, "delayed": 0.55,
			"drop": 0.65, "falls": 0.65, "lower": 0.55, "pressure": 0.55,
		},
	}
}

func (sa *SentimentAnalyzer) Analyze(text string) (SentimentScore, float64) {
	text = strings.ToLower(text)
	words := strings.Fields(text)

	var score float64
	var matches int

	for _, word := range words {
		word = strings.Trim(word, ".,!?\"'()[]{}:;$")

		if val, exists := sa.positiveWords[word]; exists {
			score += val
			matches++
		} else if val, exists := sa.negativeWords[word]; exists {
			score -= val
			matches++
		}
	}

	if matches > 0 {
		score /= float64(matches)
	}
	return labelFor(score), score
}
