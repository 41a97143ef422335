package types

type Grade string

const (
	GradeA  Grade = "A"
	GradeB  Grade = "B"
	GradeC  Grade = "C"
	GradeD  Grade = "D"
	GradeF  Grade = "F"
	GradeNA Grade = "N/A"
)

type Confidence string

const (
	ConfidenceLow  Confidence = "low"
	ConfidenceMed  Confidence = "med"
	ConfidenceHigh Confidence = "high"
)

type BadgeLevel string

const (
	BadgeInfo BadgeLevel = "info"
	BadgeWarn BadgeLevel = "warn"
	BadgeHigh BadgeLevel = "high"
)

// Finding is one weighted pass/fail evidence item.
type Finding struct {
	Key      string  `json:"key"`
	Category string  `json:"category"`
	Passed   bool    `json:"passed"`
	Weight   float64 `json:"weight"`
	Note     string  `json:"note"`
	// Unknown marks a finding that failed only because its inputs were missing.
	Unknown bool `json:"unknown,omitempty"`
}

// Metrics holds optional measurements. A nil field means it could not be
// computed, not that it is zero.
type Metrics struct {
	LiquidityUSD *float64 `json:"liquidityUSD,omitempty"`
	TopHolderPct *float64 `json:"topHolderPct,omitempty"`
	BuySellRatio string   `json:"buySellRatio,omitempty"`
	BuyTaxPct    *float64 `json:"buyTaxPct,omitempty"`
	SellTaxPct   *float64 `json:"sellTaxPct,omitempty"`
	HolderCount  *int     `json:"holderCount,omitempty"`
}

// SourceStatus reports one planned source. OK is nil when the source was
// never attempted.
type SourceStatus struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	OK    *bool  `json:"ok"`
	Note  string `json:"note,omitempty"`
}

type RiskBadge struct {
	Key   string     `json:"key"`
	Level BadgeLevel `json:"level"`
	Text  string     `json:"text"`
}

type Report struct {
	Address      string         `json:"address"`
	ChainID      int64          `json:"chainId"`
	Name         string         `json:"name,omitempty"`
	Symbol       string         `json:"symbol,omitempty"`
	Score        int            `json:"score"`
	RawScore     int            `json:"rawScore"`
	Grade        Grade          `json:"grade"`
	Summary      []Finding      `json:"summary"`
	Findings     []Finding      `json:"findings"`
	Metrics      Metrics        `json:"metrics"`
	Coverage     int            `json:"coverage"`
	Confidence   Confidence     `json:"confidence"`
	SourcesTable []SourceStatus `json:"sourcesTable"`
	RiskBadges   []RiskBadge    `json:"riskBadges"`
}

// Finding looks up a finding by key.
func (r *Report) Finding(key string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.Key == key {
			return f, true
		}
	}
	return Finding{}, false
}
