package models

import "time"

// RiskLevel is a coarse classification of the portfolio risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Priority orders recommendations within a report.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Rank maps a priority to a sortable integer, highest urgency first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Recommendation is one actionable advisory line.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
}

// ReportAccount mirrors the account summary inside a report.
type ReportAccount struct {
	NetLiquidation float64 `json:"net_liquidation"`
	UnrealizedPnL  float64 `json:"unrealized_pnl"`
}

// ReportGreeks is the condensed portfolio Greek block of a report.
// Zero values are emitted, never omitted.
type ReportGreeks struct {
	Delta        float64 `json:"delta"`
	DeltaDollars float64 `json:"delta_dollars"`
	Gamma        float64 `json:"gamma"`
	ThetaDollars float64 `json:"theta_dollars"`
	Vega         float64 `json:"vega"`
}

// ReportRisk carries the score, level and headline simulation metrics.
type ReportRisk struct {
	Level           RiskLevel `json:"level"`
	Score           float64   `json:"score"`
	ExpectedReturn  float64   `json:"expected_return"`
	VaR95           float64   `json:"var_95"`
	ProbabilityLoss float64   `json:"probability_loss"`
}

// ReportPosition is the per-position echo inside a report.
type ReportPosition struct {
	Symbol        string  `json:"symbol"`
	SecType       SecType `json:"sec_type"`
	Quantity      float64 `json:"position"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// RiskReport is the full analysis output published to consumers.
type RiskReport struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	Account         ReportAccount    `json:"account"`
	Greeks          ReportGreeks     `json:"greeks"`
	Risk            ReportRisk       `json:"risk"`
	Recommendations []Recommendation `json:"recommendations"`
	Positions       []ReportPosition `json:"positions"`
}
