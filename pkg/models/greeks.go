package models

// OptionGreeks holds the sensitivities of one position, already scaled by
// signed quantity and contract multiplier, plus the dollarized variants.
// Theta is per calendar day, vega per 1 vol point, rho per 1% rate move.
type OptionGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`

	// Price is the theoretical per-unit price of the instrument.
	Price float64 `json:"price"`

	DeltaDollars float64 `json:"delta_dollars"`
	GammaDollars float64 `json:"gamma_dollars"` // per 1% underlying move
	ThetaDollars float64 `json:"theta_dollars"` // per day
	VegaDollars  float64 `json:"vega_dollars"`  // per 1 vol point

	// Warnings records non-fatal input substitutions, e.g. a fallback
	// volatility used because the snapshot carried none.
	Warnings []string `json:"warnings,omitempty"`
}

// Add returns the element-wise sum of g and other. Warnings are concatenated.
func (g OptionGreeks) Add(other OptionGreeks) OptionGreeks {
	sum := OptionGreeks{
		Delta:        g.Delta + other.Delta,
		Gamma:        g.Gamma + other.Gamma,
		Theta:        g.Theta + other.Theta,
		Vega:         g.Vega + other.Vega,
		Rho:          g.Rho + other.Rho,
		DeltaDollars: g.DeltaDollars + other.DeltaDollars,
		GammaDollars: g.GammaDollars + other.GammaDollars,
		ThetaDollars: g.ThetaDollars + other.ThetaDollars,
		VegaDollars:  g.VegaDollars + other.VegaDollars,
	}
	sum.Warnings = append(sum.Warnings, g.Warnings...)
	sum.Warnings = append(sum.Warnings, other.Warnings...)
	return sum
}

// UnderlyingGreeks summarizes all positions sharing one underlying.
type UnderlyingGreeks struct {
	Symbol        string       `json:"symbol"`
	Spot          float64      `json:"spot"`
	PositionCount int          `json:"position_count"`
	Greeks        OptionGreeks `json:"greeks"`
}

// ExcludedPosition records a position dropped from aggregation because its
// input was malformed, with the offending field identified.
type ExcludedPosition struct {
	Symbol string `json:"symbol"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// PortfolioGreeks is the portfolio-level aggregate: the signed sum of every
// position's scaled Greeks, a per-underlying breakdown, and bookkeeping for
// excluded positions and fallback warnings.
type PortfolioGreeks struct {
	Delta        float64 `json:"delta"` // shares equivalent
	Gamma        float64 `json:"gamma"`
	Theta        float64 `json:"theta"`
	Vega         float64 `json:"vega"`
	Rho          float64 `json:"rho"`
	DeltaDollars float64 `json:"delta_dollars"`
	GammaDollars float64 `json:"gamma_dollars"`
	ThetaDollars float64 `json:"theta_dollars"`
	VegaDollars  float64 `json:"vega_dollars"`

	ByUnderlying map[string]*UnderlyingGreeks `json:"by_underlying"`

	// WeightedIV is the |vega-dollar|-weighted average implied volatility of
	// the option book; WeightedDTE the value-weighted days to expiry.
	WeightedIV  float64 `json:"weighted_iv"`
	WeightedDTE float64 `json:"weighted_dte"`

	// NearestExpiryDays is -1 when the portfolio holds no options.
	NearestExpiryDays int `json:"nearest_expiry_days"`

	Warnings []string           `json:"warnings,omitempty"`
	Excluded []ExcludedPosition `json:"excluded,omitempty"`
}

// NewPortfolioGreeks returns an empty aggregate ready for folding.
func NewPortfolioGreeks() *PortfolioGreeks {
	return &PortfolioGreeks{
		ByUnderlying:      make(map[string]*UnderlyingGreeks),
		NearestExpiryDays: -1,
	}
}
