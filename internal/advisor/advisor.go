// Package advisor turns Greek aggregates and simulation output into a risk
// score, level, and a prioritized list of recommendations. The advisor is
// deterministic: identical inputs and configuration always produce the same
// report.
package advisor

import (
	"math"
	"sort"
	"time"

	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

// Config holds the advisor thresholds and score bands.
type Config struct {
	DeltaNeutralThreshold  float64 // |delta dollars| / portfolio value
	ConcentrationWarning   float64 // largest position share of portfolio
	ThetaDecayWarning      float64 // daily decay as fraction of portfolio value
	VaRWarning             float64 // VaR95 as fraction of portfolio value
	VegaWarning            float64 // |vega dollars| / portfolio value
	LossProbabilityWarning float64 // simulated probability-of-loss trigger
	ExpiryWindowDays       int
	ProfitTakePct          float64
	StopLossPct            float64 // negative fraction of cost basis

	ScoreMedium   float64
	ScoreHigh     float64
	ScoreCritical float64
}

// Inputs is the read-only context one analysis cycle hands to the advisor.
type Inputs struct {
	Positions  []*models.Position
	Greeks     *models.PortfolioGreeks
	Simulation *models.SimulationResult
	Account    models.AccountSummary
	Now        time.Time
}

// Advisor evaluates rules against analysis inputs.
type Advisor struct {
	cfg   Config
	rules []rule
	log   *logger.Logger
}

// New returns an Advisor with the standard rule set.
func New(cfg Config) *Advisor {
	return &Advisor{
		cfg:   cfg,
		rules: standardRules(),
		log:   logger.GetLogger("advisor"),
	}
}

// portfolioValue is the reference value risk ratios are computed against:
// the simulation's initial value when available, otherwise the sum of
// absolute market values.
func (in *Inputs) portfolioValue() float64 {
	if in.Simulation != nil && in.Simulation.InitialValue > 0 {
		return in.Simulation.InitialValue
	}
	var total float64
	for _, pos := range in.Positions {
		total += math.Abs(pos.MarketValue)
	}
	return total
}

// maxConcentration returns the largest per-symbol share of portfolio value
// and the symbol holding it. Symbols are visited in sorted order so ties
// resolve deterministically.
func maxConcentration(positions []*models.Position) (string, float64) {
	var total float64
	bySymbol := make(map[string]float64)
	for _, pos := range positions {
		v := math.Abs(pos.MarketValue)
		bySymbol[pos.Symbol] += v
		total += v
	}
	if total == 0 {
		return "", 0
	}
	symbols := make([]string, 0, len(bySymbol))
	for sym := range bySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var topSym string
	var topPct float64
	for _, sym := range symbols {
		if pct := bySymbol[sym] / total; pct > topPct {
			topSym, topPct = sym, pct
		}
	}
	return topSym, topPct
}

// Score computes the additive risk score, capped at 100. Each component is
// monotonic in its exposure so a strictly riskier portfolio never scores
// lower.
func (a *Advisor) Score(in *Inputs) float64 {
	pv := in.portfolioValue()
	g := in.Greeks
	var score float64

	// Directional exposure.
	var deltaRatio float64
	if pv > 0 && g != nil {
		deltaRatio = math.Abs(g.DeltaDollars) / pv
	}
	switch {
	case deltaRatio > 0.5:
		score += 25
	case deltaRatio > 0.25:
		score += 15
	default:
		score += 5
	}

	// Volatility exposure.
	var vegaRatio float64
	if pv > 0 && g != nil {
		vegaRatio = math.Abs(g.VegaDollars) / pv
	}
	switch {
	case vegaRatio > a.cfg.VegaWarning*2.5:
		score += 20
	case vegaRatio > a.cfg.VegaWarning:
		score += 10
	default:
		score += 5
	}

	// Time decay.
	var theta float64
	if g != nil {
		theta = g.ThetaDollars
	}
	switch {
	case pv > 0 && theta < -a.cfg.ThetaDecayWarning*pv:
		score += 15
	case pv > 0 && theta < 0 && math.Abs(theta)/pv > 0.001:
		score += 10
	default:
		score += 5
	}

	// Concentration.
	_, conc := maxConcentration(in.Positions)
	switch {
	case conc > a.cfg.ConcentrationWarning:
		score += 15
	case conc > a.cfg.ConcentrationWarning*0.6:
		score += 10
	default:
		score += 5
	}

	// Option-heavy books carry gamma and expiry risk the Greeks above
	// understate.
	if len(in.Positions) > 0 {
		var optionCount int
		for _, pos := range in.Positions {
			if pos.IsOption() {
				optionCount++
			}
		}
		if float64(optionCount)/float64(len(in.Positions)) > 0.7 {
			score += 10
		}
	}

	// Tail risk and loss probability from simulation.
	if in.Simulation != nil && pv > 0 {
		stats := in.Simulation.Stats
		if stats.VaR95/pv > a.cfg.VaRWarning {
			score += 20
		}
		if stats.ProbabilityLoss > a.cfg.LossProbabilityWarning {
			score += 10
		}
	}

	return math.Min(100, score)
}

// Level maps a score onto the configured risk bands.
func (a *Advisor) Level(score float64) models.RiskLevel {
	switch {
	case score >= a.cfg.ScoreCritical:
		return models.RiskCritical
	case score >= a.cfg.ScoreHigh:
		return models.RiskHigh
	case score >= a.cfg.ScoreMedium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Recommend evaluates every rule in order against the inputs and returns the
// matches sorted by priority. The sort is stable so rule order breaks ties.
func (a *Advisor) Recommend(in *Inputs) []models.Recommendation {
	ctx := newRuleContext(a.cfg, in)

	recs := make([]models.Recommendation, 0, len(a.rules))
	for _, r := range a.rules {
		if rec := r.eval(ctx); rec != nil {
			recs = append(recs, *rec)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})

	a.log.Debugw("recommendations generated", "count", len(recs))
	return recs
}

// BuildReport assembles the full report body. The caller assigns the report
// identity (ID and timestamp); everything here is a pure function of the
// inputs.
func (a *Advisor) BuildReport(in *Inputs) *models.RiskReport {
	score := a.Score(in)

	report := &models.RiskReport{
		Account: models.ReportAccount{
			NetLiquidation: in.Account.NetLiquidation,
			UnrealizedPnL:  in.Account.UnrealizedPnL,
		},
		Risk: models.ReportRisk{
			Level: a.Level(score),
			Score: score,
		},
		Recommendations: a.Recommend(in),
		Positions:       make([]models.ReportPosition, 0, len(in.Positions)),
	}

	if g := in.Greeks; g != nil {
		report.Greeks = models.ReportGreeks{
			Delta:        g.Delta,
			DeltaDollars: g.DeltaDollars,
			Gamma:        g.Gamma,
			ThetaDollars: g.ThetaDollars,
			Vega:         g.Vega,
		}
	}
	if sim := in.Simulation; sim != nil {
		report.Risk.ExpectedReturn = sim.Stats.ExpectedReturn
		report.Risk.VaR95 = sim.Stats.VaR95
		report.Risk.ProbabilityLoss = sim.Stats.ProbabilityLoss
	}

	for _, pos := range in.Positions {
		report.Positions = append(report.Positions, models.ReportPosition{
			Symbol:        pos.Symbol,
			SecType:       pos.SecType,
			Quantity:      pos.Quantity,
			MarketValue:   pos.MarketValue,
			UnrealizedPnL: pos.UnrealizedPnL,
		})
	}

	a.log.Infow("risk report built",
		"score", score,
		"level", report.Risk.Level,
		"recommendations", len(report.Recommendations))

	return report
}
