package advisor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/quantedge/options-risk-engine/pkg/models"
)

// ruleContext is the shared read-only view every rule evaluates against.
type ruleContext struct {
	cfg Config
	in  *Inputs

	portfolioValue float64
	deltaRatio     float64
	vegaRatio      float64
	topSymbol      string
	topShare       float64
	expiring       []*models.Position
}

func newRuleContext(cfg Config, in *Inputs) *ruleContext {
	ctx := &ruleContext{cfg: cfg, in: in}
	ctx.portfolioValue = in.portfolioValue()

	if g := in.Greeks; g != nil && ctx.portfolioValue > 0 {
		ctx.deltaRatio = math.Abs(g.DeltaDollars) / ctx.portfolioValue
		ctx.vegaRatio = math.Abs(g.VegaDollars) / ctx.portfolioValue
	}
	ctx.topSymbol, ctx.topShare = maxConcentration(in.Positions)

	for _, pos := range in.Positions {
		if pos.IsOption() && pos.Option != nil &&
			pos.Option.DaysToExpiry(in.Now) <= cfg.ExpiryWindowDays {
			ctx.expiring = append(ctx.expiring, pos)
		}
	}
	return ctx
}

// rule is one independent predicate over the context. A nil result means the
// rule did not fire.
type rule struct {
	name string
	eval func(*ruleContext) *models.Recommendation
}

// standardRules returns the rule set in evaluation order. Order matters for
// tie-breaking within the same priority.
func standardRules() []rule {
	return []rule{
		{name: "delta_hedge", eval: deltaHedgeRule},
		{name: "expiring_options", eval: expiringOptionsRule},
		{name: "theta_decay", eval: thetaDecayRule},
		{name: "concentration", eval: concentrationRule},
		{name: "vega_exposure", eval: vegaExposureRule},
		{name: "loss_probability", eval: lossProbabilityRule},
		{name: "stop_loss", eval: stopLossRule},
		{name: "take_profit", eval: takeProfitRule},
	}
}

func deltaHedgeRule(ctx *ruleContext) *models.Recommendation {
	if ctx.in.Greeks == nil || ctx.deltaRatio <= ctx.cfg.DeltaNeutralThreshold {
		return nil
	}
	g := ctx.in.Greeks

	priority := models.PriorityMedium
	if ctx.deltaRatio > ctx.cfg.DeltaNeutralThreshold*3 {
		priority = models.PriorityHigh
	}
	bias := "bullish"
	if g.Delta < 0 {
		bias = "bearish"
	}
	hedgeShares := int(math.Round(-g.Delta))

	return &models.Recommendation{
		Priority: priority,
		Category: "hedge",
		Message: fmt.Sprintf(
			"Portfolio has a %s delta bias of %.0f shares equivalent ($%.0f exposure); hedge by trading ~%d shares of the underlyings",
			bias, g.Delta, g.DeltaDollars, abs(hedgeShares)),
	}
}

func expiringOptionsRule(ctx *ruleContext) *models.Recommendation {
	if len(ctx.expiring) == 0 {
		return nil
	}
	symbols := make([]string, 0, len(ctx.expiring))
	for _, pos := range ctx.expiring {
		symbols = append(symbols, pos.Symbol)
	}
	sort.Strings(symbols)

	return &models.Recommendation{
		Priority: models.PriorityHigh,
		Category: "roll",
		Message: fmt.Sprintf(
			"%d option position(s) expiring within %d days (%s); roll to later expirations or close to manage gamma risk",
			len(ctx.expiring), ctx.cfg.ExpiryWindowDays, strings.Join(symbols, ", ")),
	}
}

func thetaDecayRule(ctx *ruleContext) *models.Recommendation {
	g := ctx.in.Greeks
	if g == nil || ctx.portfolioValue <= 0 {
		return nil
	}
	if g.ThetaDollars >= -ctx.cfg.ThetaDecayWarning*ctx.portfolioValue {
		return nil
	}
	return &models.Recommendation{
		Priority: models.PriorityHigh,
		Category: "time_decay",
		Message: fmt.Sprintf(
			"Portfolio is losing $%.0f daily to theta; consider closing or rolling long options, or selling premium to offset",
			math.Abs(g.ThetaDollars)),
	}
}

func concentrationRule(ctx *ruleContext) *models.Recommendation {
	if ctx.topShare <= ctx.cfg.ConcentrationWarning {
		return nil
	}
	return &models.Recommendation{
		Priority: models.PriorityMedium,
		Category: "concentration",
		Message: fmt.Sprintf(
			"%s represents %.1f%% of portfolio value (threshold %.0f%%); consider diversifying",
			ctx.topSymbol, ctx.topShare*100, ctx.cfg.ConcentrationWarning*100),
	}
}

func vegaExposureRule(ctx *ruleContext) *models.Recommendation {
	g := ctx.in.Greeks
	if g == nil || ctx.vegaRatio <= ctx.cfg.VegaWarning*2.5 {
		return nil
	}
	direction := "gains"
	if g.VegaDollars < 0 {
		direction = "loses"
	}
	return &models.Recommendation{
		Priority: models.PriorityMedium,
		Category: "volatility",
		Message: fmt.Sprintf(
			"Portfolio %s $%.0f per 1 point IV change; consider offsetting vega with opposite-direction options",
			direction, math.Abs(g.VegaDollars)),
	}
}

func lossProbabilityRule(ctx *ruleContext) *models.Recommendation {
	sim := ctx.in.Simulation
	if sim == nil || sim.Stats.ProbabilityLoss <= ctx.cfg.LossProbabilityWarning {
		return nil
	}
	return &models.Recommendation{
		Priority: models.PriorityMedium,
		Category: "adjust",
		Message: fmt.Sprintf(
			"%.1f%% probability of loss over %d days; review entry points and consider taking profits on winners",
			sim.Stats.ProbabilityLoss*100, sim.NumDays),
	}
}

func stopLossRule(ctx *ruleContext) *models.Recommendation {
	var losers []string
	var totalLoss float64
	for _, pos := range ctx.in.Positions {
		cost := pos.TotalCost()
		if cost > 0 && pos.UnrealizedPnL < ctx.cfg.StopLossPct*cost {
			losers = append(losers, pos.Symbol)
			totalLoss += pos.UnrealizedPnL
		}
	}
	if len(losers) == 0 {
		return nil
	}
	sort.Strings(losers)
	return &models.Recommendation{
		Priority: models.PriorityMedium,
		Category: "stop_loss",
		Message: fmt.Sprintf(
			"%d position(s) with losses beyond %.0f%% of cost basis (%s), $%.0f total; evaluate whether the thesis is intact",
			len(losers), math.Abs(ctx.cfg.StopLossPct)*100, strings.Join(losers, ", "), math.Abs(totalLoss)),
	}
}

func takeProfitRule(ctx *ruleContext) *models.Recommendation {
	var winners []string
	var totalProfit float64
	for _, pos := range ctx.in.Positions {
		cost := pos.TotalCost()
		if cost > 0 && pos.UnrealizedPnL > ctx.cfg.ProfitTakePct*cost {
			winners = append(winners, pos.Symbol)
			totalProfit += pos.UnrealizedPnL
		}
	}
	if len(winners) == 0 {
		return nil
	}
	sort.Strings(winners)
	return &models.Recommendation{
		Priority: models.PriorityLow,
		Category: "take_profit",
		Message: fmt.Sprintf(
			"%d position(s) with gains above %.0f%% of cost basis (%s), $%.0f total; consider scaling out to lock in gains",
			len(winners), ctx.cfg.ProfitTakePct*100, strings.Join(winners, ", "), totalProfit),
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
