package sim

import (
	"time"

	"github.com/quantedge/options-risk-engine/internal/pricing"
	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
)

// DefaultScenarios returns the standard stress battery.
func DefaultScenarios() []models.StressScenario {
	return []models.StressScenario{
		{Name: "market_crash_10pct", AllSpotShock: -0.10},
		{Name: "market_crash_20pct", AllSpotShock: -0.20},
		{Name: "market_rally_10pct", AllSpotShock: 0.10},
		{Name: "volatility_spike", VolMultiplier: 1.5},
		{Name: "volatility_collapse", VolMultiplier: 0.5},
	}
}

// StressTest reprices the portfolio once under each deterministic scenario.
// No paths are generated; each scenario shocks the snapshots and revalues.
func (s *Simulator) StressTest(positions []*models.Position, snaps map[string]*models.MarketSnapshot, scenarios []models.StressScenario, now time.Time) ([]models.StressResult, error) {
	if len(positions) == 0 {
		return nil, errors.Validation("positions", "empty portfolio")
	}
	if len(scenarios) == 0 {
		scenarios = DefaultScenarios()
	}

	baseTotal, basePerPos := s.valuePortfolio(positions, snaps, now)

	results := make([]models.StressResult, 0, len(scenarios))
	for _, sc := range scenarios {
		shocked := applyScenario(snaps, sc)
		total, perPos := s.valuePortfolio(positions, shocked, now)

		r := models.StressResult{
			Name:         sc.Name,
			InitialValue: baseTotal,
			ShockedValue: total,
			PnL:          total - baseTotal,
			PositionPnL:  make(map[string]float64, len(perPos)),
		}
		if baseTotal != 0 {
			r.PnLPercent = r.PnL / baseTotal * 100
		}
		for sym, v := range perPos {
			r.PositionPnL[sym] = v - basePerPos[sym]
		}
		results = append(results, r)

		s.log.Infow("stress scenario evaluated",
			"scenario", sc.Name, "pnl", r.PnL, "pnl_percent", r.PnLPercent)
	}
	return results, nil
}

// valuePortfolio reprices every position against the given snapshots,
// returning the theoretical total and per-symbol values. Positions without a
// usable snapshot are skipped.
func (s *Simulator) valuePortfolio(positions []*models.Position, snaps map[string]*models.MarketSnapshot, now time.Time) (float64, map[string]float64) {
	perPos := make(map[string]float64, len(positions))
	var total float64
	for _, pos := range positions {
		snap := snaps[pos.UnderlyingSymbol()]
		if snap == nil || snap.Spot <= 0 {
			continue
		}
		scale := pos.Quantity * pos.EffectiveMultiplier()

		var v float64
		if pos.IsOption() {
			if pos.Option == nil || pos.Option.Expiry.IsZero() {
				continue
			}
			vol := snap.ImpliedVol
			if vol < 0 {
				vol = s.cfg.DefaultVolatility
			}
			t := float64(pos.Option.DaysToExpiry(now)) / 365.0
			v = pricing.Price(pos.Option.IsCall(), snap.Spot, pos.Option.Strike, t, s.cfg.RiskFreeRate, 0, vol) * scale
		} else {
			v = scale * snap.Spot
		}
		perPos[pos.Symbol] += v
		total += v
	}
	return total, perPos
}

// applyScenario returns a shocked copy of the snapshot map. A per-symbol
// shock overrides the portfolio-wide one; a zero VolMultiplier leaves
// volatility untouched.
func applyScenario(snaps map[string]*models.MarketSnapshot, sc models.StressScenario) map[string]*models.MarketSnapshot {
	out := make(map[string]*models.MarketSnapshot, len(snaps))
	for sym, snap := range snaps {
		ns := *snap

		shock := sc.AllSpotShock
		if v, ok := sc.SpotShocks[sym]; ok {
			shock = v
		}
		ns.Spot = snap.Spot * (1 + shock)

		if sc.VolMultiplier > 0 && sc.VolMultiplier != 1 {
			ns.ImpliedVol = snap.ImpliedVol * sc.VolMultiplier
		}
		out[sym] = &ns
	}
	return out
}
