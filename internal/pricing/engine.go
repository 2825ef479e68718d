package pricing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

// Config holds the pricing model parameters.
type Config struct {
	RiskFreeRate      float64
	DefaultVolatility float64
	DividendYield     float64
}

// Engine computes position and portfolio Greeks. It is stateless apart from
// configuration and safe for concurrent use.
type Engine struct {
	cfg Config
	log *logger.Logger
}

// NewEngine creates a Greeks engine. DefaultVolatility must be positive.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.DefaultVolatility <= 0 {
		return nil, errors.Validation("default_volatility", "must be positive")
	}
	return &Engine{
		cfg: cfg,
		log: logger.GetLogger("pricing.engine"),
	}, nil
}

// FallbackVolWarning is the annotation attached when a snapshot carries no
// usable implied volatility and the configured default was substituted.
func fallbackVolWarning(symbol string, vol float64) string {
	return fmt.Sprintf("%s: no implied volatility in snapshot, using default %.2f", symbol, vol)
}

// PositionGreeks computes the scaled Greeks of a single position against its
// underlying snapshot. A validation error means the position must be excluded
// from aggregation; the portfolio fold records it rather than failing.
func (e *Engine) PositionGreeks(pos *models.Position, snap *models.MarketSnapshot, now time.Time) (*models.OptionGreeks, error) {
	if pos.Quantity == 0 {
		return nil, errors.Validation("position", "quantity is zero")
	}
	if snap == nil {
		return nil, errors.Validation("snapshot", "no market snapshot for underlying")
	}
	if snap.Spot <= 0 {
		return nil, errors.Validationf("spot", "non-positive spot %.4f", snap.Spot)
	}

	scale := pos.Quantity * pos.EffectiveMultiplier()

	if !pos.IsOption() {
		// Linear instruments: one delta per unit, nothing else.
		return &models.OptionGreeks{
			Delta:        scale,
			Price:        snap.Spot,
			DeltaDollars: scale * snap.Spot,
		}, nil
	}

	opt := pos.Option
	if opt == nil {
		return nil, errors.Validation("option", "option position without contract details")
	}
	if opt.Strike <= 0 {
		return nil, errors.Validationf("strike", "non-positive strike %.4f", opt.Strike)
	}
	if opt.Right != models.RightCall && opt.Right != models.RightPut {
		return nil, errors.Validationf("right", "unknown option right %q", opt.Right)
	}
	if opt.Expiry.IsZero() {
		return nil, errors.Validation("expiry", "option without expiry")
	}

	rate := e.cfg.RiskFreeRate
	if snap.RiskFreeRate > 0 {
		rate = snap.RiskFreeRate
	}

	vol := snap.ImpliedVol
	var warnings []string
	if vol <= 0 {
		vol = e.cfg.DefaultVolatility
		warnings = append(warnings, fallbackVolWarning(pos.Symbol, vol))
	}

	t := float64(opt.DaysToExpiry(now)) / 365.0
	isCall := opt.IsCall()

	unitDelta := Delta(isCall, snap.Spot, opt.Strike, t, rate, e.cfg.DividendYield, vol)
	unitGamma := Gamma(snap.Spot, opt.Strike, t, rate, e.cfg.DividendYield, vol)
	unitTheta := Theta(isCall, snap.Spot, opt.Strike, t, rate, e.cfg.DividendYield, vol)
	unitVega := Vega(snap.Spot, opt.Strike, t, rate, e.cfg.DividendYield, vol)
	unitRho := Rho(isCall, snap.Spot, opt.Strike, t, rate, e.cfg.DividendYield, vol)
	price := Price(isCall, snap.Spot, opt.Strike, t, rate, e.cfg.DividendYield, vol)

	return &models.OptionGreeks{
		Delta:        unitDelta * scale,
		Gamma:        unitGamma * scale,
		Theta:        unitTheta * scale,
		Vega:         unitVega * scale,
		Rho:          unitRho * scale,
		Price:        price,
		DeltaDollars: unitDelta * scale * snap.Spot,
		GammaDollars: unitGamma * scale * snap.Spot * 0.01,
		ThetaDollars: unitTheta * scale,
		VegaDollars:  unitVega * scale,
		Warnings:     warnings,
	}, nil
}

// PortfolioGreeks folds position Greeks into the portfolio aggregate.
// Positions with malformed inputs are excluded and recorded; fallback
// substitutions surface as warnings on the aggregate.
func (e *Engine) PortfolioGreeks(positions []*models.Position, snaps map[string]*models.MarketSnapshot, now time.Time) *models.PortfolioGreeks {
	pg := models.NewPortfolioGreeks()

	var (
		ivWeightSum  float64
		ivWeighted   float64
		dteWeightSum float64
		dteWeighted  float64
	)

	for _, pos := range positions {
		snap := snaps[pos.UnderlyingSymbol()]

		g, err := e.PositionGreeks(pos, snap, now)
		if err != nil {
			field := errors.FieldOf(err)
			pg.Excluded = append(pg.Excluded, models.ExcludedPosition{
				Symbol: pos.Symbol,
				Field:  field,
				Reason: err.Error(),
			})
			e.log.Warnw("position excluded from aggregation",
				"symbol", pos.Symbol, "field", field, "reason", err.Error())
			continue
		}

		pg.Delta += g.Delta
		pg.Gamma += g.Gamma
		pg.Theta += g.Theta
		pg.Vega += g.Vega
		pg.Rho += g.Rho
		pg.DeltaDollars += g.DeltaDollars
		pg.GammaDollars += g.GammaDollars
		pg.ThetaDollars += g.ThetaDollars
		pg.VegaDollars += g.VegaDollars
		pg.Warnings = append(pg.Warnings, g.Warnings...)

		und := pos.UnderlyingSymbol()
		ug, ok := pg.ByUnderlying[und]
		if !ok {
			ug = &models.UnderlyingGreeks{Symbol: und, Spot: snap.Spot}
			pg.ByUnderlying[und] = ug
		}
		ug.PositionCount++
		ug.Greeks = ug.Greeks.Add(*g)

		if pos.IsOption() {
			dte := pos.Option.DaysToExpiry(now)
			if pg.NearestExpiryDays < 0 || dte < pg.NearestExpiryDays {
				pg.NearestExpiryDays = dte
			}

			w := math.Abs(g.VegaDollars)
			iv := snap.ImpliedVol
			if iv <= 0 {
				iv = e.cfg.DefaultVolatility
			}
			ivWeighted += iv * w
			ivWeightSum += w

			mv := math.Abs(pos.MarketValue)
			dteWeighted += float64(dte) * mv
			dteWeightSum += mv
		}
	}

	if ivWeightSum > 0 {
		pg.WeightedIV = ivWeighted / ivWeightSum
	}
	if dteWeightSum > 0 {
		pg.WeightedDTE = dteWeighted / dteWeightSum
	}

	e.log.Debugw("portfolio greeks aggregated",
		"positions", len(positions),
		"excluded", len(pg.Excluded),
		"delta", pg.Delta,
		"delta_dollars", pg.DeltaDollars)

	return pg
}

// Underlyings returns the per-underlying breakdown as a slice sorted by
// symbol, for deterministic output.
func Underlyings(pg *models.PortfolioGreeks) []*models.UnderlyingGreeks {
	out := make([]*models.UnderlyingGreeks, 0, len(pg.ByUnderlying))
	for _, ug := range pg.ByUnderlying {
		out = append(out, ug)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
