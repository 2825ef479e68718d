// Package sim runs forward Monte Carlo simulations of portfolio value under
// geometric Brownian motion and deterministic stress scenarios.
package sim

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/quantedge/options-risk-engine/internal/pricing"
	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

const tradingDaysPerYear = 252

// Config controls one simulation run.
type Config struct {
	NumPaths          int
	NumDays           int
	RiskFreeRate      float64
	DefaultVolatility float64
	Antithetic        bool
	SamplePaths       int
	Seed              int64
}

// Simulator generates correlated GBM paths and reprices the portfolio along
// them. A Simulator is safe for concurrent use; each Run draws from its own
// generator.
type Simulator struct {
	cfg Config
	log *logger.Logger
}

// New validates the configuration and returns a Simulator.
func New(cfg Config) (*Simulator, error) {
	if cfg.NumPaths <= 0 {
		return nil, errors.Validation("num_paths", "must be positive")
	}
	if cfg.NumDays <= 0 {
		return nil, errors.Validation("num_days", "must be positive")
	}
	if cfg.DefaultVolatility <= 0 {
		return nil, errors.Validation("default_volatility", "must be positive")
	}
	return &Simulator{
		cfg: cfg,
		log: logger.GetLogger("sim.simulator"),
	}, nil
}

// simPosition is a position prepared for the hot repricing loop.
type simPosition struct {
	symbolIdx int
	scale     float64 // quantity * multiplier
	isOption  bool
	isCall    bool
	strike    float64
	dte       int
	vol       float64
}

// Run simulates the portfolio forward. corr, when non-nil, is a correlation
// matrix over the portfolio's underlyings in lexicographic symbol order; a
// matrix that is not positive definite is rejected with a validation error.
// Positions without a market snapshot are skipped and recorded as excluded.
func (s *Simulator) Run(positions []*models.Position, snaps map[string]*models.MarketSnapshot, corr [][]float64, now time.Time) (*models.SimulationResult, error) {
	if len(positions) == 0 {
		return nil, errors.Validation("positions", "empty portfolio")
	}

	res := &models.SimulationResult{
		NumPaths: s.cfg.NumPaths,
		NumDays:  s.cfg.NumDays,
	}

	// Collect underlyings in deterministic order.
	symbolSet := make(map[string]bool)
	var simPositions []simPosition
	pending := make([]*models.Position, 0, len(positions))
	for _, pos := range positions {
		snap := snaps[pos.UnderlyingSymbol()]
		if snap == nil || snap.Spot <= 0 {
			res.Excluded = append(res.Excluded, models.ExcludedPosition{
				Symbol: pos.Symbol,
				Field:  "snapshot",
				Reason: "no usable market snapshot for underlying",
			})
			s.log.Warnw("position skipped in simulation", "symbol", pos.Symbol)
			continue
		}
		if pos.IsOption() {
			if pos.Option == nil {
				res.Excluded = append(res.Excluded, models.ExcludedPosition{
					Symbol: pos.Symbol,
					Field:  "option",
					Reason: "option position without contract details",
				})
				continue
			}
			if pos.Option.Expiry.IsZero() {
				res.Excluded = append(res.Excluded, models.ExcludedPosition{
					Symbol: pos.Symbol,
					Field:  "expiry",
					Reason: "option without expiry",
				})
				continue
			}
		}
		symbolSet[pos.UnderlyingSymbol()] = true
		pending = append(pending, pos)
	}
	if len(pending) == 0 {
		return nil, errors.Validation("positions", "no positions with usable snapshots")
	}

	symbols := make([]string, 0, len(symbolSet))
	for sym := range symbolSet {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	symbolIdx := make(map[string]int, len(symbols))
	for i, sym := range symbols {
		symbolIdx[sym] = i
	}

	n := len(symbols)
	initialSpots := make([]float64, n)
	vols := make([]float64, n)
	for i, sym := range symbols {
		snap := snaps[sym]
		initialSpots[i] = snap.Spot
		// Zero vol is a valid degenerate case: deterministic paths.
		vols[i] = snap.ImpliedVol
		if vols[i] < 0 {
			vols[i] = s.cfg.DefaultVolatility
		}
	}

	for _, pos := range pending {
		sp := simPosition{
			symbolIdx: symbolIdx[pos.UnderlyingSymbol()],
			scale:     pos.Quantity * pos.EffectiveMultiplier(),
			isOption:  pos.IsOption(),
		}
		if sp.isOption {
			sp.isCall = pos.Option.IsCall()
			sp.strike = pos.Option.Strike
			sp.dte = pos.Option.DaysToExpiry(now)
			sp.vol = vols[sp.symbolIdx]
		}
		simPositions = append(simPositions, sp)
		res.InitialValue += math.Abs(pos.MarketValue)
	}

	chol, err := choleskyFactor(corr, n)
	if err != nil {
		return nil, err
	}

	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	numPaths := s.cfg.NumPaths
	numDays := s.cfg.NumDays
	dt := 1.0 / tradingDaysPerYear

	drifts := make([]float64, n)
	diffusions := make([]float64, n)
	for i := range symbols {
		drifts[i] = (s.cfg.RiskFreeRate - 0.5*vols[i]*vols[i]) * dt
		diffusions[i] = vols[i] * math.Sqrt(dt)
	}

	// dailyValues[d] holds every path's portfolio value at day d.
	dailyValues := make([][]float64, numDays+1)
	for d := range dailyValues {
		dailyValues[d] = make([]float64, numPaths)
	}
	res.TerminalValues = make([]float64, numPaths)
	pathDrawdowns := make([]float64, numPaths)
	acc := &returnAccumulator{}

	spots := make([]float64, n)
	z := make([]float64, n)
	eps := make([][]float64, numDays)
	for d := range eps {
		eps[d] = make([]float64, n)
	}

	sampleCount := s.cfg.SamplePaths
	if sampleCount > numPaths {
		sampleCount = numPaths
	}

	s.log.Infow("starting portfolio simulation",
		"positions", len(simPositions),
		"underlyings", n,
		"paths", numPaths,
		"days", numDays,
		"seed", seed)

	for p := 0; p < numPaths; p++ {
		mirror := s.cfg.Antithetic && p%2 == 1
		if !mirror {
			for d := 0; d < numDays; d++ {
				for i := 0; i < n; i++ {
					eps[d][i] = rng.NormFloat64()
				}
			}
		}

		copy(spots, initialSpots)
		value := valueAt(simPositions, spots, 0, s.cfg.RiskFreeRate)
		dailyValues[0][p] = value

		var samplePath []float64
		if p < sampleCount {
			samplePath = make([]float64, 0, numDays+1)
			samplePath = append(samplePath, value)
		}

		runningMax := value
		maxDD := 0.0
		prev := value

		for d := 1; d <= numDays; d++ {
			correlate(chol, eps[d-1], z, mirror)
			for i := 0; i < n; i++ {
				spots[i] *= math.Exp(drifts[i] + diffusions[i]*z[i])
			}
			value = valueAt(simPositions, spots, d, s.cfg.RiskFreeRate)
			dailyValues[d][p] = value

			if prev != 0 {
				acc.add(value/prev - 1)
			}
			prev = value
			if value > runningMax {
				runningMax = value
			}
			if runningMax > 0 {
				if dd := (runningMax - value) / runningMax; dd > maxDD {
					maxDD = dd
				}
			}
			if samplePath != nil {
				samplePath = append(samplePath, value)
			}
		}

		res.TerminalValues[p] = value
		pathDrawdowns[p] = maxDD
		if samplePath != nil {
			res.SamplePaths = append(res.SamplePaths, samplePath)
		}
	}

	res.DailyMean = make([]float64, numDays+1)
	res.DailyVaR95 = make([]float64, numDays+1)
	scratch := make([]float64, numPaths)
	for d := 0; d <= numDays; d++ {
		res.DailyMean[d] = stat.Mean(dailyValues[d], nil)
		copy(scratch, dailyValues[d])
		sort.Float64s(scratch)
		res.DailyVaR95[d] = ValueAtRisk(res.InitialValue, scratch, 0.95)
	}

	res.Stats = computeStats(res.InitialValue, res.TerminalValues, pathDrawdowns, acc, numDays)

	s.log.Infow("simulation complete",
		"initial_value", res.InitialValue,
		"expected_final", res.Stats.Mean,
		"var_95", res.Stats.VaR95,
		"probability_loss", res.Stats.ProbabilityLoss)

	return res, nil
}

// valueAt reprices the portfolio at the given day offset. Options lose one
// calendar day per step and are worth intrinsic value once expired.
func valueAt(positions []simPosition, spots []float64, day int, rate float64) float64 {
	var total float64
	for i := range positions {
		sp := &positions[i]
		spot := spots[sp.symbolIdx]
		if !sp.isOption {
			total += sp.scale * spot
			continue
		}
		dte := sp.dte - day
		if dte < 0 {
			dte = 0
		}
		t := float64(dte) / 365.0
		total += pricing.Price(sp.isCall, spot, sp.strike, t, rate, 0, sp.vol) * sp.scale
	}
	return total
}

// choleskyFactor validates corr against n assets and returns its lower
// triangular factor, or nil when no correlation is applied.
func choleskyFactor(corr [][]float64, n int) (*mat.TriDense, error) {
	if corr == nil || n < 2 {
		return nil, nil
	}
	if len(corr) != n {
		return nil, errors.Validationf("correlation_matrix", "dimension %d does not match %d underlyings", len(corr), n)
	}
	data := make([]float64, 0, n*n)
	for i, row := range corr {
		if len(row) != n {
			return nil, errors.Validation("correlation_matrix", "matrix is not square")
		}
		for j, v := range row {
			if v < -1 || v > 1 {
				return nil, errors.Validationf("correlation_matrix", "entry [%d][%d]=%.4f outside [-1, 1]", i, j, v)
			}
			if i == j && math.Abs(v-1) > 1e-9 {
				return nil, errors.Validationf("correlation_matrix", "diagonal entry [%d] is %.4f, want 1", i, v)
			}
			data = append(data, v)
		}
	}
	sym := mat.NewSymDense(n, data)
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, errors.Validation("correlation_matrix", "matrix is not positive definite")
	}
	var l mat.TriDense
	chol.LTo(&l)
	return &l, nil
}

// correlate fills z with the correlated (optionally negated) transform of eps.
func correlate(chol *mat.TriDense, eps, z []float64, negate bool) {
	n := len(z)
	if chol == nil {
		for i := 0; i < n; i++ {
			z[i] = eps[i]
		}
	} else {
		for i := 0; i < n; i++ {
			var sum float64
			for j := 0; j <= i; j++ {
				sum += chol.At(i, j) * eps[j]
			}
			z[i] = sum
		}
	}
	if negate {
		for i := 0; i < n; i++ {
			z[i] = -z[i]
		}
	}
}
