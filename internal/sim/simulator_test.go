package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
)

var testNow = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func newSimulator(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	if cfg.DefaultVolatility == 0 {
		cfg.DefaultVolatility = 0.30
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func stockPortfolio(symbol string, qty, spot, vol float64) ([]*models.Position, map[string]*models.MarketSnapshot) {
	positions := []*models.Position{{
		Symbol:      symbol,
		SecType:     models.SecTypeStock,
		Quantity:    qty,
		Multiplier:  1,
		MarketPrice: spot,
		MarketValue: qty * spot,
	}}
	snaps := map[string]*models.MarketSnapshot{
		symbol: {Symbol: symbol, Spot: spot, ImpliedVol: vol, Timestamp: testNow},
	}
	return positions, snaps
}

func TestConfigValidation(t *testing.T) {
	_, err := New(Config{NumPaths: 0, NumDays: 21, DefaultVolatility: 0.3})
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "num_paths", errors.FieldOf(err))

	_, err = New(Config{NumPaths: 100, NumDays: -1, DefaultVolatility: 0.3})
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "num_days", errors.FieldOf(err))
}

func TestZeroVolatilityDeterministic(t *testing.T) {
	s := newSimulator(t, Config{
		NumPaths:     10000,
		NumDays:      30,
		RiskFreeRate: 0,
		Seed:         1,
	})
	positions, snaps := stockPortfolio("ACME", 100, 50, 0)

	res, err := s.Run(positions, snaps, nil, testNow)
	require.NoError(t, err)

	require.Len(t, res.TerminalValues, 10000)
	for _, v := range res.TerminalValues {
		assert.Equal(t, res.InitialValue, v)
	}
	assert.Zero(t, res.Stats.ProbabilityLoss)
	assert.Zero(t, res.Stats.VaR95)
	assert.Zero(t, res.Stats.MaxDrawdown)
}

func TestRiskNeutralConvergence(t *testing.T) {
	const (
		spot = 100.0
		rate = 0.05
		vol  = 0.25
		days = 21
	)
	s := newSimulator(t, Config{
		NumPaths:     50000,
		NumDays:      days,
		RiskFreeRate: rate,
		Antithetic:   true,
		Seed:         42,
	})
	positions, snaps := stockPortfolio("ACME", 1, spot, vol)

	res, err := s.Run(positions, snaps, nil, testNow)
	require.NoError(t, err)

	horizon := float64(days) / 252.0
	expected := spot * math.Exp(rate*horizon)
	assert.InEpsilon(t, expected, res.Stats.Mean, 0.01)
}

func TestAntitheticDriftExact(t *testing.T) {
	const (
		spot = 100.0
		vol  = 0.25
		days = 10
	)
	s := newSimulator(t, Config{
		NumPaths:     2000,
		NumDays:      days,
		RiskFreeRate: 0,
		Antithetic:   true,
		Seed:         7,
	})
	positions, snaps := stockPortfolio("ACME", 1, spot, vol)

	res, err := s.Run(positions, snaps, nil, testNow)
	require.NoError(t, err)

	// Paired draws cancel exactly, so the mean log return equals the drift.
	var sum float64
	for _, v := range res.TerminalValues {
		sum += math.Log(v / spot)
	}
	drift := -0.5 * vol * vol / 252 * days
	assert.InDelta(t, drift, sum/float64(len(res.TerminalValues)), 1e-9)
}

func TestSeedReproducibility(t *testing.T) {
	cfg := Config{NumPaths: 500, NumDays: 10, RiskFreeRate: 0.05, Seed: 99}
	positions, snaps := stockPortfolio("ACME", 10, 100, 0.3)

	a, err := newSimulator(t, cfg).Run(positions, snaps, nil, testNow)
	require.NoError(t, err)
	b, err := newSimulator(t, cfg).Run(positions, snaps, nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, a.TerminalValues, b.TerminalValues)

	cfg.Seed = 100
	c, err := newSimulator(t, cfg).Run(positions, snaps, nil, testNow)
	require.NoError(t, err)
	assert.NotEqual(t, a.TerminalValues, c.TerminalValues)
}

func TestVaROrdering(t *testing.T) {
	s := newSimulator(t, Config{NumPaths: 20000, NumDays: 21, RiskFreeRate: 0.05, Seed: 3})
	positions, snaps := stockPortfolio("ACME", 100, 100, 0.6)

	res, err := s.Run(positions, snaps, nil, testNow)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Stats.VaR99, res.Stats.VaR95)
	assert.GreaterOrEqual(t, res.Stats.CVaR95, res.Stats.VaR95)
	assert.GreaterOrEqual(t, res.Stats.CVaR99, res.Stats.VaR99)
	assert.Greater(t, res.Stats.VaR95, 0.0, "a volatile long position has loss tail")
	assert.Greater(t, res.Stats.MaxDrawdown, 0.0)
}

func TestOptionRepricingAlongPaths(t *testing.T) {
	s := newSimulator(t, Config{NumPaths: 2000, NumDays: 10, RiskFreeRate: 0.05, Seed: 11})

	positions := []*models.Position{{
		Symbol:      "ACME_C100",
		SecType:     models.SecTypeOption,
		Quantity:    1,
		MarketValue: 500,
		Option: &models.OptionDetails{
			Strike:     100,
			Right:      models.RightCall,
			Expiry:     testNow.AddDate(0, 0, 5),
			Underlying: "ACME",
		},
	}}
	snaps := map[string]*models.MarketSnapshot{
		"ACME": {Symbol: "ACME", Spot: 100, ImpliedVol: 0.3, Timestamp: testNow},
	}

	res, err := s.Run(positions, snaps, nil, testNow)
	require.NoError(t, err)

	// Expiry falls inside the horizon, so terminal values are pure intrinsic,
	// scaled by the default contract multiplier.
	for _, v := range res.TerminalValues {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestCorrelationValidation(t *testing.T) {
	s := newSimulator(t, Config{NumPaths: 100, NumDays: 5, Seed: 1})

	positions, snaps := stockPortfolio("ACME", 10, 100, 0.3)
	p2, s2 := stockPortfolio("BETA", 10, 50, 0.3)
	p3, s3 := stockPortfolio("CETO", 10, 75, 0.3)
	positions = append(positions, p2[0], p3[0])
	snaps["BETA"] = s2["BETA"]
	snaps["CETO"] = s3["CETO"]

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := s.Run(positions, snaps, [][]float64{{1}}, testNow)
		assert.True(t, errors.IsValidation(err))
		assert.Equal(t, "correlation_matrix", errors.FieldOf(err))
	})

	t.Run("entry out of range", func(t *testing.T) {
		corr := [][]float64{{1, 2, 0}, {2, 1, 0}, {0, 0, 1}}
		_, err := s.Run(positions, snaps, corr, testNow)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("not positive definite", func(t *testing.T) {
		// Pairwise correlations that cannot coexist.
		corr := [][]float64{
			{1, 0.9, -0.9},
			{0.9, 1, 0.9},
			{-0.9, 0.9, 1},
		}
		_, err := s.Run(positions, snaps, corr, testNow)
		assert.True(t, errors.IsValidation(err))
		assert.Equal(t, "correlation_matrix", errors.FieldOf(err))
	})

	t.Run("valid matrix accepted", func(t *testing.T) {
		corr := [][]float64{
			{1, 0.5, 0.2},
			{0.5, 1, 0.3},
			{0.2, 0.3, 1},
		}
		res, err := s.Run(positions, snaps, corr, testNow)
		require.NoError(t, err)
		assert.Len(t, res.TerminalValues, 100)
	})
}

func TestMissingSnapshotExcluded(t *testing.T) {
	s := newSimulator(t, Config{NumPaths: 100, NumDays: 5, Seed: 1})

	positions, snaps := stockPortfolio("ACME", 10, 100, 0.3)
	positions = append(positions, &models.Position{
		Symbol:   "GONE",
		SecType:  models.SecTypeStock,
		Quantity: 10,
	})

	res, err := s.Run(positions, snaps, nil, testNow)
	require.NoError(t, err)
	require.Len(t, res.Excluded, 1)
	assert.Equal(t, "GONE", res.Excluded[0].Symbol)
}

func TestOptionWithoutExpiryExcluded(t *testing.T) {
	s := newSimulator(t, Config{NumPaths: 100, NumDays: 5, Seed: 1})

	positions, snaps := stockPortfolio("ACME", 10, 100, 0.3)
	positions = append(positions, &models.Position{
		Symbol:   "ACME_C100",
		SecType:  models.SecTypeOption,
		Quantity: 1,
		Option: &models.OptionDetails{
			Strike:     100,
			Right:      models.RightCall,
			Underlying: "ACME",
		},
	})

	res, err := s.Run(positions, snaps, nil, testNow)
	require.NoError(t, err)
	require.Len(t, res.Excluded, 1)
	assert.Equal(t, "ACME_C100", res.Excluded[0].Symbol)
	assert.Equal(t, "expiry", res.Excluded[0].Field)
	assert.Equal(t, 1000.0, res.InitialValue, "malformed option contributes nothing")
}

func TestEmptyPortfolioRejected(t *testing.T) {
	s := newSimulator(t, Config{NumPaths: 100, NumDays: 5, Seed: 1})
	_, err := s.Run(nil, nil, nil, testNow)
	assert.True(t, errors.IsValidation(err))
}

func TestSamplePathsAndDailySeries(t *testing.T) {
	s := newSimulator(t, Config{NumPaths: 200, NumDays: 15, RiskFreeRate: 0.05, SamplePaths: 5, Seed: 21})
	positions, snaps := stockPortfolio("ACME", 10, 100, 0.3)

	res, err := s.Run(positions, snaps, nil, testNow)
	require.NoError(t, err)

	require.Len(t, res.SamplePaths, 5)
	for _, path := range res.SamplePaths {
		assert.Len(t, path, 16, "day 0 plus 15 steps")
	}
	assert.Len(t, res.DailyMean, 16)
	assert.Len(t, res.DailyVaR95, 16)
	assert.InDelta(t, 1000.0, res.DailyMean[0], 1e-9, "day 0 is the unshocked valuation")
}
