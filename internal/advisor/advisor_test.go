package advisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantedge/options-risk-engine/pkg/models"
)

var testNow = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		DeltaNeutralThreshold:  0.10,
		ConcentrationWarning:   0.25,
		ThetaDecayWarning:      0.002,
		VaRWarning:             0.05,
		VegaWarning:            0.02,
		LossProbabilityWarning: 0.60,
		ExpiryWindowDays:       7,
		ProfitTakePct:          0.50,
		StopLossPct:            -0.50,
		ScoreMedium:            40,
		ScoreHigh:              60,
		ScoreCritical:          80,
	}
}

func quietInputs() *Inputs {
	// A balanced five-position book that trips no rule.
	return &Inputs{
		Positions: []*models.Position{
			{Symbol: "ACME", SecType: models.SecTypeStock, Quantity: 4, AvgCost: 50, MarketValue: 200, UnrealizedPnL: 10},
			{Symbol: "BETA", SecType: models.SecTypeStock, Quantity: 4, AvgCost: 50, MarketValue: 200, UnrealizedPnL: 0},
			{Symbol: "CORE", SecType: models.SecTypeStock, Quantity: 4, AvgCost: 50, MarketValue: 200, UnrealizedPnL: -10},
			{Symbol: "DELT", SecType: models.SecTypeStock, Quantity: 4, AvgCost: 50, MarketValue: 200, UnrealizedPnL: 5},
			{Symbol: "EPSI", SecType: models.SecTypeStock, Quantity: 4, AvgCost: 50, MarketValue: 200, UnrealizedPnL: 0},
		},
		Greeks: &models.PortfolioGreeks{
			Delta:        1,
			DeltaDollars: 50,
			ThetaDollars: 0,
			VegaDollars:  0,
		},
		Simulation: &models.SimulationResult{
			InitialValue: 1000,
			NumDays:      21,
			Stats:        models.SimulationStats{ProbabilityLoss: 0.4},
		},
		Account: models.AccountSummary{NetLiquidation: 1000},
		Now:     testNow,
	}
}

func TestDeltaHedgeRecommendation(t *testing.T) {
	a := New(testConfig())
	in := quietInputs()
	// Net delta dollars at 90% of portfolio value against a 10% threshold.
	in.Greeks.Delta = 900
	in.Greeks.DeltaDollars = 900

	recs := a.Recommend(in)
	require.NotEmpty(t, recs)

	found := false
	for _, rec := range recs {
		if rec.Category == "hedge" {
			found = true
			assert.Equal(t, models.PriorityHigh, rec.Priority)
			assert.Contains(t, rec.Message, "delta bias")
		}
	}
	assert.True(t, found, "delta hedge recommendation expected")
}

func TestDeltaHedgePriorityScalesWithRatio(t *testing.T) {
	a := New(testConfig())
	in := quietInputs()
	// Above threshold but below three times it: medium priority.
	in.Greeks.DeltaDollars = 200
	in.Greeks.Delta = 200

	recs := a.Recommend(in)
	var hedge *models.Recommendation
	for i := range recs {
		if recs[i].Category == "hedge" {
			hedge = &recs[i]
		}
	}
	require.NotNil(t, hedge)
	assert.Equal(t, models.PriorityMedium, hedge.Priority)
}

func TestExpiringOptionRecommendation(t *testing.T) {
	a := New(testConfig())
	in := quietInputs()
	expiring := &models.Position{
		Symbol:   "ACME_C50",
		SecType:  models.SecTypeOption,
		Quantity: 1,
		Option: &models.OptionDetails{
			Strike:     50,
			Right:      models.RightCall,
			Expiry:     testNow.AddDate(0, 0, 3),
			Underlying: "ACME",
		},
	}
	in.Positions = append(in.Positions, expiring)

	recs := a.Recommend(in)
	var roll *models.Recommendation
	for i := range recs {
		if recs[i].Category == "roll" {
			roll = &recs[i]
		}
	}
	require.NotNil(t, roll, "expiring option recommendation expected")
	assert.Equal(t, models.PriorityHigh, roll.Priority)
	assert.Contains(t, roll.Message, "ACME_C50")

	// Removing the expiring position removes the recommendation.
	in.Positions = in.Positions[:len(in.Positions)-1]
	for _, rec := range a.Recommend(in) {
		assert.NotEqual(t, "roll", rec.Category)
	}
}

func TestQuietPortfolioNoRecommendations(t *testing.T) {
	a := New(testConfig())
	recs := a.Recommend(quietInputs())
	assert.Empty(t, recs)
}

func TestRecommendationsSortedByPriority(t *testing.T) {
	a := New(testConfig())
	in := quietInputs()
	// Trip several rules at once.
	in.Greeks.Delta = 900
	in.Greeks.DeltaDollars = 900
	in.Greeks.ThetaDollars = -50
	in.Simulation.Stats.ProbabilityLoss = 0.7
	in.Positions[0].UnrealizedPnL = 150

	recs := a.Recommend(in)
	require.GreaterOrEqual(t, len(recs), 3)
	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i-1].Priority.Rank(), recs[i].Priority.Rank())
	}
}

func TestAdvisorDeterminism(t *testing.T) {
	a := New(testConfig())
	in := quietInputs()
	in.Greeks.Delta = 900
	in.Greeks.DeltaDollars = 900
	in.Simulation.Stats.ProbabilityLoss = 0.7
	in.Simulation.Stats.VaR95 = 80

	first := a.BuildReport(in)
	second := a.BuildReport(in)
	assert.Equal(t, first, second)
}

func TestScoreMonotonicInDelta(t *testing.T) {
	a := New(testConfig())

	low := quietInputs()
	mid := quietInputs()
	mid.Greeks.DeltaDollars = 300
	high := quietInputs()
	high.Greeks.DeltaDollars = 600

	assert.LessOrEqual(t, a.Score(low), a.Score(mid))
	assert.LessOrEqual(t, a.Score(mid), a.Score(high))
}

func TestScoreCappedAt100(t *testing.T) {
	a := New(testConfig())
	in := quietInputs()
	in.Greeks.DeltaDollars = 10000
	in.Greeks.VegaDollars = 1000
	in.Greeks.ThetaDollars = -100
	in.Positions = in.Positions[:1]
	in.Simulation.Stats.VaR95 = 500
	in.Simulation.Stats.ProbabilityLoss = 0.9

	assert.LessOrEqual(t, a.Score(in), 100.0)
}

func TestLossProbabilityThresholdConfigured(t *testing.T) {
	in := quietInputs()
	in.Simulation.Stats.ProbabilityLoss = 0.65

	recs := New(testConfig()).Recommend(in)
	var found bool
	for _, rec := range recs {
		if rec.Category == "adjust" {
			found = true
		}
	}
	assert.True(t, found, "0.65 exceeds the default 0.60 trigger")

	// Raising the threshold silences the rule and lowers the score.
	strict := New(testConfig())
	relaxedCfg := testConfig()
	relaxedCfg.LossProbabilityWarning = 0.70
	relaxed := New(relaxedCfg)

	for _, rec := range relaxed.Recommend(in) {
		assert.NotEqual(t, "adjust", rec.Category)
	}
	assert.Greater(t, strict.Score(in), relaxed.Score(in))
}

func TestOptionHeavyPortfolioScoresHigher(t *testing.T) {
	a := New(testConfig())

	stocks := quietInputs()
	heavy := quietInputs()
	// Four of five positions as options: 80% of the book.
	for _, pos := range heavy.Positions[:4] {
		pos.SecType = models.SecTypeOption
		pos.Option = &models.OptionDetails{
			Strike:     50,
			Right:      models.RightCall,
			Expiry:     testNow.AddDate(0, 2, 0),
			Underlying: pos.Symbol,
		}
	}

	assert.Equal(t, a.Score(stocks)+10, a.Score(heavy))
}

func TestLevelBands(t *testing.T) {
	a := New(testConfig())
	assert.Equal(t, models.RiskLow, a.Level(20))
	assert.Equal(t, models.RiskMedium, a.Level(40))
	assert.Equal(t, models.RiskHigh, a.Level(60))
	assert.Equal(t, models.RiskCritical, a.Level(80))
	assert.Equal(t, models.RiskCritical, a.Level(100))
}

func TestBuildReportContract(t *testing.T) {
	a := New(testConfig())
	in := quietInputs()
	in.Simulation.Stats.VaR95 = 30
	in.Simulation.Stats.ExpectedReturn = 0.012

	report := a.BuildReport(in)

	assert.Empty(t, report.ID, "identity is assigned by the caller")
	assert.Equal(t, 1000.0, report.Account.NetLiquidation)
	assert.Equal(t, 50.0, report.Greeks.DeltaDollars)
	assert.Equal(t, 30.0, report.Risk.VaR95)
	assert.Equal(t, 0.012, report.Risk.ExpectedReturn)
	assert.NotNil(t, report.Recommendations, "empty list, never null")
	require.Len(t, report.Positions, 5)
	assert.Equal(t, "ACME", report.Positions[0].Symbol)
	assert.Equal(t, models.SecTypeStock, report.Positions[0].SecType)
}

func TestStopLossAndTakeProfitRules(t *testing.T) {
	a := New(testConfig())
	in := quietInputs()
	// ACME: 4 shares at cost 50 = 200 basis; +130 unrealized (65% gain).
	in.Positions[0].UnrealizedPnL = 130
	// BETA: 200 basis; -110 unrealized (55% loss).
	in.Positions[1].UnrealizedPnL = -110

	recs := a.Recommend(in)

	var categories []string
	for _, rec := range recs {
		categories = append(categories, rec.Category)
	}
	assert.Contains(t, categories, "take_profit")
	assert.Contains(t, categories, "stop_loss")
}

func TestConcentrationRule(t *testing.T) {
	a := New(testConfig())
	in := quietInputs()
	in.Positions[0].MarketValue = 900
	in.Simulation.InitialValue = 0 // fall back to summed market values

	recs := a.Recommend(in)
	var conc *models.Recommendation
	for i := range recs {
		if recs[i].Category == "concentration" {
			conc = &recs[i]
		}
	}
	require.NotNil(t, conc)
	assert.Contains(t, conc.Message, "ACME")
}
