package models

// SimulationStats are the derived metrics of a terminal-value distribution.
// VaR figures are losses in dollars relative to the initial value, floored
// at zero when the distribution has no loss tail.
type SimulationStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`

	VaR95  float64 `json:"var_95"`
	VaR99  float64 `json:"var_99"`
	CVaR95 float64 `json:"cvar_95"`
	CVaR99 float64 `json:"cvar_99"`

	MaxDrawdown float64 `json:"max_drawdown"`
	AvgDrawdown float64 `json:"avg_drawdown"`

	ProbabilityLoss float64 `json:"probability_loss"`
	ProbabilityGain float64 `json:"probability_gain"`
	ExpectedReturn  float64 `json:"expected_return"`

	Sharpe  float64 `json:"sharpe"`
	Sortino float64 `json:"sortino"`
}

// SimulationResult is the immutable output of one forward simulation.
// TerminalValues has exactly the configured path count; SamplePaths is a
// small subset of full portfolio trajectories kept for display.
type SimulationResult struct {
	InitialValue   float64         `json:"initial_value"`
	NumPaths       int             `json:"num_paths"`
	NumDays        int             `json:"num_days"`
	TerminalValues []float64       `json:"-"`
	Stats          SimulationStats `json:"stats"`

	DailyMean  []float64   `json:"daily_mean"`
	DailyVaR95 []float64   `json:"daily_var_95"`
	SamplePaths [][]float64 `json:"sample_paths,omitempty"`

	// Excluded records positions the simulator could not reprice.
	Excluded []ExcludedPosition `json:"excluded,omitempty"`
}

// StressScenario is a deterministic shock applied to market snapshots:
// a per-symbol or portfolio-wide percentage spot move and an implied-vol
// multiplier. No paths are generated; the portfolio is repriced once.
type StressScenario struct {
	Name          string             `json:"name"`
	SpotShocks    map[string]float64 `json:"spot_shocks,omitempty"` // symbol -> pct move
	AllSpotShock  float64            `json:"all_spot_shock"`
	VolMultiplier float64            `json:"vol_multiplier"` // 0 or 1 means unchanged
}

// StressResult is the repriced portfolio under one scenario.
type StressResult struct {
	Name         string             `json:"name"`
	InitialValue float64            `json:"initial_value"`
	ShockedValue float64            `json:"shocked_value"`
	PnL          float64            `json:"pnl"`
	PnLPercent   float64            `json:"pnl_percent"`
	PositionPnL  map[string]float64 `json:"position_pnl"`
}
