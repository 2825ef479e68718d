// Package engine orchestrates one full analysis cycle: Greeks aggregation
// and Monte Carlo simulation run concurrently, then the advisor joins their
// outputs into a report.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quantedge/options-risk-engine/internal/advisor"
	"github.com/quantedge/options-risk-engine/internal/pricing"
	"github.com/quantedge/options-risk-engine/internal/sim"
	"github.com/quantedge/options-risk-engine/pkg/metrics"
	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

// AnalysisInput is one cycle's worth of portfolio state.
type AnalysisInput struct {
	Positions   []*models.Position                `json:"positions"`
	Snapshots   map[string]*models.MarketSnapshot `json:"snapshots"`
	Account     models.AccountSummary             `json:"account"`
	Correlation [][]float64                       `json:"correlation,omitempty"`
}

// AnalysisResult bundles everything one cycle produced.
type AnalysisResult struct {
	Report     *models.RiskReport       `json:"report"`
	Greeks     *models.PortfolioGreeks  `json:"greeks"`
	Simulation *models.SimulationResult `json:"simulation"`
}

// Engine wires the pricing engine, simulator and advisor together.
type Engine struct {
	pricer    *pricing.Engine
	simulator *sim.Simulator
	adv       *advisor.Advisor
	recorder  *metrics.Recorder
	log       *logger.Logger
}

// New creates an analysis engine. recorder may be nil to disable metrics.
func New(pricer *pricing.Engine, simulator *sim.Simulator, adv *advisor.Advisor, recorder *metrics.Recorder) *Engine {
	return &Engine{
		pricer:    pricer,
		simulator: simulator,
		adv:       adv,
		recorder:  recorder,
		log:       logger.GetLogger("engine"),
	}
}

// Analyze runs one full cycle. Greeks and simulation execute concurrently;
// either failing aborts the cycle.
func (e *Engine) Analyze(ctx context.Context, input *AnalysisInput) (*AnalysisResult, error) {
	if len(input.Positions) == 0 {
		return nil, errors.Validation("positions", "empty portfolio")
	}
	start := time.Now()
	now := start.UTC()

	var (
		greeks *models.PortfolioGreeks
		simRes *models.SimulationResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		greeks = e.pricer.PortfolioGreeks(input.Positions, input.Snapshots, now)
		return nil
	})
	g.Go(func() error {
		var err error
		simRes, err = e.simulator.Run(input.Positions, input.Snapshots, input.Correlation, now)
		return err
	})
	if err := g.Wait(); err != nil {
		e.recordCycle("error", start, nil, nil)
		return nil, errors.Wrap(err, "analysis cycle failed")
	}
	if err := ctx.Err(); err != nil {
		e.recordCycle("canceled", start, nil, nil)
		return nil, err
	}

	report := e.adv.BuildReport(&advisor.Inputs{
		Positions:  input.Positions,
		Greeks:     greeks,
		Simulation: simRes,
		Account:    input.Account,
		Now:        now,
	})
	report.ID = uuid.NewString()
	report.GeneratedAt = now

	e.recordCycle("success", start, report, simRes)
	e.log.Infow("analysis cycle complete",
		"report_id", report.ID,
		"positions", len(input.Positions),
		"score", report.Risk.Score,
		"level", report.Risk.Level,
		"elapsed", time.Since(start))

	return &AnalysisResult{Report: report, Greeks: greeks, Simulation: simRes}, nil
}

func (e *Engine) recordCycle(status string, start time.Time, report *models.RiskReport, simRes *models.SimulationResult) {
	if e.recorder == nil {
		return
	}
	e.recorder.RecordCycle(status, time.Since(start))
	if report != nil {
		e.recorder.RecordRiskScore(report.Risk.Score)
		for _, rec := range report.Recommendations {
			e.recorder.RecordRecommendation(string(rec.Priority))
		}
	}
	if simRes != nil {
		e.recorder.RecordVaR(simRes.Stats.VaR95, simRes.Stats.VaR99)
		e.recorder.RecordSimulatedPaths(simRes.NumPaths)
		e.recorder.RecordExcludedPositions(len(simRes.Excluded))
	}
}
