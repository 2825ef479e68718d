package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quantedge/options-risk-engine/internal/advisor"
	"github.com/quantedge/options-risk-engine/internal/engine"
	"github.com/quantedge/options-risk-engine/internal/pricing"
	"github.com/quantedge/options-risk-engine/internal/sim"
	"github.com/quantedge/options-risk-engine/internal/store"
	"github.com/quantedge/options-risk-engine/internal/ws"
	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	engine    *engine.Engine
	pricer    *pricing.Engine
	simulator *sim.Simulator
	adv       *advisor.Advisor
	reports   *store.ReportStore
	snapshots *store.SnapshotStore
	hub       *ws.Hub
	log       *logger.Logger
}

// CreateHandlers creates new API handlers
func CreateHandlers(
	eng *engine.Engine,
	pricer *pricing.Engine,
	simulator *sim.Simulator,
	adv *advisor.Advisor,
	reports *store.ReportStore,
	snapshots *store.SnapshotStore,
	hub *ws.Hub,
) *Handlers {
	return &Handlers{
		engine:    eng,
		pricer:    pricer,
		simulator: simulator,
		adv:       adv,
		reports:   reports,
		snapshots: snapshots,
		hub:       hub,
		log:       logger.GetLogger("api.handlers"),
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": errors.FieldOf(err)})
	case errors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// HealthCheckHandler handles health check requests
func (h *Handlers) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// AnalyzeHandler runs one full analysis cycle on the posted portfolio.
func (h *Handlers) AnalyzeHandler(c *gin.Context) {
	var input engine.AnalysisInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis input: " + err.Error()})
		return
	}

	result, err := h.engine.Analyze(c.Request.Context(), &input)
	if err != nil {
		h.log.Errorw("analysis request failed", "error", err)
		writeError(c, err)
		return
	}

	h.reports.Set(result.Report)
	for _, snap := range input.Snapshots {
		h.snapshots.Put(snap)
	}
	if h.hub != nil {
		h.hub.BroadcastReport(result.Report)
	}

	c.JSON(http.StatusOK, result)
}

// LatestReportHandler returns the most recent report.
func (h *Handlers) LatestReportHandler(c *gin.Context) {
	report, err := h.reports.Latest()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type priceRequest struct {
	Right         string  `json:"right" binding:"required"`
	Spot          float64 `json:"spot" binding:"required"`
	Strike        float64 `json:"strike" binding:"required"`
	DaysToExpiry  int     `json:"days_to_expiry"`
	Rate          float64 `json:"rate"`
	DividendYield float64 `json:"dividend_yield"`
	Volatility    float64 `json:"volatility"`
}

func (r *priceRequest) isCall() bool { return r.Right == "C" }

func (r *priceRequest) validate() error {
	if r.Right != "C" && r.Right != "P" {
		return errors.Validationf("right", "must be C or P, got %q", r.Right)
	}
	if r.Spot <= 0 {
		return errors.Validation("spot", "must be positive")
	}
	if r.Strike <= 0 {
		return errors.Validation("strike", "must be positive")
	}
	return nil
}

// PriceHandler returns the theoretical price of one option contract.
func (h *Handlers) PriceHandler(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		writeError(c, err)
		return
	}

	t := float64(req.DaysToExpiry) / 365.0
	price := pricing.Price(req.isCall(), req.Spot, req.Strike, t, req.Rate, req.DividendYield, req.Volatility)
	c.JSON(http.StatusOK, gin.H{"price": price})
}

// GreeksHandler returns per-unit Greeks for one option contract.
func (h *Handlers) GreeksHandler(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		writeError(c, err)
		return
	}

	t := float64(req.DaysToExpiry) / 365.0
	isCall := req.isCall()
	c.JSON(http.StatusOK, gin.H{
		"price": pricing.Price(isCall, req.Spot, req.Strike, t, req.Rate, req.DividendYield, req.Volatility),
		"delta": pricing.Delta(isCall, req.Spot, req.Strike, t, req.Rate, req.DividendYield, req.Volatility),
		"gamma": pricing.Gamma(req.Spot, req.Strike, t, req.Rate, req.DividendYield, req.Volatility),
		"theta": pricing.Theta(isCall, req.Spot, req.Strike, t, req.Rate, req.DividendYield, req.Volatility),
		"vega":  pricing.Vega(req.Spot, req.Strike, t, req.Rate, req.DividendYield, req.Volatility),
		"rho":   pricing.Rho(isCall, req.Spot, req.Strike, t, req.Rate, req.DividendYield, req.Volatility),
	})
}

type impliedVolRequest struct {
	priceRequest
	Price float64 `json:"price" binding:"required"`
}

// ImpliedVolHandler solves for the volatility matching a market price.
func (h *Handlers) ImpliedVolHandler(c *gin.Context) {
	var req impliedVolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		writeError(c, err)
		return
	}

	t := float64(req.DaysToExpiry) / 365.0
	iv, ok := pricing.ImpliedVolatility(req.isCall(), req.Price, req.Spot, req.Strike, t, req.Rate, req.DividendYield)
	if !ok {
		writeError(c, errors.Validation("price", "no implied volatility reproduces this price"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"implied_volatility": iv})
}

type simulateRequest struct {
	Positions   []*models.Position                `json:"positions"`
	Snapshots   map[string]*models.MarketSnapshot `json:"snapshots"`
	Correlation [][]float64                       `json:"correlation,omitempty"`
}

// SimulateHandler runs a standalone Monte Carlo simulation.
func (h *Handlers) SimulateHandler(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.simulator.Run(req.Positions, req.Snapshots, req.Correlation, time.Now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type stressRequest struct {
	Positions []*models.Position                `json:"positions"`
	Snapshots map[string]*models.MarketSnapshot `json:"snapshots"`
	Scenarios []models.StressScenario           `json:"scenarios,omitempty"`
}

// StressHandler reprices the portfolio under deterministic shock scenarios.
func (h *Handlers) StressHandler(c *gin.Context) {
	var req stressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.simulator.StressTest(req.Positions, req.Snapshots, req.Scenarios, time.Now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": results})
}

type scenarioGridRequest struct {
	Positions   []*models.Position                `json:"positions"`
	Snapshots   map[string]*models.MarketSnapshot `json:"snapshots"`
	SpotChanges []float64                         `json:"spot_changes,omitempty"`
	IVChanges   []float64                         `json:"iv_changes,omitempty"`
}

// ScenarioGridHandler estimates P&L over a spot/vol grid from the Greeks.
func (h *Handlers) ScenarioGridHandler(c *gin.Context) {
	var req scenarioGridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Positions) == 0 {
		writeError(c, errors.Validation("positions", "empty portfolio"))
		return
	}

	pg := h.pricer.PortfolioGreeks(req.Positions, req.Snapshots, time.Now().UTC())
	grid := pricing.ScenarioGrid(pg, req.SpotChanges, req.IVChanges)
	c.JSON(http.StatusOK, gin.H{"grid": grid, "greeks": pg})
}

// SnapshotHandler returns the latest stored snapshot for a symbol.
func (h *Handlers) SnapshotHandler(c *gin.Context) {
	symbol := c.Param("symbol")
	snap, err := h.snapshots.Get(symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
