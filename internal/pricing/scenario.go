package pricing

import (
	"fmt"

	"github.com/quantedge/options-risk-engine/pkg/models"
)

// DefaultSpotChanges and DefaultIVChanges are the grid axes used when the
// caller supplies none, expressed in percent.
var (
	DefaultSpotChanges = []float64{-10, -5, -2, 0, 2, 5, 10}
	DefaultIVChanges   = []float64{-20, -10, 0, 10, 20}
)

// ScenarioGrid estimates portfolio P&L over a grid of spot and implied-vol
// moves using the second-order Greek approximation
//
//	pnl ≈ deltaDollars·dS% + ½·gammaDollars·dS%² + vegaDollars·dIV
//
// where gammaDollars is already per 1% move. Keys are formatted as
// "spot_+5%" and "iv_-10%".
func ScenarioGrid(pg *models.PortfolioGreeks, spotChanges, ivChanges []float64) map[string]map[string]float64 {
	if len(spotChanges) == 0 {
		spotChanges = DefaultSpotChanges
	}
	if len(ivChanges) == 0 {
		ivChanges = DefaultIVChanges
	}

	grid := make(map[string]map[string]float64, len(spotChanges))
	for _, spotPct := range spotChanges {
		row := make(map[string]float64, len(ivChanges))
		deltaPnL := pg.DeltaDollars * spotPct / 100
		gammaPnL := 0.5 * pg.GammaDollars * spotPct * spotPct
		for _, ivPct := range ivChanges {
			vegaPnL := pg.VegaDollars * ivPct / 100
			row[fmt.Sprintf("iv_%+.0f%%", ivPct)] = deltaPnL + gammaPnL + vegaPnL
		}
		grid[fmt.Sprintf("spot_%+.0f%%", spotPct)] = row
	}
	return grid
}
