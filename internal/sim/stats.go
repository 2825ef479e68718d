package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/quantedge/options-risk-engine/pkg/models"
)

// ValueAtRisk returns the loss at the given confidence relative to initial,
// floored at zero. confidence is e.g. 0.95 for the 5th percentile threshold.
func ValueAtRisk(initial float64, sortedValues []float64, confidence float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	q := stat.Quantile(1-confidence, stat.Empirical, sortedValues, nil)
	return math.Max(0, initial-q)
}

// conditionalVaR is the mean loss beyond the VaR threshold, floored at zero.
func conditionalVaR(initial float64, sortedValues []float64, confidence float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	threshold := stat.Quantile(1-confidence, stat.Empirical, sortedValues, nil)
	var sum float64
	var n int
	for _, v := range sortedValues {
		if v > threshold {
			break
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Max(0, initial-sum/float64(n))
}

// returnAccumulator collects daily portfolio returns across every path to
// derive the annualized Sharpe and Sortino ratios.
type returnAccumulator struct {
	sum, sumSq float64
	n          int

	downSum, downSumSq float64
	downN              int
}

func (a *returnAccumulator) add(r float64) {
	a.sum += r
	a.sumSq += r * r
	a.n++
	if r < 0 {
		a.downSum += r
		a.downSumSq += r * r
		a.downN++
	}
}

func (a *returnAccumulator) ratios(numDays int) (sharpe, sortino float64) {
	if a.n == 0 || numDays <= 0 {
		return 0, 0
	}
	mean := a.sum / float64(a.n)
	variance := a.sumSq/float64(a.n) - mean*mean
	annualize := math.Sqrt(252 / float64(numDays))

	if variance > 0 {
		sharpe = mean / math.Sqrt(variance) * annualize
	}
	if a.downN > 0 {
		downMean := a.downSum / float64(a.downN)
		downVar := a.downSumSq/float64(a.downN) - downMean*downMean
		if downVar > 0 {
			sortino = mean / math.Sqrt(downVar) * annualize
		}
	}
	return sharpe, sortino
}

// computeStats derives the full statistics block from terminal values and the
// per-path max drawdowns collected during simulation. terminalValues is not
// modified.
func computeStats(initial float64, terminalValues, pathDrawdowns []float64, acc *returnAccumulator, numDays int) models.SimulationStats {
	var s models.SimulationStats
	if len(terminalValues) == 0 {
		return s
	}

	sorted := make([]float64, len(terminalValues))
	copy(sorted, terminalValues)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	s.Std = stat.PopStdDev(sorted, nil)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]

	s.VaR95 = ValueAtRisk(initial, sorted, 0.95)
	s.VaR99 = ValueAtRisk(initial, sorted, 0.99)
	s.CVaR95 = conditionalVaR(initial, sorted, 0.95)
	s.CVaR99 = conditionalVaR(initial, sorted, 0.99)

	if len(pathDrawdowns) > 0 {
		s.AvgDrawdown = stat.Mean(pathDrawdowns, nil)
		for _, dd := range pathDrawdowns {
			if dd > s.MaxDrawdown {
				s.MaxDrawdown = dd
			}
		}
	}

	var losses, gains int
	for _, v := range terminalValues {
		switch {
		case v < initial:
			losses++
		case v > initial:
			gains++
		}
	}
	n := float64(len(terminalValues))
	s.ProbabilityLoss = float64(losses) / n
	s.ProbabilityGain = float64(gains) / n

	if initial > 0 {
		s.ExpectedReturn = (s.Mean - initial) / initial
	}

	s.Sharpe, s.Sortino = acc.ratios(numDays)
	return s
}
