// Package metrics exposes Prometheus instrumentation for the risk engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder handles metrics recording and exposure
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Analysis cycle metrics
	cycleCounter   *prometheus.CounterVec
	cycleLatency   prometheus.Histogram
	riskScoreGauge prometheus.Gauge
	varGauge       *prometheus.GaugeVec

	// Recommendation metrics
	recommendationCounter *prometheus.CounterVec

	// Simulation metrics
	simulatedPathsCounter prometheus.Counter
	excludedGauge         prometheus.Gauge
}

// NewRecorder creates a new metrics recorder
func NewRecorder() *Recorder {
	return &Recorder{
		apiRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risk_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"method", "path"},
		),
		cycleCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_analysis_cycles_total",
				Help: "Completed analysis cycles by outcome",
			},
			[]string{"status"},
		),
		cycleLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "risk_analysis_cycle_seconds",
				Help:    "End-to-end analysis cycle latency",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		riskScoreGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_portfolio_score",
				Help: "Latest portfolio risk score (0-100)",
			},
		),
		varGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "risk_value_at_risk_dollars",
				Help: "Latest value at risk by confidence level",
			},
			[]string{"confidence"},
		),
		recommendationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_recommendations_total",
				Help: "Recommendations emitted by priority",
			},
			[]string{"priority"},
		),
		simulatedPathsCounter: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "risk_simulated_paths_total",
				Help: "Total Monte Carlo paths generated",
			},
		),
		excludedGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "risk_excluded_positions",
				Help: "Positions excluded from the latest cycle",
			},
		),
	}
}

// RecordAPIRequest records an API request with its latency
func (r *Recorder) RecordAPIRequest(method, path, status string, duration time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, status).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCycle records one completed analysis cycle
func (r *Recorder) RecordCycle(status string, duration time.Duration) {
	r.cycleCounter.WithLabelValues(status).Inc()
	r.cycleLatency.Observe(duration.Seconds())
}

// RecordRiskScore updates the latest risk score gauge
func (r *Recorder) RecordRiskScore(score float64) {
	r.riskScoreGauge.Set(score)
}

// RecordVaR updates the VaR gauges
func (r *Recorder) RecordVaR(var95, var99 float64) {
	r.varGauge.WithLabelValues("95").Set(var95)
	r.varGauge.WithLabelValues("99").Set(var99)
}

// RecordRecommendation counts an emitted recommendation
func (r *Recorder) RecordRecommendation(priority string) {
	r.recommendationCounter.WithLabelValues(priority).Inc()
}

// RecordSimulatedPaths counts generated Monte Carlo paths
func (r *Recorder) RecordSimulatedPaths(n int) {
	r.simulatedPathsCounter.Add(float64(n))
}

// RecordExcludedPositions updates the excluded position gauge
func (r *Recorder) RecordExcludedPositions(n int) {
	r.excludedGauge.Set(float64(n))
}
