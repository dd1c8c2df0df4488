// Package metrics defines backtesting-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by status",
	}, []string{"status"})
)

// Backtest gauge vectors
var (
	BacktestCLVPositiveRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_clv_positive_rate",
		Help:      "Fraction of backtested bets that beat the closing line",
	}, []string{"model_version"})

	BacktestROI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_roi",
		Help:      "Backtest return on total staked",
	}, []string{"model_version"})
)

// Backtest histograms
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// RecordBacktestRun records a backtest run outcome.
// status should be one of: "success", "failure"
func RecordBacktestRun(status string, durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues(status).Inc()
	BacktestDuration.Observe(durationSeconds)
}

// UpdateBacktestResult publishes the headline backtest figures for a model version.
func UpdateBacktestResult(modelVersion string, clvPositiveRate, roi float64) {
	BacktestCLVPositiveRate.WithLabelValues(modelVersion).Set(clvPositiveRate)
	BacktestROI.WithLabelValues(modelVersion).Set(roi)
}
