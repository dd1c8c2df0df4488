// Package metrics provides centralized Prometheus metrics registry for the prediction pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gridline"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	GamesProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_processed_total",
		Help:      "Total number of games processed by status",
	}, []string{"status"})
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Total number of weekly pipeline runs by trigger and status",
	}, []string{"trigger", "status"})
	RowsIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_ingested_total",
		Help:      "Total number of input table rows loaded by table",
	}, []string{"table"})
)

// Gauge metrics
var (
	FeatureCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feature_cache_hit_ratio",
		Help:      "Hit ratio of the feature vector cache",
	})
)

// Histogram metrics
var (
	SimulationSamples = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "simulation_samples",
		Help:      "Samples actually drawn per game simulation",
		Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 50000},
	})
	PipelineRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_run_duration_seconds",
		Help:      "Duration of weekly pipeline runs in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ModelTrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "model_training_duration_seconds",
		Help:      "Duration of residual model training in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(GamesProcessedTotal)
		registry.MustRegister(PipelineRunsTotal)
		registry.MustRegister(RowsIngestedTotal)
		registry.MustRegister(FeatureCacheHitRatio)
		registry.MustRegister(SimulationSamples)
		registry.MustRegister(PipelineRunDuration)
		registry.MustRegister(ModelTrainingDuration)

		// Recommendation metrics
		registry.MustRegister(RecommendationsTotal)
		registry.MustRegister(RecommendationsSuppressedTotal)
		registry.MustRegister(RecommendedStake)

		// Backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestCLVPositiveRate)
		registry.MustRegister(BacktestROI)
		registry.MustRegister(BacktestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordGameProcessed records one game's pipeline status.
func RecordGameProcessed(status string) {
	GamesProcessedTotal.WithLabelValues(status).Inc()
}

// RecordPipelineRun records a weekly pipeline run and its duration.
func RecordPipelineRun(trigger, status string, durationSeconds float64) {
	PipelineRunsTotal.WithLabelValues(trigger, status).Inc()
	PipelineRunDuration.Observe(durationSeconds)
}

// RecordRowsIngested records rows loaded from one input table.
func RecordRowsIngested(table string, rows int) {
	RowsIngestedTotal.WithLabelValues(table).Add(float64(rows))
}

// RecordSimulationSamples records the sample count used by one simulation.
func RecordSimulationSamples(samples int) {
	SimulationSamples.Observe(float64(samples))
}

// RecordModelTraining records residual model training duration.
func RecordModelTraining(durationSeconds float64) {
	ModelTrainingDuration.Observe(durationSeconds)
}

// UpdateFeatureCacheHitRatio updates the feature cache hit ratio gauge.
func UpdateFeatureCacheHitRatio(ratio float64) {
	FeatureCacheHitRatio.Set(ratio)
}
