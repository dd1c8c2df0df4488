// Package metrics defines recommendation-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation counter vectors
var (
	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Total number of emitted recommendations by bet type and tier",
	}, []string{"bet_type", "tier"})

	RecommendationsSuppressedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_suppressed_total",
		Help:      "Total number of candidate bets withheld by reason",
	}, []string{"reason"})
)

// Recommendation histogram vectors
var (
	RecommendedStake = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommended_stake",
		Help:      "Recommended stake sizes in currency units",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"bet_type"})
)

// RecordRecommendation records an emitted recommendation.
func RecordRecommendation(betType, tier string, stake float64) {
	RecommendationsTotal.WithLabelValues(betType, tier).Inc()
	RecommendedStake.WithLabelValues(betType).Observe(stake)
}

// RecordSuppressed records a withheld candidate.
func RecordSuppressed(reason string) {
	RecommendationsSuppressedTotal.WithLabelValues(reason).Inc()
}
