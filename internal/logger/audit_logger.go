// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/models"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: OrDefault(baseLogger).WithField("component", "audit"),
	}
}

// LogRecommendation logs an emitted recommendation.
func (al *AuditLogger) LogRecommendation(rec *models.BetRecommendation) {
	al.WithFields(logrus.Fields{
		"recommendation_id": rec.ID.String(),
		"game_id":           rec.GameID,
		"bet_type":          rec.BetType,
		"side":              rec.Side,
		"line":              rec.Line,
		"odds":              rec.Odds,
		"edge_points":       rec.EdgePoints,
		"edge_probability":  rec.EdgeProbability,
		"tier":              rec.Tier,
		"stake":             rec.Stake.StringFixed(2),
		"model_version":     rec.ModelVersion,
		"config_version":    rec.ConfigVersion,
	}).Info("Recommendation emitted")
}

// LogSuppressed logs a candidate that was withheld and why.
func (al *AuditLogger) LogSuppressed(gameID string, betType models.BetType, side models.BetSide, reason string) {
	al.WithFields(logrus.Fields{
		"game_id":  gameID,
		"bet_type": betType,
		"side":     side,
		"reason":   reason,
	}).Info("Recommendation suppressed")
}

// LogRetentionDecision logs a model version retention decision.
func (al *AuditLogger) LogRetentionDecision(baseline, candidate, decision string, baselineCLV, candidateCLV float64) {
	al.WithFields(logrus.Fields{
		"baseline_version":   baseline,
		"candidate_version":  candidate,
		"decision":           decision,
		"baseline_clv_rate":  baselineCLV,
		"candidate_clv_rate": candidateCLV,
	}).Info("Model retention decision")
}
