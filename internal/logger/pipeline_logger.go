// Package logger provides pipeline-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for weekly pipeline runs.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: OrDefault(baseLogger).WithField("component", "pipeline"),
	}
}

// LogRunStart logs the start of a weekly run.
func (pl *PipelineLogger) LogRunStart(season, week, games int, modelVersion, configVersion string) {
	pl.WithFields(logrus.Fields{
		"season":         season,
		"week":           week,
		"games":          games,
		"model_version":  modelVersion,
		"config_version": configVersion,
	}).Info("Pipeline run started")
}

// LogRunComplete logs the end of a weekly run.
func (pl *PipelineLogger) LogRunComplete(season, week, succeeded, failed, recommendations int, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"season":          season,
		"week":            week,
		"succeeded":       succeeded,
		"failed":          failed,
		"recommendations": recommendations,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Pipeline run completed")
}

// LogGameFailure logs a game that could not be predicted.
func (pl *PipelineLogger) LogGameFailure(gameID, kind string, err error) {
	pl.WithFields(logrus.Fields{
		"game_id":    gameID,
		"error_kind": kind,
		"reason":     err.Error(),
	}).Warn("Game prediction failed")
}

// LogMarketPriorFallback logs a game predicted from the market prior alone.
func (pl *PipelineLogger) LogMarketPriorFallback(gameID, reason string) {
	pl.WithFields(logrus.Fields{
		"game_id": gameID,
		"reason":  reason,
	}).Info("No model signal, using market prior")
}

// LogSimulationTruncated logs a simulation stopped before its requested sample count.
func (pl *PipelineLogger) LogSimulationTruncated(gameID string, requested, used int) {
	pl.WithFields(logrus.Fields{
		"game_id":   gameID,
		"requested": requested,
		"used":      used,
	}).Warn("Simulation truncated by budget")
}

// LogFeaturesClamped logs the features of one team pulled back to the league bound.
func (pl *PipelineLogger) LogFeaturesClamped(gameID, team string, features []string) {
	if len(features) == 0 {
		return
	}
	pl.WithFields(logrus.Fields{
		"game_id":  gameID,
		"team":     team,
		"features": features,
	}).Debug("Outlier features clamped")
}
