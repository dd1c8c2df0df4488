// Package logger provides model-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ModelLogger provides dedicated logging for residual model operations.
type ModelLogger struct {
	*logrus.Entry
}

// NewModelLogger creates a new model logger.
func NewModelLogger(baseLogger *logrus.Logger) *ModelLogger {
	return &ModelLogger{
		Entry: OrDefault(baseLogger).WithField("component", "model"),
	}
}

// LogModelTraining logs model training events.
func (ml *ModelLogger) LogModelTraining(version string, samples int, marginSigma, totalSigma float64, duration time.Duration, hyperparameters map[string]interface{}) {
	ml.WithFields(logrus.Fields{
		"model_version":     version,
		"samples":           samples,
		"margin_sigma":      marginSigma,
		"total_sigma":       totalSigma,
		"training_duration": duration.Seconds(),
		"hyperparameters":   hyperparameters,
	}).Info("Model training completed")
}

// LogModelNotTrained logs inference requested without a trained artifact.
func (ml *ModelLogger) LogModelNotTrained(modelName string) {
	ml.WithField("model_name", modelName).Warn("Model not trained, falling back to market prior")
}

// LogArtifactLoaded logs a model artifact restored from storage.
func (ml *ModelLogger) LogArtifactLoaded(version, source string) {
	ml.WithFields(logrus.Fields{
		"model_version": version,
		"source":        source,
	}).Info("Model artifact loaded")
}
