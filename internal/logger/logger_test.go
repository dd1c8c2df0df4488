package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/models"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	log := NewLogger("loud")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewLoggerProductionFormatter(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	log := NewLogger("debug")

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestPipelineLoggerGameFailure(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPipelineLogger(log)

	pl.LogGameFailure("2023-05-KC@BUF", models.KindMissingData, errors.New("no prior games"))

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, "2023-05-KC@BUF", entry["game_id"])
	assert.Equal(t, "missing_data", entry["error_kind"])
	assert.Equal(t, "no prior games", entry["reason"])
	assert.Equal(t, "warning", entry["level"])
}

func TestPipelineLoggerRunComplete(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPipelineLogger(log)

	pl.LogRunComplete(2023, 5, 14, 2, 6, 1500*time.Millisecond)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, float64(14), entry["succeeded"])
	assert.Equal(t, float64(2), entry["failed"])
	assert.Equal(t, float64(1500), entry["duration_ms"])
}

func TestPipelineLoggerFeaturesClamped(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPipelineLogger(log)

	pl.LogFeaturesClamped("2023-05-KC@BUF", "KC", nil)
	assert.Zero(t, buf.Len(), "nothing clamped, nothing logged")

	pl.LogFeaturesClamped("2023-05-KC@BUF", "KC", []string{"off_epa"})
	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "KC", entry["team"])
	assert.Equal(t, []interface{}{"off_epa"}, entry["features"])
	assert.Equal(t, "debug", entry["level"])
}

func TestModelLoggerTraining(t *testing.T) {
	log, buf := setupTestLogger()
	ml := NewModelLogger(log)

	ml.LogModelTraining("rm-abc123", 256, 12.5, 11.0, 2*time.Second, map[string]interface{}{"ridge_lambda": 1.0})

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "model", entry["component"])
	assert.Equal(t, "rm-abc123", entry["model_version"])
	assert.Equal(t, float64(256), entry["samples"])
	assert.Equal(t, 2.0, entry["training_duration"])
}

func TestAuditLoggerRecommendation(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewAuditLogger(log)

	rec := &models.BetRecommendation{
		ID:              uuid.New(),
		GameID:          "2023-05-KC@BUF",
		BetType:         models.BetTypeSpread,
		Side:            models.BetSideHome,
		Line:            -3,
		Odds:            -110,
		EdgeProbability: 0.06,
		Tier:            models.TierMedium,
		Stake:           decimal.RequireFromString("12.5"),
		ModelVersion:    "rm-abc123",
		ConfigVersion:   "cfg-000000000000",
	}
	al.LogRecommendation(rec)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "spread", entry["bet_type"])
	assert.Equal(t, "home", entry["side"])
	assert.Equal(t, "MEDIUM", entry["tier"])
	assert.Equal(t, "12.50", entry["stake"])
}

func TestAuditLoggerSuppressed(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewAuditLogger(log)

	al.LogSuppressed("g1", models.BetTypeTotal, models.BetSideOver, "stale_line")

	entry := parseLogOutput(buf)
	require.NotNil(t, entry)
	assert.Equal(t, "stale_line", entry["reason"])
	assert.Equal(t, "Recommendation suppressed", entry["msg"])
}

func TestNilBaseLoggerFallsBack(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPipelineLogger(nil).LogMarketPriorFallback("g1", "model not trained")
	})
}
