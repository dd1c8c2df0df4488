package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/models"
)

func newCalibrator(trust float64) *Calibrator {
	return New(config.PipelineConfig{
		CalibrationTrustFactor: trust,
		ClampBound:             2.0,
		MarginStdDev:           13.5,
		TotalStdDev:            13.0,
	})
}

func TestCalibrateHalvesResidual(t *testing.T) {
	raw := models.ResidualPrediction{
		GameID:         "2023-05-KC@BUF",
		ModelVersion:   "rm-abc",
		ConfigVersion:  "cfg-1",
		MarginResidual: 10.0,
		MarginVariance: 150,
		TotalResidual:  -4.0,
		TotalVariance:  160,
		ModelSignal:    true,
	}
	prior := models.MarketLine{Spread: -3.0, Total: 47.5}

	got := newCalibrator(0.5).Calibrate(raw, prior)

	assert.Equal(t, 5.0, got.MarginResidual)
	assert.Equal(t, -2.0, got.TotalResidual)
	assert.Equal(t, 8.0, got.MarginMean)
	assert.Equal(t, 45.5, got.TotalMean)
	assert.Equal(t, 150.0, got.MarginVariance)
	assert.Equal(t, 10.0, got.RawMargin)
	assert.Equal(t, "rm-abc", got.ModelVersion)
}

func TestCalibrateMarketOnlyUsesConfiguredDispersion(t *testing.T) {
	raw := models.ResidualPrediction{GameID: "g", ModelVersion: models.MarketOnlyVersion}
	got := newCalibrator(0.5).Calibrate(raw, models.MarketLine{Spread: 6.5, Total: 40})

	assert.Equal(t, -6.5, got.MarginMean)
	assert.Equal(t, 40.0, got.TotalMean)
	assert.InDelta(t, 13.5*13.5, got.MarginVariance, 1e-9)
	assert.InDelta(t, 13.0*13.0, got.TotalVariance, 1e-9)
	assert.False(t, got.ModelSignal)
}

func TestCalibrateMonotoneInTrust(t *testing.T) {
	raw := models.ResidualPrediction{MarginResidual: 7.3, TotalResidual: -3.1, MarginVariance: 1, TotalVariance: 1, ModelSignal: true}
	prior := models.MarketLine{Spread: -2.5, Total: 44}

	prev := math.Inf(1)
	for trust := 0.0; trust <= 1.0+1e-9; trust += 0.1 {
		got := newCalibrator(trust).Calibrate(raw, prior)
		dist := math.Abs(got.MarginResidual-raw.MarginResidual) + math.Abs(got.TotalResidual-raw.TotalResidual)
		assert.LessOrEqual(t, dist, prev, "trust %.1f", trust)
		prev = dist
	}
	assert.InDelta(t, 0, prev, 1e-9)
}

func TestCalibrateZeroTrustIsMarketPrior(t *testing.T) {
	raw := models.ResidualPrediction{MarginResidual: 12, TotalResidual: 9, MarginVariance: 100, TotalVariance: 100, ModelSignal: true}
	got := newCalibrator(0).Calibrate(raw, models.MarketLine{Spread: -3, Total: 44})

	assert.Equal(t, 3.0, got.MarginMean)
	assert.Equal(t, 44.0, got.TotalMean)
}

func TestClamp(t *testing.T) {
	baseline := models.LeagueBaseline{
		Teams: 32,
		Mean: map[string]float64{
			models.FeatureOffEPA:         0.0,
			models.FeatureDefEPA:         0.0,
			models.FeatureOffSuccessRate: 0.45,
		},
		StdDev: map[string]float64{
			models.FeatureOffEPA:         0.1,
			models.FeatureDefEPA:         0.1,
			models.FeatureOffSuccessRate: 0.0,
		},
	}
	v := models.TeamFeatureVector{Team: "DET", OffEPA: 0.45, DefEPA: -0.05, OffSuccessRate: 0.9, InjuryImpact: 5}

	got, moved := newCalibrator(1).Clamp(v, baseline)

	require.Equal(t, []string{models.FeatureOffEPA}, moved)
	assert.InDelta(t, 0.2, got.OffEPA, 1e-12)
	assert.Equal(t, -0.05, got.DefEPA)
	assert.Equal(t, 0.9, got.OffSuccessRate, "zero league spread leaves the feature alone")
	assert.Equal(t, 5.0, got.InjuryImpact, "non-efficiency features are never clamped")
	assert.Equal(t, 0.45, v.OffEPA, "input vector is not mutated")
}

func TestClampLowerBound(t *testing.T) {
	baseline := models.LeagueBaseline{
		Mean:   map[string]float64{models.FeaturePointsAgainstAdj: 0},
		StdDev: map[string]float64{models.FeaturePointsAgainstAdj: 3},
	}
	got, moved := newCalibrator(1).Clamp(models.TeamFeatureVector{PointsAgainstAdj: -20}, baseline)

	assert.Equal(t, []string{models.FeaturePointsAgainstAdj}, moved)
	assert.Equal(t, -6.0, got.PointsAgainstAdj)
}
