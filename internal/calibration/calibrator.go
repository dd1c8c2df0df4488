// Package calibration turns raw residual predictions into trusted predictive
// distributions and keeps outlier team efficiencies inside league bounds.
package calibration

import (
	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/models"
)

// Calibrator applies a single trust factor and a single clamp bound to every team alike.
type Calibrator struct {
	trustFactor  float64
	clampBound   float64
	marginStdDev float64
	totalStdDev  float64
}

// New creates a calibrator from the pipeline configuration.
func New(cfg config.PipelineConfig) *Calibrator {
	return &Calibrator{
		trustFactor:  cfg.CalibrationTrustFactor,
		clampBound:   cfg.ClampBound,
		marginStdDev: cfg.MarginStdDev,
		totalStdDev:  cfg.TotalStdDev,
	}
}

// TrustFactor returns the configured residual multiplier.
func (c *Calibrator) TrustFactor() float64 {
	return c.trustFactor
}

// Calibrate scales the raw residuals by the trust factor and anchors them on the prior.
// Predictions without model signal use the configured historical dispersion.
func (c *Calibrator) Calibrate(raw models.ResidualPrediction, prior models.MarketLine) models.CalibratedPrediction {
	out := models.CalibratedPrediction{
		GameID:         raw.GameID,
		ModelVersion:   raw.ModelVersion,
		ConfigVersion:  raw.ConfigVersion,
		RawMargin:      raw.MarginResidual,
		RawTotal:       raw.TotalResidual,
		MarginResidual: raw.MarginResidual * c.trustFactor,
		TotalResidual:  raw.TotalResidual * c.trustFactor,
		MarginVariance: raw.MarginVariance,
		TotalVariance:  raw.TotalVariance,
		TrustFactor:    c.trustFactor,
		ModelSignal:    raw.ModelSignal,
	}
	out.MarginMean = prior.ImpliedHomeMargin() + out.MarginResidual
	out.TotalMean = prior.Total + out.TotalResidual

	if !raw.ModelSignal || out.MarginVariance <= 0 {
		out.MarginVariance = c.marginStdDev * c.marginStdDev
	}
	if !raw.ModelSignal || out.TotalVariance <= 0 {
		out.TotalVariance = c.totalStdDev * c.totalStdDev
	}
	return out
}

// Clamp pulls every efficiency feature farther than clampBound league standard
// deviations from the league mean back to the bound. It returns the adjusted
// vector and the names of the features that moved.
func (c *Calibrator) Clamp(v models.TeamFeatureVector, baseline models.LeagueBaseline) (models.TeamFeatureVector, []string) {
	var clamped []string
	for _, name := range models.EfficiencyFeatureNames {
		std := baseline.StdDev[name]
		if std <= 0 {
			continue
		}
		mean := baseline.Mean[name]
		lo, hi := mean-c.clampBound*std, mean+c.clampBound*std

		field := v.Efficiency(name)
		switch {
		case *field > hi:
			*field = hi
		case *field < lo:
			*field = lo
		default:
			continue
		}
		clamped = append(clamped, name)
	}
	return v, clamped
}
