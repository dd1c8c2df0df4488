package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/models"
)

// Predictor produces residual predictions from a loaded artifact.
type Predictor struct {
	artifact      *Artifact
	modelName     string
	configVersion string
	log           *logger.ModelLogger
	now           func() time.Time
}

// NewPredictor wraps artifact, which may be nil when no model has been trained yet.
func NewPredictor(artifact *Artifact, modelName, configVersion string, log *logrus.Logger) *Predictor {
	return &Predictor{
		artifact:      artifact,
		modelName:     modelName,
		configVersion: configVersion,
		log:           logger.NewModelLogger(log),
		now:           time.Now,
	}
}

// Trained reports whether an artifact is loaded.
func (p *Predictor) Trained() bool {
	return p.artifact != nil
}

// Version returns the loaded model version, or the market-only tag.
func (p *Predictor) Version() string {
	if p.artifact == nil {
		return models.MarketOnlyVersion
	}
	return p.artifact.Version
}

// Artifact returns the loaded artifact, if any.
func (p *Predictor) Artifact() *Artifact {
	return p.artifact
}

// Predict returns the residual prediction for one sample.
func (p *Predictor) Predict(s Sample) (models.ResidualPrediction, error) {
	if p.artifact == nil {
		p.log.LogModelNotTrained(p.modelName)
		return models.ResidualPrediction{}, &models.ModelNotTrainedError{Model: p.modelName}
	}

	z, err := p.artifact.standardize(s.Inputs)
	if err != nil {
		return models.ResidualPrediction{}, err
	}

	return models.ResidualPrediction{
		ID:             uuid.New(),
		GameID:         s.GameID,
		ModelVersion:   p.artifact.Version,
		ConfigVersion:  p.configVersion,
		MarginResidual: p.artifact.Margin.predict(z),
		MarginVariance: p.artifact.Margin.Sigma * p.artifact.Margin.Sigma,
		TotalResidual:  p.artifact.Total.predict(z),
		TotalVariance:  p.artifact.Total.Sigma * p.artifact.Total.Sigma,
		PriorSpread:    s.PriorSpread,
		PriorTotal:     s.PriorTotal,
		ModelSignal:    true,
		PredictedAt:    p.now().UTC(),
	}, nil
}

// MarketOnly returns a zero-residual prediction anchored on the market prior.
// Variances are left zero for the calibrator to fill from configured dispersion.
func MarketOnly(s Sample, configVersion string) models.ResidualPrediction {
	return models.ResidualPrediction{
		ID:            uuid.New(),
		GameID:        s.GameID,
		ModelVersion:  models.MarketOnlyVersion,
		ConfigVersion: configVersion,
		PriorSpread:   s.PriorSpread,
		PriorTotal:    s.PriorTotal,
		ModelSignal:   false,
		PredictedAt:   time.Now().UTC(),
	}
}
