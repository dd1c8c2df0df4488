package model

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/metrics"
)

// minRidge keeps the normal equations solvable when ridge_lambda is zero.
const minRidge = 1e-8

// Trainer fits residual models with L2-regularized least squares.
type Trainer struct {
	cfg           config.ModelConfig
	configVersion string
	log           *logger.ModelLogger
	now           func() time.Time
}

// NewTrainer creates a trainer stamping artifacts with configVersion.
func NewTrainer(cfg config.ModelConfig, configVersion string, log *logrus.Logger) *Trainer {
	return &Trainer{
		cfg:           cfg,
		configVersion: configVersion,
		log:           logger.NewModelLogger(log),
		now:           time.Now,
	}
}

// Train fits both targets on the labeled samples. Samples without targets are ignored.
// Training is a single sequential pass; callers provide only games before their cutoff.
func (t *Trainer) Train(samples []Sample) (*Artifact, error) {
	start := time.Now()

	labeled := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.HasTargets {
			labeled = append(labeled, s)
		}
	}
	if len(labeled) == 0 || len(labeled) < t.cfg.MinTrainingSamples {
		return nil, fmt.Errorf("insufficient training samples: have %d, need %d", len(labeled), t.cfg.MinTrainingSamples)
	}

	names := InputNames()
	p := len(names)
	for _, s := range labeled {
		if len(s.Inputs) != p {
			return nil, fmt.Errorf("sample %s has %d inputs, expected %d", s.GameID, len(s.Inputs), p)
		}
	}

	z, means, scales := standardize(labeled, p)
	margins := make([]float64, len(labeled))
	totals := make([]float64, len(labeled))
	for i, s := range labeled {
		margins[i] = s.MarginTarget
		totals[i] = s.TotalTarget
	}

	gram := ridgeGram(z, math.Max(t.cfg.RidgeLambda, minRidge))

	marginFit, err := fitTarget(z, margins, gram)
	if err != nil {
		return nil, fmt.Errorf("failed to fit margin residual: %w", err)
	}
	totalFit, err := fitTarget(z, totals, gram)
	if err != nil {
		return nil, fmt.Errorf("failed to fit total residual: %w", err)
	}

	a := &Artifact{
		ModelName:      t.cfg.Name,
		ConfigVersion:  t.configVersion,
		InputNames:     names,
		Means:          means,
		Scales:         scales,
		Margin:         marginFit,
		Total:          totalFit,
		RidgeLambda:    t.cfg.RidgeLambda,
		Samples:        len(labeled),
		TrainedFrom:    labeled[0].SeasonWeek,
		TrainedThrough: labeled[0].SeasonWeek,
		TrainedAt:      t.now().UTC(),
	}
	for _, s := range labeled {
		if s.SeasonWeek.Before(a.TrainedFrom) {
			a.TrainedFrom = s.SeasonWeek
		}
		if a.TrainedThrough.Before(s.SeasonWeek) {
			a.TrainedThrough = s.SeasonWeek
		}
	}
	a.Version = a.computeVersion()

	elapsed := time.Since(start)
	metrics.RecordModelTraining(elapsed.Seconds())
	t.log.LogModelTraining(a.Version, a.Samples, a.Margin.Sigma, a.Total.Sigma, elapsed, map[string]interface{}{
		"ridge_lambda": t.cfg.RidgeLambda,
		"inputs":       p,
	})
	return a, nil
}

// fitTarget solves the ridge system for one target. Inputs are centered, so
// the unpenalized intercept is the target mean.
func fitTarget(z *mat.Dense, y []float64, gram *mat.SymDense) (TargetFit, error) {
	n := len(y)
	mean := stat.Mean(y, nil)

	centered := mat.NewVecDense(n, nil)
	for i, v := range y {
		centered.SetVec(i, v-mean)
	}
	var rhs mat.VecDense
	rhs.MulVec(z.T(), centered)

	coef, err := solveCholesky(gram, &rhs)
	if err != nil {
		return TargetFit{}, err
	}
	fit := TargetFit{Intercept: mean, Coefficients: coef}

	var ssr float64
	for i := 0; i < n; i++ {
		r := y[i] - fit.predict(z.RawRowView(i))
		ssr += r * r
	}
	dof := n - 1
	if dof < 1 {
		dof = 1
	}
	fit.Sigma = math.Sqrt(ssr / float64(dof))
	return fit, nil
}
