// Package simulation draws Monte-Carlo game outcomes from calibrated predictions.
package simulation

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
)

// batchSize is the number of samples drawn between budget and cancellation checks.
const batchSize = 256

// Options controls one simulation run
type Options struct {
	Samples    int
	Seed       int64
	TimeBudget time.Duration
}

// OptionsFromConfig reads the simulation options from the pipeline configuration.
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		Samples:    cfg.SimulationSampleCount,
		Seed:       cfg.Seed,
		TimeBudget: cfg.SimulationTimeBudget,
	}
}

// Simulator draws independent normal margin and total samples per game.
type Simulator struct {
	log *logger.PipelineLogger
	now func() time.Time
}

// New creates a simulator.
func New(log *logrus.Logger) *Simulator {
	return &Simulator{
		log: logger.NewPipelineLogger(log),
		now: time.Now,
	}
}

// Run simulates pred. A positive seed makes the draw reproducible; zero seeds
// from the clock. The time budget and ctx stop sampling early between batches,
// in which case the outcome is marked truncated with the samples actually drawn.
func (s *Simulator) Run(ctx context.Context, pred models.CalibratedPrediction, opts Options) (*Outcome, error) {
	if opts.Samples <= 0 {
		return nil, &models.InvalidSampleSizeError{Requested: opts.Samples}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	marginSD := math.Sqrt(math.Max(pred.MarginVariance, 0))
	totalSD := math.Sqrt(math.Max(pred.TotalVariance, 0))

	out := &Outcome{
		GameID:     pred.GameID,
		Requested:  opts.Samples,
		Seed:       seed,
		HomeScores: make([]int, 0, opts.Samples),
		AwayScores: make([]int, 0, opts.Samples),
	}

	start := s.now()
	for drawn := 0; drawn < opts.Samples; {
		if drawn > 0 {
			if ctx.Err() != nil {
				break
			}
			if opts.TimeBudget > 0 && s.now().Sub(start) >= opts.TimeBudget {
				break
			}
		}
		end := drawn + batchSize
		if end > opts.Samples {
			end = opts.Samples
		}
		for ; drawn < end; drawn++ {
			margin := pred.MarginMean + marginSD*rng.NormFloat64()
			total := pred.TotalMean + totalSD*rng.NormFloat64()
			out.HomeScores = append(out.HomeScores, toScore((total+margin)/2))
			out.AwayScores = append(out.AwayScores, toScore((total-margin)/2))
		}
	}

	out.Samples = len(out.HomeScores)
	out.Truncated = out.Samples < opts.Samples
	if out.Truncated {
		s.log.LogSimulationTruncated(pred.GameID, opts.Samples, out.Samples)
	}
	metrics.RecordSimulationSamples(out.Samples)
	return out, nil
}

func toScore(points float64) int {
	score := int(math.Round(points))
	if score < 0 {
		return 0
	}
	return score
}
