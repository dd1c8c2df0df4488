package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/models"
)

func prediction(marginMean, marginVar, totalMean, totalVar float64) models.CalibratedPrediction {
	return models.CalibratedPrediction{
		GameID:         "2023-05-KC@BUF",
		MarginMean:     marginMean,
		MarginVariance: marginVar,
		TotalMean:      totalMean,
		TotalVariance:  totalVar,
	}
}

func TestRunSeededIsReproducible(t *testing.T) {
	sim := New(nil)
	pred := prediction(3.0, 13.5*13.5, 45, 13*13)
	opts := Options{Samples: 2000, Seed: 42}

	a, err := sim.Run(context.Background(), pred, opts)
	require.NoError(t, err)
	b, err := sim.Run(context.Background(), pred, opts)
	require.NoError(t, err)

	assert.Equal(t, a.WinProbability(models.BetSideHome), b.WinProbability(models.BetSideHome))
	assert.Equal(t, a.HomeScores, b.HomeScores)
	assert.Equal(t, 2000, a.Samples)
	assert.False(t, a.Truncated)
	assert.Equal(t, int64(42), a.Seed)

	win := a.WinProbability(models.BetSideHome)
	assert.Equal(t, 2000, win.Samples)
	assert.InDelta(t, 0.574, win.Value, 0.04)
}

func TestRunDifferentSeedsDiffer(t *testing.T) {
	sim := New(nil)
	pred := prediction(3.0, 180, 45, 170)

	a, err := sim.Run(context.Background(), pred, Options{Samples: 500, Seed: 1})
	require.NoError(t, err)
	b, err := sim.Run(context.Background(), pred, Options{Samples: 500, Seed: 2})
	require.NoError(t, err)

	assert.NotEqual(t, a.HomeScores, b.HomeScores)
}

func TestRunRejectsNonPositiveSamples(t *testing.T) {
	for _, n := range []int{0, -5} {
		_, err := New(nil).Run(context.Background(), prediction(0, 1, 40, 1), Options{Samples: n, Seed: 1})

		var sizeErr *models.InvalidSampleSizeError
		require.True(t, errors.As(err, &sizeErr))
		assert.Equal(t, n, sizeErr.Requested)
	}
}

func TestRunTimeBudgetTruncates(t *testing.T) {
	sim := New(nil)
	clock := time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC)
	sim.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	out, err := sim.Run(context.Background(), prediction(3, 100, 45, 100), Options{Samples: 2000, Seed: 7, TimeBudget: 1500 * time.Millisecond})
	require.NoError(t, err)

	assert.True(t, out.Truncated)
	assert.Equal(t, 2*batchSize, out.Samples)
	assert.Equal(t, 2000, out.Requested)
	assert.Equal(t, 2*batchSize, out.OverProbability(44.5).Samples)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Run(ctx, prediction(0, 1, 40, 1), Options{Samples: 100, Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDegenerateDistribution(t *testing.T) {
	out, err := New(nil).Run(context.Background(), prediction(7, 0, 45, 0), Options{Samples: 300, Seed: 3})
	require.NoError(t, err)

	assert.Equal(t, 26, out.HomeScores[0])
	assert.Equal(t, 19, out.AwayScores[0])

	assert.Equal(t, 1.0, out.CoverProbability(-3, models.BetSideHome).Value)
	assert.Equal(t, 0.0, out.CoverProbability(-3, models.BetSideAway).Value)
	assert.Equal(t, 1.0, out.CoverProbability(-10, models.BetSideAway).Value)

	assert.Equal(t, 1.0, out.PushProbability(models.BetTypeSpread, -7).Value)
	assert.Equal(t, 0.0, out.CoverProbability(-7, models.BetSideHome).Value)
	assert.Equal(t, 0.0, out.CoverProbability(-7, models.BetSideAway).Value)

	assert.Equal(t, 1.0, out.OverProbability(44.5).Value)
	assert.Equal(t, 0.0, out.UnderProbability(44.5).Value)
	assert.Equal(t, 1.0, out.PushProbability(models.BetTypeTotal, 45).Value)
	assert.Equal(t, 1.0, out.WinProbability(models.BetSideHome).Value)
}

func TestScoresFlooredAtZero(t *testing.T) {
	out, err := New(nil).Run(context.Background(), prediction(20, 0, 2, 0), Options{Samples: 10, Seed: 3})
	require.NoError(t, err)

	for i := 0; i < out.Samples; i++ {
		assert.GreaterOrEqual(t, out.AwayScores[i], 0)
	}
	assert.Equal(t, 11, out.HomeScores[0])
	assert.Equal(t, 0, out.AwayScores[0])
}

func TestSummary(t *testing.T) {
	out, err := New(nil).Run(context.Background(), prediction(-2.5, 169, 44, 144), Options{Samples: 1500, Seed: 11})
	require.NoError(t, err)

	s := out.Summary()
	assert.Equal(t, out.GameID, s.GameID)
	assert.Equal(t, 1500, s.Samples)
	assert.InDelta(t, 1.0, s.HomeWinProb+s.AwayWinProb+s.TieProb, 1e-12)
	assert.Less(t, s.HomeWinProb, s.AwayWinProb)
	assert.InDelta(t, -2.5, s.MeanMargin, 1.5)
	assert.InDelta(t, 44, s.MeanTotal, 1.5)
	assert.Less(t, s.MarginP10, s.MarginP90)
	assert.Less(t, s.TotalP10, s.TotalP90)
}

func TestOutcomeWithoutSamples(t *testing.T) {
	var out Outcome
	assert.Equal(t, Probability{}, out.WinProbability(models.BetSideHome))
	assert.Equal(t, 0.0, out.MeanMargin())
}
