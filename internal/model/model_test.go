package model

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/models"
)

func testModelConfig(lambda float64) config.ModelConfig {
	return config.ModelConfig{Name: "residual-ridge", RidgeLambda: lambda, MinTrainingSamples: 20, ArtifactPath: "unused"}
}

// syntheticSamples draws inputs from N(0,1) with a known linear residual structure:
// margin = 3*x0 - 2*x12 + noise, total = 1.5*x24 + noise.
func syntheticSamples(n int, seed int64, noise float64) []Sample {
	rng := rand.New(rand.NewSource(seed))
	p := len(InputNames())
	out := make([]Sample, n)
	for i := range out {
		x := make([]float64, p)
		for j := range x {
			x[j] = rng.NormFloat64()
		}
		out[i] = Sample{
			GameID:       models.GameKey(2022+i/272, 1+(i/16)%17, "H", "A"),
			SeasonWeek:   models.SeasonWeek{Season: 2022 + i/272, Week: 1 + (i/16)%17},
			Inputs:       x,
			HasTargets:   true,
			MarginTarget: 3*x[0] - 2*x[12] + noise*rng.NormFloat64(),
			TotalTarget:  1.5*x[24] + noise*rng.NormFloat64(),
		}
	}
	return out
}

func TestTrainRecoversResidualStructure(t *testing.T) {
	trainer := NewTrainer(testModelConfig(0.01), "cfg-test", nil)
	artifact, err := trainer.Train(syntheticSamples(400, 7, 0.5))
	require.NoError(t, err)

	assert.Equal(t, 400, artifact.Samples)
	assert.Regexp(t, `^rm-[0-9a-f]{12}$`, artifact.Version)
	assert.InDelta(t, 0.5, artifact.Margin.Sigma, 0.1)

	predictor := NewPredictor(artifact, "residual-ridge", "cfg-test", nil)
	probe := Sample{GameID: "probe", Inputs: make([]float64, len(InputNames())), PriorSpread: -3, PriorTotal: 44}
	probe.Inputs[0] = 1
	probe.Inputs[12] = -1
	probe.Inputs[24] = 2

	pred, err := predictor.Predict(probe)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, pred.MarginResidual, 0.3)
	assert.InDelta(t, 3.0, pred.TotalResidual, 0.3)
	assert.True(t, pred.ModelSignal)
	assert.Equal(t, artifact.Version, pred.ModelVersion)
	assert.Equal(t, "cfg-test", pred.ConfigVersion)
	assert.Equal(t, -3.0, pred.PriorSpread)
	assert.InDelta(t, artifact.Margin.Sigma*artifact.Margin.Sigma, pred.MarginVariance, 1e-12)
}

func TestFeatureImportance(t *testing.T) {
	artifact, err := NewTrainer(testModelConfig(0.01), "cfg-test", nil).Train(syntheticSamples(400, 3, 0.5))
	require.NoError(t, err)

	imp := artifact.FeatureImportance()
	var sum float64
	for _, v := range imp {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	names := InputNames()
	top := imp[names[0]]
	for i, name := range names {
		if i == 0 {
			continue
		}
		assert.LessOrEqual(t, imp[name], top, "input %s", name)
	}
}

func TestRidgeShrinksCoefficients(t *testing.T) {
	samples := syntheticSamples(200, 11, 1.0)
	loose, err := NewTrainer(testModelConfig(0.01), "cfg", nil).Train(samples)
	require.NoError(t, err)
	tight, err := NewTrainer(testModelConfig(500), "cfg", nil).Train(samples)
	require.NoError(t, err)

	norm := func(c []float64) float64 {
		var s float64
		for _, v := range c {
			s += v * v
		}
		return math.Sqrt(s)
	}
	assert.Less(t, norm(tight.Margin.Coefficients), norm(loose.Margin.Coefficients))
	assert.InDelta(t, loose.Margin.Intercept, tight.Margin.Intercept, 1e-9, "intercept is unpenalized")
}

func TestTrainDeterministicVersion(t *testing.T) {
	samples := syntheticSamples(100, 5, 1.0)
	a, err := NewTrainer(testModelConfig(1), "cfg", nil).Train(samples)
	require.NoError(t, err)
	b, err := NewTrainer(testModelConfig(1), "cfg", nil).Train(samples)
	require.NoError(t, err)
	c, err := NewTrainer(testModelConfig(1), "cfg-other", nil).Train(samples)
	require.NoError(t, err)

	assert.Equal(t, a.Version, b.Version)
	assert.NotEqual(t, a.Version, c.Version)
}

func TestTrainInsufficientSamples(t *testing.T) {
	samples := syntheticSamples(30, 1, 1)
	for i := range samples[:15] {
		samples[i].HasTargets = false
	}

	_, err := NewTrainer(testModelConfig(1), "cfg", nil).Train(samples)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient training samples")
}

func TestTrainRejectsWrongDimension(t *testing.T) {
	samples := syntheticSamples(30, 1, 1)
	samples[4].Inputs = samples[4].Inputs[:3]

	_, err := NewTrainer(testModelConfig(1), "cfg", nil).Train(samples)
	assert.Error(t, err)
}

func TestTrainConstantInputs(t *testing.T) {
	samples := syntheticSamples(60, 2, 1)
	for i := range samples {
		samples[i].Inputs[5] = 1
	}
	_, err := NewTrainer(testModelConfig(0), "cfg", nil).Train(samples)
	assert.NoError(t, err)
}

func TestPredictWithoutArtifact(t *testing.T) {
	predictor := NewPredictor(nil, "residual-ridge", "cfg", nil)

	_, err := predictor.Predict(Sample{GameID: "g"})
	var notTrained *models.ModelNotTrainedError
	require.True(t, errors.As(err, &notTrained))
	assert.Equal(t, "residual-ridge", notTrained.Model)
	assert.False(t, predictor.Trained())
	assert.Equal(t, models.MarketOnlyVersion, predictor.Version())
}

func TestMarketOnly(t *testing.T) {
	pred := MarketOnly(Sample{GameID: "g", PriorSpread: -6.5, PriorTotal: 41}, "cfg")

	assert.False(t, pred.ModelSignal)
	assert.Zero(t, pred.MarginResidual)
	assert.Equal(t, models.MarketOnlyVersion, pred.ModelVersion)
	assert.Equal(t, -6.5, pred.PriorSpread)
}

func TestSaveLoadArtifact(t *testing.T) {
	artifact, err := NewTrainer(testModelConfig(1), "cfg", nil).Train(syntheticSamples(80, 9, 1))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "artifact.json")
	require.NoError(t, SaveArtifact(path, artifact))

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, artifact.Version, loaded.Version)

	probe := syntheticSamples(1, 99, 0)[0]
	a, err := NewPredictor(artifact, "m", "cfg", nil).Predict(probe)
	require.NoError(t, err)
	b, err := NewPredictor(loaded, "m", "cfg", nil).Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, a.MarginResidual, b.MarginResidual)
	assert.Equal(t, a.TotalResidual, b.TotalResidual)
}

func TestArtifactRecordRoundTrip(t *testing.T) {
	artifact, err := NewTrainer(testModelConfig(1), "cfg", nil).Train(syntheticSamples(80, 4, 1))
	require.NoError(t, err)

	rec, err := artifact.Record("output/model/artifact.json")
	require.NoError(t, err)
	assert.Equal(t, artifact.Version, rec.Version)
	assert.Equal(t, artifact.TrainedThrough, rec.TrainedThrough)

	lambda, err := rec.GetHyperparameter("ridge_lambda")
	require.NoError(t, err)
	assert.Equal(t, 1.0, lambda)

	restored, err := ArtifactFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, artifact.Margin.Coefficients, restored.Margin.Coefficients)
}

func TestLoadArtifactRejectsInconsistent(t *testing.T) {
	artifact, err := NewTrainer(testModelConfig(1), "cfg", nil).Train(syntheticSamples(80, 4, 1))
	require.NoError(t, err)
	artifact.Scales = artifact.Scales[:2]

	path := filepath.Join(t.TempDir(), "artifact.json")
	require.NoError(t, SaveArtifact(path, artifact))

	_, err = LoadArtifact(path)
	assert.Error(t, err)
}

func TestBuildSample(t *testing.T) {
	home, away := 27, 20
	game := models.Game{Season: 2023, Week: 5, HomeTeam: "BUF", AwayTeam: "KC", Kickoff: time.Now(), HomeScore: &home, AwayScore: &away}
	prior := models.MarketLine{GameID: game.ID(), Spread: -3, Total: 44.5}

	s, err := BuildSample(models.TeamFeatureVector{Team: "BUF", OffEPA: 0.2}, models.TeamFeatureVector{Team: "KC", OffEPA: 0.1}, prior, game)
	require.NoError(t, err)

	assert.Len(t, s.Inputs, len(InputNames()))
	assert.Equal(t, 0.2, s.Inputs[0])
	assert.Equal(t, 0.1, s.Inputs[len(models.ModelFeatureNames)])
	assert.Equal(t, -3.0, s.Inputs[len(s.Inputs)-2])
	assert.True(t, s.HasTargets)
	assert.Equal(t, 4.0, s.MarginTarget)
	assert.Equal(t, 2.5, s.TotalTarget)
}

func TestBuildSampleUpcomingGame(t *testing.T) {
	game := models.Game{Season: 2023, Week: 6, HomeTeam: "BUF", AwayTeam: "KC", Kickoff: time.Now()}
	s, err := BuildSample(models.TeamFeatureVector{Team: "BUF"}, models.TeamFeatureVector{Team: "KC"}, models.MarketLine{Spread: -1}, game)
	require.NoError(t, err)
	assert.False(t, s.HasTargets)

	_, err = BuildSample(models.TeamFeatureVector{Team: "KC"}, models.TeamFeatureVector{Team: "BUF"}, models.MarketLine{}, game)
	assert.Error(t, err)
}

func TestTimeOrderedSplit(t *testing.T) {
	samples := []Sample{
		{GameID: "c", SeasonWeek: models.SeasonWeek{Season: 2023, Week: 3}},
		{GameID: "a", SeasonWeek: models.SeasonWeek{Season: 2022, Week: 17}},
		{GameID: "d", SeasonWeek: models.SeasonWeek{Season: 2023, Week: 5}},
		{GameID: "b", SeasonWeek: models.SeasonWeek{Season: 2023, Week: 1}},
	}

	train, test := TimeOrderedSplit(samples, models.SeasonWeek{Season: 2023, Week: 3})

	require.Len(t, train, 2)
	require.Len(t, test, 2)
	assert.Equal(t, "a", train[0].GameID)
	assert.Equal(t, "b", train[1].GameID)
	assert.Equal(t, "c", test[0].GameID)
	for _, s := range train {
		for _, u := range test {
			assert.True(t, s.SeasonWeek.Before(u.SeasonWeek))
		}
	}
}

func TestSolveCholesky(t *testing.T) {
	a := mat.NewSymDense(2, []float64{4, 2, 2, 3})
	x, err := solveCholesky(a, mat.NewVecDense(2, []float64{2, 1}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, x[0], 1e-12)
	assert.InDelta(t, 0, x[1], 1e-12)

	_, err = solveCholesky(mat.NewSymDense(2, nil), mat.NewVecDense(2, []float64{1, 1}))
	assert.ErrorIs(t, err, errNotPositiveDefinite)
}

func TestStandardizeAndRidgeGram(t *testing.T) {
	samples := []Sample{
		{Inputs: []float64{1, 5}},
		{Inputs: []float64{3, 5}},
	}
	z, means, scales := standardize(samples, 2)

	assert.Equal(t, []float64{2, 5}, means)
	assert.InDelta(t, 1, scales[0], 1e-12)
	assert.Equal(t, 1.0, scales[1], "constant input keeps unit scale")
	assert.Equal(t, []float64{-1, 0}, z.RawRowView(0))
	assert.Equal(t, []float64{1, 0}, z.RawRowView(1))

	g := ridgeGram(z, 0.5)
	assert.InDelta(t, 2.5, g.At(0, 0), 1e-12)
	assert.InDelta(t, 0, g.At(0, 1), 1e-12)
	assert.InDelta(t, 0.5, g.At(1, 1), 1e-12)
}
