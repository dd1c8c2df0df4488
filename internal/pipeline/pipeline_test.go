package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gridline/internal/calibration"
	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/features"
	"github.com/yourusername/gridline/internal/market"
	"github.com/yourusername/gridline/internal/model"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/recommend"
	"github.com/yourusername/gridline/internal/simulation"
)

var seasonStart = time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)

var testTeams = []models.TeamInfo{
	{Team: "KC", Conference: "AFC", Division: "West", Latitude: 39.05, Longitude: -94.48, UTCOffset: -6},
	{Team: "LV", Conference: "AFC", Division: "West", Latitude: 36.09, Longitude: -115.18, UTCOffset: -8},
	{Team: "BUF", Conference: "AFC", Division: "East", Latitude: 42.77, Longitude: -78.79, UTCOffset: -5},
	{Team: "SF", Conference: "NFC", Division: "West", Latitude: 37.40, Longitude: -121.97, UTCOffset: -8},
}

func weekDate(week int) time.Time {
	return seasonStart.AddDate(0, 0, 7*(week-1))
}

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		RecencyDecay:            0.85,
		CalibrationTrustFactor:  0.5,
		ClampBound:              2.5,
		SimulationSampleCount:   500,
		MinEdgePoints:           1.5,
		MinEdgeProbability:      0.03,
		KellyFraction:           0.25,
		MaxStakePerGame:         50,
		Bankroll:                1000,
		HistoryGames:            8,
		MinHistoryGames:         2,
		InjuryWindowDays:        7,
		InjuryWeights:           config.InjuryWeights{QB: 3, Skill: 1, Other: 0.5},
		LimitedInjuryMultiplier: 0.5,
		TravelThresholdsMiles:   []float64{1000, 2000},
		TimezoneThresholdHours:  2,
		MarginStdDev:            13.5,
		TotalStdDev:             13,
		Seed:                    42,
		Workers:                 3,
		LineFreshnessWindow:     6 * time.Hour,
		LineMoveTolerance:       0.5,
		PreferredBook:           "pinnacle",
		Tiers:                   config.TiersConfig{High: 0.08, Medium: 0.05},
	}
}

func teamStats() []models.TeamGameStats {
	var out []models.TeamGameStats
	for i, team := range []string{"KC", "LV", "BUF", "SF"} {
		for w := 1; w <= 4; w++ {
			out = append(out, models.TeamGameStats{
				Team:           team,
				Opponent:       "OPP",
				GameDate:       weekDate(w),
				Season:         2023,
				Week:           w,
				OffEPA:         0.05 * float64(i),
				DefEPA:         -0.02 * float64(i),
				OffSuccessRate: 0.40 + 0.02*float64(i),
				DefSuccessRate: 0.42,
				PointsFor:      20 + float64(i),
				PointsAgainst:  21,
			})
		}
	}
	return out
}

func linesFor(g models.Game, spread, total float64) []models.MarketLine {
	return []models.MarketLine{
		{GameID: g.ID(), Book: "pinnacle", Timestamp: g.Kickoff.AddDate(0, 0, -5), Kind: models.LineOpening, Spread: spread, Total: total},
		{GameID: g.ID(), Book: "pinnacle", Timestamp: g.Kickoff.Add(-time.Hour), Kind: models.LineClosing, Spread: spread - 0.5, Total: total},
	}
}

func weekGame(home, away string, week int) models.Game {
	return models.Game{Season: 2023, Week: week, HomeTeam: home, AwayTeam: away, Kickoff: weekDate(week)}
}

// fixedArtifact predicts a constant residual regardless of inputs.
func fixedArtifact(margin, total float64) *model.Artifact {
	n := len(model.InputNames())
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return &model.Artifact{
		Version:    "rm-fixed",
		InputNames: model.InputNames(),
		Means:      make([]float64, n),
		Scales:     ones,
		Margin:     model.TargetFit{Intercept: margin, Coefficients: make([]float64, n), Sigma: 12},
		Total:      model.TargetFit{Intercept: total, Coefficients: make([]float64, n), Sigma: 11},
	}
}

func newTestPipeline(t *testing.T, artifact *model.Artifact, games []models.Game) *Pipeline {
	t.Helper()
	cfg := pipelineConfig()

	repo := market.NewRepository()
	for _, g := range games {
		require.NoError(t, repo.Add(linesFor(g, -3, 45)...))
	}

	store := features.NewStore(features.ConfigFromPipeline(cfg, "cfg-test"), features.Data{Stats: teamStats(), Teams: testTeams}, features.NewCache(time.Minute), nil)
	return New(cfg, "cfg-test", Dependencies{
		Features:   store,
		Market:     repo,
		Predictor:  model.NewPredictor(artifact, "residual-ridge", "cfg-test", nil),
		Calibrator: calibration.New(cfg),
		Simulator:  simulation.New(nil),
		Engine:     recommend.NewEngine(cfg, nil),
	}, nil)
}

func TestRunWeekIsolatesFailures(t *testing.T) {
	games := []models.Game{weekGame("BUF", "KC", 5), weekGame("SF", "LV", 5), weekGame("MIA", "NYJ", 5)}
	p := newTestPipeline(t, nil, games)

	res, err := p.RunWeek(context.Background(), WeekRequest{Season: 2023, Week: 5, Games: games, Now: weekDate(5).Add(-30 * time.Minute)})
	require.NoError(t, err)

	require.Len(t, res.Games, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "2023-05-NYJ@MIA", res.Failures[0].GameID)
	assert.Equal(t, models.KindMissingData, res.Failures[0].Kind)
	assert.NotEmpty(t, res.Failures[0].Reason)

	assert.Equal(t, "2023-05-KC@BUF", res.Games[0].Game.ID())
	assert.Equal(t, "2023-05-LV@SF", res.Games[1].Game.ID())
	assert.Len(t, res.Statuses(), 3)
}

func TestRunWeekMarketOnlyFallback(t *testing.T) {
	games := []models.Game{weekGame("BUF", "KC", 5)}
	p := newTestPipeline(t, nil, games)

	res, err := p.RunWeek(context.Background(), WeekRequest{Season: 2023, Week: 5, Games: games, Now: weekDate(5).Add(-30 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, res.Games, 1)

	g := res.Games[0]
	assert.False(t, g.Raw.ModelSignal)
	assert.Equal(t, models.MarketOnlyVersion, g.Raw.ModelVersion)
	assert.Equal(t, models.LineClosing, g.Prior.Kind, "latest line before pricing time")
	assert.Equal(t, 3.5, g.Calibrated.MarginMean)
	assert.Equal(t, "cfg-test", g.Raw.ConfigVersion)
	assert.Empty(t, res.RecommendationRows(), "market prior alone has no edge")

	rows := res.PredictionRows()
	require.Len(t, rows, 1)
	assert.Equal(t, 500, rows[0].SampleCount)
	assert.False(t, rows[0].ModelSignal)
}

func TestRunWeekWithModelSignal(t *testing.T) {
	games := []models.Game{weekGame("BUF", "KC", 5), weekGame("SF", "LV", 5)}
	p := newTestPipeline(t, fixedArtifact(8, 0), games)

	res, err := p.RunWeek(context.Background(), WeekRequest{Season: 2023, Week: 5, Games: games, Now: weekDate(5).Add(-30 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, res.Games, 2)
	assert.Equal(t, "rm-fixed", res.ModelVersion)

	g := res.Games[0]
	assert.True(t, g.Raw.ModelSignal)
	assert.Equal(t, 8.0, g.Raw.MarginResidual)
	assert.Equal(t, 3.5+4.0, g.Calibrated.MarginMean)
	assert.InDelta(t, 144.0, g.Calibrated.MarginVariance, 1e-9)

	recs := res.RecommendationRows()
	require.NotEmpty(t, recs)
	for _, rec := range recs {
		assert.Equal(t, models.BetTypeSpread, rec.BetType)
		assert.Equal(t, models.BetSideHome, rec.Side)
		assert.True(t, rec.Stake.IsPositive())
		assert.Equal(t, "rm-fixed", rec.ModelVersion)
		assert.Equal(t, "cfg-test", rec.ConfigVersion)
	}
}

func TestRunWeekIsIdempotent(t *testing.T) {
	games := []models.Game{weekGame("BUF", "KC", 5), weekGame("SF", "LV", 5)}
	req := WeekRequest{Season: 2023, Week: 5, Games: games, Now: weekDate(5).Add(-30 * time.Minute)}

	first, err := newTestPipeline(t, fixedArtifact(8, 0), games).RunWeek(context.Background(), req)
	require.NoError(t, err)
	second, err := newTestPipeline(t, fixedArtifact(8, 0), games).RunWeek(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.PredictionRows(), second.PredictionRows())

	a := first.RecommendationRows()
	require.NotEmpty(t, a)
	assert.Equal(t, a, second.RecommendationRows())
}

func TestRunWeekReplayUsesOpeningLine(t *testing.T) {
	games := []models.Game{weekGame("BUF", "KC", 5)}
	p := newTestPipeline(t, nil, games)

	res, err := p.RunWeek(context.Background(), WeekRequest{Season: 2023, Week: 5, Games: games, Replay: true, Trigger: TriggerBacktest})
	require.NoError(t, err)
	require.Len(t, res.Games, 1)

	assert.Equal(t, models.LineOpening, res.Games[0].Prior.Kind)
	assert.Equal(t, weekDate(5), res.Games[0].AsOf)
}

func TestRunWeekMissingLines(t *testing.T) {
	priced := weekGame("BUF", "KC", 5)
	unpriced := weekGame("SF", "LV", 5)
	p := newTestPipeline(t, nil, []models.Game{priced})

	res, err := p.RunWeek(context.Background(), WeekRequest{Season: 2023, Week: 5, Games: []models.Game{priced, unpriced}})
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, unpriced.ID(), res.Failures[0].GameID)
	assert.Equal(t, models.KindMissingData, res.Failures[0].Kind)
}

func TestRunWeekCancelled(t *testing.T) {
	games := []models.Game{weekGame("BUF", "KC", 5)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(t, nil, games).RunWeek(ctx, WeekRequest{Season: 2023, Week: 5, Games: games})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainingSet(t *testing.T) {
	score := func(g models.Game, home, away int) models.Game {
		g.HomeScore, g.AwayScore = &home, &away
		return g
	}
	games := []models.Game{
		score(weekGame("BUF", "KC", 3), 27, 20),
		score(weekGame("SF", "LV", 3), 17, 24),
		score(weekGame("BUF", "SF", 4), 30, 10),
		weekGame("KC", "LV", 3),
	}
	p := newTestPipeline(t, nil, games[:3])
	unpriced := score(weekGame("LV", "KC", 3), 14, 21)

	samples, skipped := p.TrainingSet(append(games, unpriced), models.SeasonWeek{Season: 2023, Week: 4})

	require.Len(t, samples, 2)
	assert.Equal(t, "2023-03-KC@BUF", samples[0].GameID)
	assert.Equal(t, "2023-03-LV@SF", samples[1].GameID)
	assert.Equal(t, 27.0-20.0-3.0, samples[0].MarginTarget)
	assert.Equal(t, 41.0-45.0, samples[1].TotalTarget)

	require.Len(t, skipped, 1)
	assert.Equal(t, unpriced.ID(), skipped[0].GameID)
}

func TestGameSeed(t *testing.T) {
	assert.Zero(t, GameSeed(0, "2023-05-KC@BUF"))
	assert.Equal(t, GameSeed(42, "2023-05-KC@BUF"), GameSeed(42, "2023-05-KC@BUF"))
	assert.NotEqual(t, GameSeed(42, "2023-05-KC@BUF"), GameSeed(42, "2023-05-LV@SF"))
	assert.Greater(t, GameSeed(42, "2023-05-KC@BUF"), int64(42))
}

func TestGamesForWeek(t *testing.T) {
	games := []models.Game{weekGame("BUF", "KC", 4), weekGame("SF", "LV", 5), weekGame("KC", "BUF", 5)}
	assert.Len(t, GamesForWeek(games, 2023, 5), 2)
	assert.Empty(t, GamesForWeek(games, 2022, 5))
}
