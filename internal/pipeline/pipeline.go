// Package pipeline runs the weekly prediction cycle: features and market prior,
// residual model, calibration, simulation and recommendations for every game.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/gridline/internal/calibration"
	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/features"
	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/market"
	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/model"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/recommend"
	"github.com/yourusername/gridline/internal/simulation"
)

// Triggers recorded on run metrics
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerBacktest = "backtest"
)

// Dependencies are the components a pipeline run composes.
type Dependencies struct {
	Features   *features.Store
	Market     *market.Repository
	Predictor  *model.Predictor
	Calibrator *calibration.Calibrator
	Simulator  *simulation.Simulator
	Engine     *recommend.Engine
}

// WeekRequest selects the games of one run and how they are priced.
type WeekRequest struct {
	Season int
	Week   int
	Games  []models.Game
	// Now is the pricing time. Features and the market prior are taken as of
	// Now, or as of kickoff when Now is zero or after kickoff.
	Now time.Time
	// Replay prices every game on its opening line at the opening quote time,
	// which is how historical weeks are re-run.
	Replay         bool
	ModelValidated bool
	Trigger        string
}

// GameResult is everything produced for one successfully processed game.
type GameResult struct {
	Game        models.Game                 `json:"game"`
	AsOf        time.Time                   `json:"as_of"`
	Prior       models.MarketLine           `json:"prior"`
	Home        models.TeamFeatureVector    `json:"home"`
	Away        models.TeamFeatureVector    `json:"away"`
	Raw         models.ResidualPrediction   `json:"raw"`
	Calibrated  models.CalibratedPrediction `json:"calibrated"`
	Summary     models.OutcomeSummary       `json:"summary"`
	Recommended recommend.Result            `json:"recommended"`
	// Outcome is the full simulated distribution; it is never persisted.
	Outcome *simulation.Outcome `json:"-"`
}

// WeekResult is the merged output of one run, ordered by game key.
type WeekResult struct {
	Season        int                 `json:"season"`
	Week          int                 `json:"week"`
	ModelVersion  string              `json:"model_version"`
	ConfigVersion string              `json:"config_version"`
	Games         []GameResult        `json:"games"`
	Failures      []models.GameStatus `json:"failures"`
	CreatedAt     time.Time           `json:"created_at"`
	Duration      time.Duration       `json:"duration"`
}

// Pipeline runs weeks against a fixed set of components and one configuration version.
type Pipeline struct {
	cfg           config.PipelineConfig
	configVersion string
	deps          Dependencies
	log           *logger.PipelineLogger
	base          *logrus.Logger
	baselines     singleflight.Group
}

// New creates a pipeline. configVersion is stamped on every output.
func New(cfg config.PipelineConfig, configVersion string, deps Dependencies, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		cfg:           cfg,
		configVersion: configVersion,
		deps:          deps,
		log:           logger.NewPipelineLogger(log),
		base:          log,
	}
}

// WithPredictor returns a pipeline sharing every component except the predictor.
func (p *Pipeline) WithPredictor(pred *model.Predictor) *Pipeline {
	deps := p.deps
	deps.Predictor = pred
	return New(p.cfg, p.configVersion, deps, p.base)
}

// ConfigVersion returns the configuration version stamped on outputs.
func (p *Pipeline) ConfigVersion() string {
	return p.configVersion
}

// RunWeek processes every game in req concurrently, bounded by the worker count.
// A game that fails is reported in Failures and never aborts the others.
func (p *Pipeline) RunWeek(ctx context.Context, req WeekRequest) (*WeekResult, error) {
	start := time.Now()
	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerManual
	}

	games := append([]models.Game(nil), req.Games...)
	sort.Slice(games, func(i, j int) bool { return games[i].ID() < games[j].ID() })

	result := &WeekResult{
		Season:        req.Season,
		Week:          req.Week,
		ModelVersion:  p.deps.Predictor.Version(),
		ConfigVersion: p.configVersion,
		CreatedAt:     req.Now,
	}
	p.log.LogRunStart(req.Season, req.Week, len(games), result.ModelVersion, p.configVersion)

	outcomes := make([]*GameResult, len(games))
	failures := make([]*models.GameStatus, len(games))

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range games {
		i := i
		g.Go(func() error {
			game := games[i]
			res, err := p.processGame(gctx, game, req)
			if err != nil {
				kind := models.ErrorKind(err)
				p.log.LogGameFailure(game.ID(), kind, err)
				metrics.RecordGameProcessed(models.GameStatusFailed)
				failures[i] = &models.GameStatus{GameID: game.ID(), Status: models.GameStatusFailed, Kind: kind, Reason: err.Error()}
				return nil
			}
			metrics.RecordGameProcessed(models.GameStatusOK)
			outcomes[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range games {
		if outcomes[i] != nil {
			result.Games = append(result.Games, *outcomes[i])
		}
		if failures[i] != nil {
			result.Failures = append(result.Failures, *failures[i])
		}
	}
	result.Duration = time.Since(start)

	status := "success"
	if err := ctx.Err(); err != nil {
		status = "cancelled"
	} else if len(result.Failures) > 0 {
		status = "partial"
	}
	metrics.RecordPipelineRun(trigger, status, result.Duration.Seconds())
	p.log.LogRunComplete(req.Season, req.Week, len(result.Games), len(result.Failures), len(result.RecommendationRows()), result.Duration)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("pipeline run cancelled: %w", err)
	}
	return result, nil
}

func (p *Pipeline) processGame(ctx context.Context, game models.Game, req WeekRequest) (*GameResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gameID := game.ID()

	asOf := game.Kickoff
	if !req.Replay && !req.Now.IsZero() && req.Now.Before(asOf) {
		asOf = req.Now
	}

	prior, err := p.prior(gameID, asOf, req.Replay)
	if err != nil {
		return nil, err
	}

	home, away, err := p.deps.Features.GameFeatures(game, asOf)
	if err != nil {
		return nil, err
	}
	baseline, err := p.baseline(asOf)
	if err != nil {
		return nil, err
	}
	home = p.clamp(gameID, home, baseline)
	away = p.clamp(gameID, away, baseline)

	sample, err := model.BuildSample(home, away, prior, game)
	if err != nil {
		return nil, err
	}

	raw, err := p.deps.Predictor.Predict(sample)
	var notTrained *models.ModelNotTrainedError
	switch {
	case errors.As(err, &notTrained):
		p.log.LogMarketPriorFallback(gameID, err.Error())
		raw = model.MarketOnly(sample, p.configVersion)
	case err != nil:
		return nil, err
	}
	raw.ConfigVersion = p.configVersion
	if !req.Now.IsZero() {
		raw.PredictedAt = req.Now
	}

	calibrated := p.deps.Calibrator.Calibrate(raw, prior)

	opts := simulation.OptionsFromConfig(p.cfg)
	opts.Seed = GameSeed(p.cfg.Seed, gameID)
	outcome, err := p.deps.Simulator.Run(ctx, calibrated, opts)
	if err != nil {
		return nil, err
	}

	quote := models.QuoteFromLine(prior)
	pricedAt := req.Now
	if req.Replay || pricedAt.IsZero() {
		pricedAt = quote.QuotedAt
	}
	rec, err := p.deps.Engine.Recommend(outcome, quote, recommend.RecommendContext{
		ModelVersion:   raw.ModelVersion,
		ConfigVersion:  p.configVersion,
		ModelValidated: req.ModelValidated,
		Now:            pricedAt,
	})
	if err != nil {
		return nil, err
	}

	return &GameResult{
		Game:        game,
		AsOf:        asOf,
		Prior:       prior,
		Home:        home,
		Away:        away,
		Raw:         raw,
		Calibrated:  calibrated,
		Summary:     outcome.Summary(),
		Recommended: rec,
		Outcome:     outcome,
	}, nil
}

// prior returns the market line the prediction is anchored on.
func (p *Pipeline) prior(gameID string, asOf time.Time, replay bool) (models.MarketLine, error) {
	if replay {
		return p.deps.Market.PreferredOpening(gameID, p.cfg.PreferredBook)
	}
	return p.deps.Market.LatestBefore(gameID, asOf, p.cfg.PreferredBook)
}

// baseline shares one league baseline computation between workers pricing the same instant.
func (p *Pipeline) baseline(asOf time.Time) (models.LeagueBaseline, error) {
	v, err, _ := p.baselines.Do(asOf.UTC().Format(time.RFC3339Nano), func() (interface{}, error) {
		return p.deps.Features.Baseline(asOf)
	})
	if err != nil {
		return models.LeagueBaseline{}, err
	}
	return v.(models.LeagueBaseline), nil
}

// GameSeed derives a per-game simulation seed. A zero base seed stays zero so
// every game draws a fresh seed.
func GameSeed(base int64, gameID string) int64 {
	if base <= 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(gameID))
	return base + int64(h.Sum32())
}

// GamesForWeek filters games to one season/week.
func GamesForWeek(games []models.Game, season, week int) []models.Game {
	var out []models.Game
	for _, g := range games {
		if g.Season == season && g.Week == week {
			out = append(out, g)
		}
	}
	return out
}
