// Package backtest replays historical weeks through the prediction pipeline,
// grades every recommendation against final scores and closing lines, and
// decides whether a model or configuration version is retained.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/config"
	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/market"
	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/model"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/pipeline"
)

// Accuracy compares model and market margin errors on replayed games.
type Accuracy struct {
	Games            int     `json:"games"`
	ModelSignalGames int     `json:"model_signal_games"`
	ModelMAE         float64 `json:"model_margin_mae"`
	MarketMAE        float64 `json:"market_margin_mae"`
}

// Report is the full result of one backtest run.
type Report struct {
	RunID             uuid.UUID               `json:"run_id"`
	Range             BacktestRange           `json:"range"`
	ModelName         string                  `json:"model_name"`
	ModelVersion      string                  `json:"model_version"`
	ConfigVersion     string                  `json:"config_version"`
	Weeks             []WeekRun               `json:"weeks"`
	Skipped           []WeekSkip              `json:"skipped,omitempty"`
	Summary           Summary                 `json:"summary"`
	Accuracy          Accuracy                `json:"accuracy"`
	FeatureImportance map[string]float64      `json:"feature_importance,omitempty"`
	Risk              MonteCarloResult        `json:"risk"`
	EquityCurve       EquityCurve             `json:"equity_curve"`
	MaxDrawdown       float64                 `json:"max_drawdown"`
	Failures          []models.GameStatus     `json:"failures,omitempty"`
	GeneratedAt       time.Time               `json:"generated_at"`
	Duration          time.Duration           `json:"duration"`
	Records           []models.BacktestRecord `json:"-"`
	// Artifact is the model trained for the last replayed week, if any.
	Artifact *model.Artifact `json:"-"`
}

// Version labels the report for retention decisions.
func (r *Report) Version() string {
	return r.ConfigVersion + "/" + r.ModelVersion
}

// Evaluator runs walk-forward backtests.
type Evaluator struct {
	cfg      *config.Config
	games    []models.Game
	market   *market.Repository
	pipeline *pipeline.Pipeline
	trainer  *model.Trainer
	sink     RecordSink
	base     *logrus.Logger
	log      *logrus.Entry
	audit    *logger.AuditLogger
	now      func() time.Time
}

// NewEvaluator creates an evaluator over games. The predictor in deps is
// replaced every week by one trained on the weeks before it.
func NewEvaluator(cfg *config.Config, games []models.Game, deps pipeline.Dependencies, log *logrus.Logger) *Evaluator {
	log = logger.OrDefault(log)
	configVersion := cfg.PipelineVersion()
	deps.Predictor = model.NewPredictor(nil, cfg.Model.Name, configVersion, log)

	return &Evaluator{
		cfg:      cfg,
		games:    games,
		market:   deps.Market,
		pipeline: pipeline.New(cfg.Pipeline, configVersion, deps, log),
		trainer:  model.NewTrainer(cfg.Model, configVersion, log),
		base:     log,
		log:      log.WithField("component", "backtest"),
		audit:    logger.NewAuditLogger(log),
		now:      time.Now,
	}
}

// WithSink persists every graded record through sink as well as the in-memory ledger.
func (e *Evaluator) WithSink(sink RecordSink) *Evaluator {
	e.sink = sink
	return e
}

// Run replays every week in r sequentially. Each week is predicted by a model
// trained only on completed games before it, priced on opening lines with
// features as of kickoff, then graded against the final score and closing line.
func (e *Evaluator) Run(ctx context.Context, r BacktestRange) (*Report, error) {
	start := time.Now()
	if err := r.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:         uuid.New(),
		Range:         r,
		ModelName:     e.cfg.Model.Name,
		ModelVersion:  models.MarketOnlyVersion,
		ConfigVersion: e.pipeline.ConfigVersion(),
		GeneratedAt:   e.now(),
	}
	ledger := NewLedger()
	var modelErrs, marketErrs []float64

	e.log.WithFields(logrus.Fields{
		"run_id":         report.RunID,
		"range":          r.String(),
		"config_version": report.ConfigVersion,
	}).Info("Backtest started")

	for _, sw := range weeksInRange(e.games, r) {
		if err := ctx.Err(); err != nil {
			metrics.RecordBacktestRun("cancelled", time.Since(start).Seconds())
			return nil, fmt.Errorf("backtest cancelled before %s: %w", sw, err)
		}

		trainingWeeks := completedWeeksBefore(e.games, sw)
		if trainingWeeks < e.cfg.Backtest.MinTrainWeeks {
			reason := fmt.Sprintf("%d completed training weeks, need %d", trainingWeeks, e.cfg.Backtest.MinTrainWeeks)
			report.Skipped = append(report.Skipped, WeekSkip{Season: sw.Season, Week: sw.Week, Reason: reason})
			e.log.WithField("week", sw.String()).Debug("Skipping week: " + reason)
			continue
		}

		artifact, samples := e.train(sw)
		pred := model.NewPredictor(artifact, e.cfg.Model.Name, report.ConfigVersion, e.base)
		wr, err := e.pipeline.WithPredictor(pred).RunWeek(ctx, pipeline.WeekRequest{
			Season: sw.Season,
			Week:   sw.Week,
			Games:  pipeline.GamesForWeek(e.games, sw.Season, sw.Week),
			Replay: true,
			// the CLV policy gate is what a backtest measures, so it is open here
			ModelValidated: true,
			Trigger:        pipeline.TriggerBacktest,
		})
		if err != nil {
			metrics.RecordBacktestRun("failure", time.Since(start).Seconds())
			return nil, fmt.Errorf("replay %s: %w", sw, err)
		}

		records, failures := e.grade(report, wr)
		if err := ledger.Append(ctx, records...); err != nil {
			return nil, err
		}
		if e.sink != nil && len(records) > 0 {
			if err := e.sink.Append(ctx, records...); err != nil {
				metrics.RecordBacktestRun("failure", time.Since(start).Seconds())
				return nil, fmt.Errorf("persist backtest records for %s: %w", sw, err)
			}
		}

		for _, g := range wr.Games {
			actual, ok := g.Game.Margin()
			if !ok {
				continue
			}
			modelErrs = append(modelErrs, math.Abs(actual-g.Calibrated.MarginMean))
			marketErrs = append(marketErrs, math.Abs(actual-g.Prior.ImpliedHomeMargin()))
			if g.Calibrated.ModelSignal {
				report.Accuracy.ModelSignalGames++
			}
		}

		report.Failures = append(report.Failures, wr.Failures...)
		report.Failures = append(report.Failures, failures...)
		report.Weeks = append(report.Weeks, WeekRun{
			Season:          sw.Season,
			Week:            sw.Week,
			TrainingWeeks:   trainingWeeks,
			TrainingSamples: samples,
			ModelVersion:    wr.ModelVersion,
			ModelSignal:     artifact != nil,
			Games:           len(wr.Games),
			Recommendations: len(records),
			Failures:        len(wr.Failures) + len(failures),
		})
		if artifact != nil {
			report.Artifact = artifact
			report.ModelVersion = artifact.Version
		}
	}

	report.Records = ledger.Records()
	report.Summary = Summarize(report.Records)
	report.Accuracy.Games = len(modelErrs)
	report.Accuracy.ModelMAE = average(modelErrs)
	report.Accuracy.MarketMAE = average(marketErrs)
	if report.Artifact != nil {
		report.FeatureImportance = report.Artifact.FeatureImportance()
	}
	report.EquityCurve = BuildEquityCurve(report.Records, e.cfg.Pipeline.Bankroll)
	report.MaxDrawdown = report.EquityCurve.MaxDrawdown()

	risk, err := RunBankrollMonteCarlo(ctx, report.Records, MonteCarloConfig{
		Iterations:      e.cfg.Backtest.MonteCarloIterations,
		Seed:            e.cfg.Pipeline.Seed,
		InitialBankroll: e.cfg.Pipeline.Bankroll,
		RuinThreshold:   e.cfg.Backtest.RuinThreshold,
	})
	if err != nil {
		metrics.RecordBacktestRun("failure", time.Since(start).Seconds())
		return nil, fmt.Errorf("bankroll monte carlo: %w", err)
	}
	report.Risk = risk
	report.Duration = time.Since(start)

	agg := report.Summary.Aggregate
	metrics.UpdateBacktestResult(report.ModelVersion, agg.CLVPositiveRate, agg.ROI)
	metrics.RecordBacktestRun("success", report.Duration.Seconds())

	e.log.WithFields(logrus.Fields{
		"run_id":            report.RunID,
		"weeks":             len(report.Weeks),
		"bets":              agg.Bets,
		"win_rate":          agg.WinRate,
		"roi":               agg.ROI,
		"clv_positive_rate": agg.CLVPositiveRate,
		"model_version":     report.ModelVersion,
		"duration_ms":       report.Duration.Milliseconds(),
	}).Info("Backtest completed")
	for _, bt := range []models.BetType{models.BetTypeSpread, models.BetTypeTotal, models.BetTypeMoneyline} {
		if m, ok := report.Summary.ByBetType[bt]; ok {
			e.log.WithFields(logrus.Fields{
				"run_id":   report.RunID,
				"bet_type": bt,
				"metrics":  m.ToJSON(),
			}).Debug("Backtest bet type summary")
		}
	}

	return report, nil
}

// Decide compares candidate against baseline and writes the decision to the audit log.
func (e *Evaluator) Decide(baseline, candidate *Report) VersionDecision {
	d := CompareVersions(baseline, candidate, e.cfg.Backtest.MinBetsForDecision)
	e.audit.LogRetentionDecision(d.BaselineVersion, d.CandidateVersion, d.Decision, d.BaselineCLVRate, d.CandidateCLVRate)
	return d
}

// train fits a model on completed games before sw. A week without enough
// samples is replayed market-only.
func (e *Evaluator) train(sw models.SeasonWeek) (*model.Artifact, int) {
	samples, skipped := e.pipeline.TrainingSet(e.games, sw)
	if len(skipped) > 0 {
		e.log.WithFields(logrus.Fields{
			"week":    sw.String(),
			"skipped": len(skipped),
		}).Debug("Training games skipped")
	}
	artifact, err := e.trainer.Train(samples)
	if err != nil {
		e.log.WithError(err).WithField("week", sw.String()).Warn("Training failed, replaying week market-only")
		return nil, len(samples)
	}
	return artifact, len(samples)
}

// grade turns a replayed week's recommendations into backtest records.
// Games that cannot be graded are reported, never silently dropped.
func (e *Evaluator) grade(report *Report, wr *pipeline.WeekResult) ([]models.BacktestRecord, []models.GameStatus) {
	var records []models.BacktestRecord
	var failures []models.GameStatus

	failed := make(map[string]bool)
	fail := func(gameID string, err error) {
		if failed[gameID] {
			return
		}
		failed[gameID] = true
		failures = append(failures, models.GameStatus{
			GameID: gameID,
			Status: models.GameStatusFailed,
			Kind:   models.ErrorKind(err),
			Reason: err.Error(),
		})
	}

	for _, g := range wr.Games {
		recs := g.Recommended.Recommendations
		if len(recs) == 0 {
			continue
		}
		gameID := g.Game.ID()
		if !g.Game.IsCompleted() {
			fail(gameID, &models.MissingDataError{GameID: gameID, Feature: "final_score", Reason: "game has no final score"})
			continue
		}

		for _, rec := range recs {
			outcome, profit, err := Grade(rec, *g.Game.HomeScore, *g.Game.AwayScore)
			if err != nil {
				fail(gameID, err)
				continue
			}
			pair, err := e.market.PairForBook(gameID, rec.Book)
			if err != nil {
				fail(gameID, err)
				continue
			}
			clv, err := CLV(rec, pair)
			if err != nil {
				fail(gameID, err)
				continue
			}
			odds, _ := closingOdds(rec, pair.Closing)
			records = append(records, models.BacktestRecord{
				ID:             uuid.NewSHA1(report.RunID, []byte(rec.ID.String())),
				RunID:          report.RunID,
				Season:         g.Game.Season,
				Week:           g.Game.Week,
				GameID:         gameID,
				Recommendation: rec,
				HomeScore:      *g.Game.HomeScore,
				AwayScore:      *g.Game.AwayScore,
				Outcome:        outcome,
				Profit:         profit,
				ClosingLine:    closingLine(rec, pair.Closing),
				ClosingOdds:    odds,
				CLV:            clv,
				CLVSource:      pair.Source,
				CLVFallback:    pair.Fallback,
				ModelMargin:    g.Calibrated.MarginMean,
				ModelVersion:   rec.ModelVersion,
				ConfigVersion:  rec.ConfigVersion,
				RecordedAt:     report.GeneratedAt,
			})
		}
	}
	return records, failures
}
