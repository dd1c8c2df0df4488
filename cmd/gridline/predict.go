package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/pipeline"
)

func newPredictCmd() *cobra.Command {
	var (
		season  int
		week    int
		now     string
		persist bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict one week and write predictions and recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			pricedAt := time.Now().UTC()
			if now != "" {
				if pricedAt, err = time.Parse(time.RFC3339, now); err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
			}

			sw, err := selectWeek(season, week, a.data.Games, pricedAt)
			if err != nil {
				return err
			}

			res, err := a.predictWeek(ctx, sw, pricedAt, pipeline.TriggerManual, persist)
			if err != nil {
				return err
			}
			printWeekSummary(cmd, res)
			return nil
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season to predict (default: next week with games)")
	cmd.Flags().IntVar(&week, "week", 0, "Week to predict; requires --season")
	cmd.Flags().StringVar(&now, "now", "", "Pricing time in RFC3339 (default: current time)")
	cmd.Flags().BoolVar(&persist, "persist", true, "Store rows in the database when it is enabled")
	return cmd
}

// selectWeek validates the explicit season/week, or picks the next week with
// games after now when neither is set.
func selectWeek(season, week int, games []models.Game, now time.Time) (models.SeasonWeek, error) {
	if season == 0 && week == 0 {
		sw, ok := pipeline.UpcomingWeek(games, now)
		if !ok {
			return sw, fmt.Errorf("no upcoming games after %s", now.Format(time.RFC3339))
		}
		return sw, nil
	}
	if season == 0 || week == 0 {
		return models.SeasonWeek{}, fmt.Errorf("--season and --week must be given together")
	}
	return models.ParseSeasonWeek(fmt.Sprintf("%d-%d", season, week))
}

// predictWeek runs one week with the current artifact and writes its outputs.
func (a *app) predictWeek(ctx context.Context, sw models.SeasonWeek, now time.Time, trigger string, persist bool) (*pipeline.WeekResult, error) {
	artifact, err := a.loadArtifact(ctx)
	if err != nil {
		return nil, err
	}
	pred := a.predictor(artifact)

	validated := false
	if pred.Trained() {
		logger.NewModelLogger(log).LogArtifactLoaded(pred.Version(), cfg.Model.ArtifactPath)
		if validated, err = a.validationLedger().IsValidated(ctx, pred.Version()); err != nil {
			return nil, fmt.Errorf("failed to read validation state: %w", err)
		}
	}

	deps := a.deps
	deps.Predictor = pred
	p := pipeline.New(cfg.Pipeline, cfg.PipelineVersion(), deps, log)

	games := pipeline.GamesForWeek(a.data.Games, sw.Season, sw.Week)
	if len(games) == 0 {
		return nil, fmt.Errorf("no games scheduled for %s", sw)
	}
	res, err := p.RunWeek(ctx, pipeline.WeekRequest{
		Season:         sw.Season,
		Week:           sw.Week,
		Games:          games,
		Now:            now,
		ModelValidated: validated,
		Trigger:        trigger,
	})
	if err != nil {
		return nil, err
	}

	dir := pipeline.WeekDir(cfg.Data.OutputDir, sw.Season, sw.Week)
	if err := pipeline.ExportWeek(res, dir); err != nil {
		return nil, err
	}

	if persist && a.repos != nil {
		if err := a.repos.Prediction.InsertBatch(ctx, res.PredictionRows()); err != nil {
			return nil, err
		}
		if err := a.repos.Recommendation.InsertBatch(ctx, res.RecommendationRows()); err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"week":            sw.String(),
		"output":          dir,
		"model_version":   res.ModelVersion,
		"model_validated": validated,
	}).Info("Week predictions written")
	return res, nil
}

func printWeekSummary(cmd *cobra.Command, res *pipeline.WeekResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d-W%02d  model=%s  config=%s\n", res.Season, res.Week, res.ModelVersion, res.ConfigVersion)
	fmt.Fprintf(out, "  predicted:       %d\n", len(res.Games))
	fmt.Fprintf(out, "  recommendations: %d\n", len(res.RecommendationRows()))
	fmt.Fprintf(out, "  failed:          %d\n", len(res.Failures))
	for _, f := range res.Failures {
		fmt.Fprintf(out, "    %s [%s] %s\n", f.GameID, f.Kind, f.Reason)
	}
}
