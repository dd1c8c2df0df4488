package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gridline/internal/model"
	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/pipeline"
)

func newTrainCmd() *cobra.Command {
	var throughSeason, throughWeek int
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the residual model on completed games and save the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sw, err := models.ParseSeasonWeek(fmt.Sprintf("%d-%d", throughSeason, throughWeek))
			if err != nil {
				return fmt.Errorf("invalid --through-season/--through-week: %w", err)
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p := pipeline.New(cfg.Pipeline, cfg.PipelineVersion(), a.deps, log)
			samples, skipped := p.TrainingSet(a.data.Games, sw.Next())
			for _, s := range skipped {
				log.WithFields(logrus.Fields{"game_id": s.GameID, "kind": s.Kind}).Debug("Game skipped for training")
			}

			artifact, err := model.NewTrainer(cfg.Model, cfg.PipelineVersion(), log).Train(samples)
			if err != nil {
				return err
			}
			if err := a.saveArtifact(ctx, artifact); err != nil {
				return fmt.Errorf("failed to save artifact: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trained %s on %d games (%s..%s), %d skipped\n",
				artifact.Version, artifact.Samples, artifact.TrainedFrom, artifact.TrainedThrough, len(skipped))
			fmt.Fprintf(out, "margin sigma %.2f, total sigma %.2f\n", artifact.Margin.Sigma, artifact.Total.Sigma)
			fmt.Fprintf(out, "artifact written to %s\n", cfg.Model.ArtifactPath)
			return nil
		},
	}
	cmd.Flags().IntVar(&throughSeason, "through-season", 0, "Season of the last week included in training")
	cmd.Flags().IntVar(&throughWeek, "through-week", 0, "Last week included in training")
	_ = cmd.MarkFlagRequired("through-season")
	_ = cmd.MarkFlagRequired("through-week")
	return cmd
}
