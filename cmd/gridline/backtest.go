package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gridline/internal/backtest"
	"github.com/yourusername/gridline/internal/models"
)

func newBacktestCmd() *cobra.Command {
	var (
		from     string
		to       string
		baseline string
		promote  bool
	)
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a range of weeks walk-forward and grade every recommendation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := backtestRange(from, to)
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ev := backtest.NewEvaluator(cfg, a.data.Games, a.deps, log)
			if a.repos != nil {
				ev = ev.WithSink(a.repos.BacktestRecord)
			}
			report, err := ev.Run(ctx, r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, backtest.GenerateConsoleReport(report))

			base := filepath.Join(cfg.Backtest.OutputPath, report.RunID.String())
			if cfg.Backtest.ExportCSV {
				if err := backtest.ExportRecordsCSV(report.Records, base+"_records.csv"); err != nil {
					return fmt.Errorf("failed to export records: %w", err)
				}
				if err := os.WriteFile(base+"_equity.csv", []byte(report.EquityCurve.ToCSV()), 0o644); err != nil {
					return fmt.Errorf("failed to export equity curve: %w", err)
				}
			}
			if cfg.Backtest.ExportJSON {
				if err := backtest.ExportJSON(report, base+"_report.json"); err != nil {
					return fmt.Errorf("failed to export report: %w", err)
				}
			}

			if baseline == "" {
				return nil
			}
			prev, err := backtest.LoadReport(baseline)
			if err != nil {
				return err
			}
			d := ev.Decide(prev, report)
			fmt.Fprintf(out, "\n%s: %s -> %s (%s)\n", d.Decision, d.BaselineVersion, d.CandidateVersion, d.Reason)

			if !promote || !d.Accepted() || report.Artifact == nil {
				return nil
			}
			if err := a.promote(ctx, report.Artifact); err != nil {
				return fmt.Errorf("failed to promote %s: %w", report.Artifact.Version, err)
			}
			log.WithFields(logrus.Fields{
				"model_version": report.Artifact.Version,
				"artifact":      cfg.Model.ArtifactPath,
			}).Info("Model version promoted")
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First season and week to replay (default: backtest.from_season/from_week)")
	cmd.Flags().StringVar(&to, "to", "", "Last season and week to replay (default: backtest.to_season/to_week)")
	cmd.Flags().StringVar(&baseline, "baseline-report", "", "JSON report of the baseline version to compare against")
	cmd.Flags().BoolVar(&promote, "promote", false, "Save and mark validated the candidate model when it is accepted")
	return cmd
}

// backtestRange overrides the configured range with any non-empty bound.
func backtestRange(from, to string) (backtest.BacktestRange, error) {
	r := backtest.RangeFromConfig(cfg.Backtest)
	var err error
	if from != "" {
		if r.From, err = models.ParseSeasonWeek(from); err != nil {
			return r, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if to != "" {
		if r.To, err = models.ParseSeasonWeek(to); err != nil {
			return r, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return r, r.Validate()
}
