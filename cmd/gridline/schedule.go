package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/gridline/internal/health"
	"github.com/yourusername/gridline/internal/pipeline"
	"github.com/yourusername/gridline/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the weekly prediction cycle on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Schedule.Cron == "" {
				return fmt.Errorf("schedule.cron is not configured")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var mu sync.Mutex
			job := func(jobCtx context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				return a.predictUpcoming(jobCtx)
			}

			sched := scheduler.NewScheduler(log)
			if err := sched.Schedule("weekly-predictions", cfg.Schedule.Cron, job); err != nil {
				return err
			}

			hcfg := health.Config{
				ServiceName: cfg.App.Name,
				Version:     Version,
				Port:        cfg.Schedule.HealthPort,
				MetricsPath: cfg.Metrics.Path,
				Logger:      log,
				Cycle:       sched,
			}
			if a.db != nil {
				hcfg.DB = a.db
			}
			srv := health.NewServer(hcfg)
			srv.Start(ctx)

			if err := sched.Start(); err != nil {
				return err
			}
			srv.SetReady(true)

			log.WithFields(logrus.Fields{
				"cron":     cfg.Schedule.Cron,
				"next_run": sched.NextRun().Format(time.RFC3339),
			}).Info("Prediction cycle scheduled")

			if runNow {
				if err := sched.RunNow("weekly-predictions", job); err != nil {
					log.WithError(err).Error("Initial prediction cycle failed")
				}
			}

			<-ctx.Done()
			log.Info("Shutdown signal received")
			srv.SetReady(false)
			if err := sched.Stop(); err != nil {
				log.WithError(err).Error("Error during scheduler shutdown")
			}
			log.Info("Scheduler shut down")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run one prediction cycle immediately after starting")
	return cmd
}

// predictUpcoming reloads the input tables and predicts the next week with games.
// A cycle with no upcoming games is not an error.
func (a *app) predictUpcoming(ctx context.Context) error {
	if err := a.reload(ctx); err != nil {
		return err
	}
	now := time.Now().UTC()
	sw, ok := pipeline.UpcomingWeek(a.data.Games, now)
	if !ok {
		log.WithField("now", now.Format(time.RFC3339)).Info("No upcoming games to predict")
		return nil
	}
	res, err := a.predictWeek(ctx, sw, now, pipeline.TriggerSchedule, true)
	if err != nil {
		return err
	}
	if len(res.Failures) > 0 {
		log.WithFields(logrus.Fields{"week": sw.String(), "failed": len(res.Failures)}).Warn("Some games could not be predicted")
	}
	return nil
}
