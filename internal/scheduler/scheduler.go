// Package scheduler runs the weekly prediction cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/logger"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler manages the scheduled prediction cycle
type Scheduler struct {
	cron            *cron.Cron
	log             *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	lastRun         time.Time
	lastErr         error
}

// NewScheduler creates a new scheduler. Overlapping runs of a job are skipped.
func NewScheduler(log *logrus.Logger) *Scheduler {
	base := logger.OrDefault(log)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		log:             base.WithField("component", "scheduler"),
		jobTimeout:      4 * time.Hour,
		gracefulTimeout: 30 * time.Second,
	}
}

// Schedule registers job under a standard five-field cron expression.
func (s *Scheduler) Schedule(name, cronExpression string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.log.WithFields(logrus.Fields{"job": name, "cron": cronExpression}).Info("Scheduled job")
	return nil
}

// RunNow executes job synchronously and records it as the last run.
func (s *Scheduler) RunNow(name string, job Job) error {
	return s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	entry := s.log.WithField("job", name)
	entry.Info("Starting scheduled job")

	err := job(ctx)

	s.mu.Lock()
	s.lastRun = start
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		entry.WithError(err).Error("Scheduled job failed")
		return err
	}
	entry.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Scheduled job completed")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.log.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs up to the graceful timeout and stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		s.log.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	var next time.Time
	for _, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}

// LastRun returns the start time and error of the most recent run.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}
