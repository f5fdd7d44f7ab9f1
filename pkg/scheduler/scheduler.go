// Package scheduler runs the periodic background jobs of the listing API.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// SizeRefresher recomputes cached bucket sizes.
type SizeRefresher interface {
	RefreshSizes(ctx context.Context) error
}

// Scheduler manages background jobs for bucket size computation
type Scheduler struct {
	cron      *cron.Cron
	refresher SizeRefresher
	schedule  string
	log       *slog.Logger
}

// NewScheduler creates a new scheduler instance. schedule is a cron
// expression or descriptor such as "@every 15m".
func NewScheduler(schedule string, refresher SizeRefresher) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		schedule:  schedule,
		log:       slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger for the scheduler
func (s *Scheduler) SetLogger(log *slog.Logger) {
	s.log = log
}

// Start runs a first refresh in the background and schedules the next ones.
func (s *Scheduler) Start(ctx context.Context) error {
	job := func() {
		s.log.Info("Starting bucket size refresh")
		if err := s.refresher.RefreshSizes(ctx); err != nil {
			s.log.Error("Bucket size refresh failed", slog.String("error", err.Error()))
			return
		}
		s.log.Info("Bucket size refresh completed successfully")
	}

	if _, err := s.cron.AddFunc(s.schedule, job); err != nil {
		return fmt.Errorf("invalid size schedule %q: %w", s.schedule, err)
	}

	s.log.Info("Starting scheduler", slog.String("schedule", s.schedule))
	s.cron.Start()
	go job()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}
