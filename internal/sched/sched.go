// Package sched runs the pipeline on a recurring schedule.
package sched

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/logging"
)

// Scheduler triggers the given run function on a cron expression.
type Scheduler struct {
	cron *cron.Cron
	run  func(ctx context.Context)
}

// New builds a scheduler. Returns nil when scheduling is disabled.
func New(cfg config.ScheduleConfig, run func(ctx context.Context)) (*Scheduler, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	s := &Scheduler{
		cron: cron.New(),
		run:  run,
	}

	_, err := s.cron.AddFunc(cfg.Cron, func() {
		logging.Info("Scheduled pipeline run triggered", "cron", cfg.Cron)
		s.run(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Cron, err)
	}
	return s, nil
}

// Start begins the schedule. Safe to call on a nil scheduler.
func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	logging.Info("Scheduler started")
}

// Stop halts the schedule and waits for a running trigger to finish.
// Safe to call on a nil scheduler.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	<-s.cron.Stop().Done()
	logging.Info("Scheduler stopped")
}
