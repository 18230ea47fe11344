// Package scheduler periodically reloads the active season so new results are picked up.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sam-maryland/league-engine-mcp-server/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Reloader is anything that can re-read its data
type Reloader interface {
	Reload(ctx context.Context) error
}

// Scheduler runs Reload on a cron schedule
type Scheduler struct {
	spec    string
	target  Reloader
	logger  *logrus.Logger
	cron    *cron.Cron
	running sync.Mutex
}

// New creates a scheduler for the given standard five-field cron spec
func New(spec string, target Reloader, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		spec:   spec,
		target: target,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start registers the reload job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.WithError(err).Error("Scheduled reload failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reload: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("schedule", s.spec).Info("Season reload scheduled")
	return nil
}

// Stop stops the cron loop and waits for a running reload to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunOnce performs one reload. Overlapping runs are skipped.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.TryLock() {
		s.logger.Warn("Previous reload still running, skipping")
		return nil
	}
	defer s.running.Unlock()

	start := time.Now()
	err := s.target.Reload(ctx)
	metrics.RecordScheduledReload(err)
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}

	s.logger.WithField("duration", time.Since(start).String()).Info("Season reloaded")
	return nil
}
