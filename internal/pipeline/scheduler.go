package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ChannelDigest/internal/ports"
)

// Scheduler wires the cron-like driver with the pipeline coordinator.
type Scheduler struct {
	driver      ports.Scheduler
	coordinator *Coordinator
	logger      *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, coordinator *Coordinator, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, coordinator: coordinator, logger: log}
}

// Start registers the coordinator with the provided scheduler. A failed run
// is logged and left to the next scheduled invocation; collection is
// idempotent and the store carries the resumable state.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil {
		return errors.New("scheduler: no driver configured")
	}
	if s.coordinator == nil {
		return errors.New("scheduler: no coordinator configured")
	}

	job := func(trigger time.Time) {
		report, err := s.coordinator.Run(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("pipeline run failed", "execution_id", report.ExecutionID, "error", err)
			}
			return
		}
		if s.logger != nil {
			s.logger.Info("scheduled run complete", "execution_id", report.ExecutionID, "status", report.Status, "triggered_at", trigger.UTC().Format(time.RFC3339))
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
