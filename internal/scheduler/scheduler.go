package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"mentorlink-backend/internal/jobs"
	"mentorlink-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	// Liveness backstop for dropped realtime transports
	_, err := s.cron.AddFunc(exprOrDefault(cfg.ReconcileCounts, "0 */5 * * * *"), s.jobs.ReconcileCounts)
	if err != nil {
		logger.Error("Failed to register ReconcileCounts job", "error", err)
	}

	// Nightly sweep of stale notification projections
	_, err = s.cron.AddFunc(exprOrDefault(cfg.SweepResolvedNotifications, "0 0 3 * * *"), s.jobs.SweepResolvedNotifications)
	if err != nil {
		logger.Error("Failed to register SweepResolvedNotifications job", "error", err)
	}

	// Recovery path for record writes that failed after acceptance
	_, err = s.cron.AddFunc(exprOrDefault(cfg.RetryPendingRelationships, "0 */10 * * * *"), s.jobs.RetryPendingRelationships)
	if err != nil {
		logger.Error("Failed to register RetryPendingRelationships job", "error", err)
	}

	logger.Info("All cron jobs registered successfully")
}

func exprOrDefault(expr, def string) string {
	if expr == "" {
		return def
	}
	return expr
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has registered jobs
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
