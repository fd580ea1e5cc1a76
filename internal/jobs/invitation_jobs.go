package jobs

import (
	"context"
	"time"

	"mentorlink-backend/internal/logger"
)

const jobTimeout = 2 * time.Minute

// ReconcileCounts polls every active aggregator for a fresh reconciliation.
// Realtime transports may drop silently; this poll is the liveness
// guarantee the adapters deliberately do not make.
func (j *JobRunner) ReconcileCounts() {
	logger.EnterMethod("JobRunner.ReconcileCounts", "aggregators", j.registry.Len())
	j.registry.ReconcileAll()
	logger.ExitMethod("JobRunner.ReconcileCounts")
}

// SweepResolvedNotifications deletes notification rows whose backing
// invitation is terminal or gone. The accept/reject paths already delete
// their own projections best-effort; this sweep catches what they missed so
// a resolved invitation can never resurface in an aggregate recomputation.
func (j *JobRunner) SweepResolvedNotifications() {
	logger.EnterMethod("JobRunner.SweepResolvedNotifications")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	swept, err := j.noteRepo.DeleteResolved(ctx)
	if err != nil {
		logger.ExitMethodWithError("JobRunner.SweepResolvedNotifications", err)
		return
	}
	logger.ExitMethod("JobRunner.SweepResolvedNotifications", "swept", swept)
}

// RetryPendingRelationships re-attempts relationship and membership record
// writes that failed after an acceptance. Acceptance is never rolled back
// on a failed record write; this job is the recovery path.
func (j *JobRunner) RetryPendingRelationships() {
	logger.EnterMethod("JobRunner.RetryPendingRelationships")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	relWritten, err := j.relSvc.RetryPendingRecords(ctx)
	if err != nil {
		logger.Error("relationship record retry pass failed", "error", err)
	}
	colWritten, err := j.colSvc.RetryPendingRecords(ctx)
	if err != nil {
		logger.Error("membership record retry pass failed", "error", err)
	}
	logger.ExitMethod("JobRunner.RetryPendingRelationships", "relationships", relWritten, "memberships", colWritten)
}
