package jobs

import (
	"mentorlink-backend/internal/aggregator"
	"mentorlink-backend/internal/config"
	"mentorlink-backend/internal/repository"
	"mentorlink-backend/internal/service"
)

// JobRunner holds the dependencies the scheduled jobs need.
type JobRunner struct {
	cfg      *config.Config
	registry *aggregator.Registry
	noteRepo repository.NotificationRepository
	relSvc   service.InvitationService
	colSvc   service.InvitationService
}

func NewJobRunner(
	cfg *config.Config,
	registry *aggregator.Registry,
	noteRepo repository.NotificationRepository,
	relSvc, colSvc service.InvitationService,
) *JobRunner {
	return &JobRunner{
		cfg:      cfg,
		registry: registry,
		noteRepo: noteRepo,
		relSvc:   relSvc,
		colSvc:   colSvc,
	}
}

// Config exposes the loaded configuration to the scheduler.
func (j *JobRunner) Config() *config.Config {
	return j.cfg
}
