package scheduler

import (
	"time"

	"github.com/blues/tts/internal/config"
	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/logic"
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"github.com/blues/tts/internal/rollup"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StatusAuditJob re-derives every deliverable, phase and project status
// from scratch. Change-feed events are delivered best effort; a
// subscriber with a full buffer drops them, so this pass is the backstop
// that repairs any status a dropped event left stale.
type StatusAuditJob struct {
	db     *gorm.DB
	hub    *notify.Hub
	config *config.Config
}

// NewStatusAuditJob creates the audit
func NewStatusAuditJob(db *gorm.DB, hub *notify.Hub, cfg *config.Config) *StatusAuditJob {
	return &StatusAuditJob{db: db, hub: hub, config: cfg}
}

// GetName job name
func (j *StatusAuditJob) GetName() string {
	return "status_auditor"
}

// GetSchedule schedule config
func (j *StatusAuditJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.StatusAuditInterval) * time.Second)
}

// Execute walks every deliverable through the normal cascade, then every
// project directly so projects without deliverables are covered too
func (j *StatusAuditJob) Execute() {
	policy := rollup.StatusPolicy{ReviewThreshold: j.config.Status.ReviewThreshold}
	status := logic.NewStatusLogic(j.db, j.hub, policy)

	failed := 0

	var deliverableIds []int64
	if err := j.db.Model(&model.DeliverableModel{}).Pluck("id", &deliverableIds).Error; err != nil {
		logger.Error("Status audit failed to list deliverables: %v", err)
		return
	}
	for _, id := range deliverableIds {
		if err := status.RecalculateDeliverable(id); err != nil {
			logger.Error("Status audit failed on deliverable %d: %v", id, err)
			failed++
		}
	}

	var projectIds []int64
	if err := j.db.Model(&model.ProjectModel{}).Pluck("id", &projectIds).Error; err != nil {
		logger.Error("Status audit failed to list projects: %v", err)
		return
	}
	for _, id := range projectIds {
		if err := status.RecalculateProject(id); err != nil {
			logger.Error("Status audit failed on project %d: %v", id, err)
			failed++
		}
	}

	if failed > 0 {
		logger.Error("Status audit finished with %d failures", failed)
	} else {
		logger.Debug("Status audit recomputed %d deliverables and %d projects",
			len(deliverableIds), len(projectIds))
	}
}
