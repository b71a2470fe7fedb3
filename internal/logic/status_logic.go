package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"github.com/blues/tts/internal/rollup"
	"gorm.io/gorm"
)

// StatusLogic derives deliverable, phase and project status bottom-up from
// leaf task completion, and keeps the cached progress columns current.
// Completion changes drive status; time changes only matter for the
// "nothing done but time logged" case.
type StatusLogic struct {
	db     *gorm.DB
	hub    *notify.Hub
	policy rollup.StatusPolicy
	now    func() time.Time
}

// NewStatusLogic creates the cascade engine
func NewStatusLogic(db *gorm.DB, hub *notify.Hub, policy rollup.StatusPolicy) *StatusLogic {
	return &StatusLogic{db: db, hub: hub, policy: policy, now: time.Now}
}

// ToggleTaskCompletion flips a task's completed flag and cascades the
// change up through deliverable, phase and project.
func (s *StatusLogic) ToggleTaskCompletion(taskId int64, completed bool) (*model.TaskModel, error) {
	var task model.TaskModel
	err := s.db.First(&task, taskId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("task %d does not exist", taskId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	if task.Completed == completed {
		return &task, nil
	}

	updates := map[string]interface{}{
		"completed":    completed,
		"completed_at": nil,
	}
	var completedAt *time.Time
	if completed {
		now := s.now()
		completedAt = &now
		updates["completed_at"] = now
	}

	if err := s.db.Model(&task).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	task.Completed = completed
	task.CompletedAt = completedAt

	s.hub.Publish(notify.Event{Table: notify.TableTask, Action: notify.ActionUpdated, Id: task.Id})

	if err := s.RecalculateDeliverable(task.DeliverableId); err != nil {
		return nil, err
	}

	return &task, nil
}

// RecalculateDeliverable re-derives one deliverable's status and progress,
// then walks up to its phase and project
func (s *StatusLogic) RecalculateDeliverable(deliverableId int64) error {
	snap, row, err := loadDeliverableSnapshot(s.db, deliverableId)
	if err != nil {
		return err
	}

	status := rollup.DeliverableStatus(snap)
	progress := rollup.DeliverableProgress(snap)

	if status != row.Status || progress != row.Progress {
		err := s.db.Model(row).Updates(map[string]interface{}{
			"status":   status,
			"progress": progress,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update deliverable status: %w", err)
		}
		logger.Info("Deliverable %d now %s at %d%%", row.Id, status, progress)
		s.hub.Publish(notify.Event{Table: notify.TableDeliverable, Action: notify.ActionUpdated, Id: row.Id})
	}

	if row.PhaseId != nil {
		if err := s.recalculatePhase(*row.PhaseId); err != nil {
			return err
		}
	}
	return s.RecalculateProject(row.ProjectId)
}

// recalculatePhase re-derives one phase's status and progress
func (s *StatusLogic) recalculatePhase(phaseId int64) error {
	snap, row, err := loadPhaseSnapshot(s.db, phaseId)
	if err != nil {
		return err
	}

	status := rollup.PhaseStatus(snap)
	progress := rollup.PhaseProgress(snap)

	if status == row.Status && progress == row.Progress {
		return nil
	}

	err = s.db.Model(row).Updates(map[string]interface{}{
		"status":   status,
		"progress": progress,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update phase status: %w", err)
	}
	logger.Info("Phase %d now %s at %d%%", row.Id, status, progress)
	s.hub.Publish(notify.Event{Table: notify.TablePhase, Action: notify.ActionUpdated, Id: row.Id})
	return nil
}

// RecalculateProject re-derives project progress and applies the
// auto-status policy
func (s *StatusLogic) RecalculateProject(projectId int64) error {
	snap, row, err := loadProjectSnapshot(s.db, projectId)
	if err != nil {
		return err
	}

	progress := rollup.ProjectProgress(snap)
	status := s.policy.Apply(row.Status, progress)

	if status == row.Status && progress == row.Progress {
		return nil
	}

	err = s.db.Model(row).Updates(map[string]interface{}{
		"status":   status,
		"progress": progress,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	logger.Info("Project %d now %s at %d%%", row.Id, status, progress)
	s.hub.Publish(notify.Event{Table: notify.TableProject, Action: notify.ActionUpdated, Id: row.Id})
	return nil
}

// RecalculateForTarget maps a time change to the right cascade entry
// point. Task and deliverable time feed the deliverable rule; phase time
// only affects phase and project rollups.
func (s *StatusLogic) RecalculateForTarget(target model.TimeTarget) error {
	switch target.Kind {
	case model.TargetTask:
		var task model.TaskModel
		if err := s.db.First(&task, target.Id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // row deleted since the event fired
			}
			return fmt.Errorf("failed to load task: %w", err)
		}
		return s.RecalculateDeliverable(task.DeliverableId)
	case model.TargetDeliverable:
		return s.RecalculateDeliverable(target.Id)
	case model.TargetPhase:
		var phase model.PhaseModel
		if err := s.db.First(&phase, target.Id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load phase: %w", err)
		}
		if err := s.recalculatePhase(phase.Id); err != nil {
			return err
		}
		return s.RecalculateProject(phase.ProjectId)
	default:
		return invalid("unknown target kind: %s", target.Kind)
	}
}
