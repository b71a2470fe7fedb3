package logic

import (
	"errors"
	"fmt"

	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"gorm.io/gorm"
)

// HierarchyLogic owns creation, lookup and deletion of the entity tree.
// Every child references its parent by id: task -> deliverable ->
// project, deliverable optionally -> phase, phase -> project.
type HierarchyLogic struct {
	db  *gorm.DB
	hub *notify.Hub
}

// NewHierarchyLogic creates the hierarchy manager
func NewHierarchyLogic(db *gorm.DB, hub *notify.Hub) *HierarchyLogic {
	return &HierarchyLogic{db: db, hub: hub}
}

// CreateProject validates and inserts a project
func (h *HierarchyLogic) CreateProject(project *model.ProjectModel) error {
	if project.Name == "" {
		return invalid("project name is required")
	}
	if project.BudgetedHours < 0 {
		return invalid("budgeted hours cannot be negative")
	}

	project.Status = model.ProjectStatusNew
	project.Progress = 0

	if err := h.db.Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	h.hub.Publish(notify.Event{Table: notify.TableProject, Action: notify.ActionCreated, Id: project.Id})
	return nil
}

// CreatePhase validates and inserts a phase under a project
func (h *HierarchyLogic) CreatePhase(phase *model.PhaseModel) error {
	if phase.Name == "" {
		return invalid("phase name is required")
	}
	if err := h.requireProject(phase.ProjectId); err != nil {
		return err
	}

	phase.Status = model.WorkStatusPending
	phase.Progress = 0
	phase.ManualSeconds = 0

	if err := h.db.Create(phase).Error; err != nil {
		return fmt.Errorf("failed to create phase: %w", err)
	}
	h.hub.Publish(notify.Event{Table: notify.TablePhase, Action: notify.ActionCreated, Id: phase.Id})
	return nil
}

// CreateDeliverable validates and inserts a deliverable; its phase, when
// set, must belong to the same project
func (h *HierarchyLogic) CreateDeliverable(deliverable *model.DeliverableModel) error {
	if deliverable.Title == "" {
		return invalid("deliverable title is required")
	}
	if deliverable.DeclarableHours < 0 {
		return invalid("declarable hours cannot be negative")
	}
	if err := h.requireProject(deliverable.ProjectId); err != nil {
		return err
	}
	if deliverable.PhaseId != nil {
		var phase model.PhaseModel
		err := h.db.First(&phase, *deliverable.PhaseId).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("phase %d does not exist", *deliverable.PhaseId)
		}
		if err != nil {
			return fmt.Errorf("failed to check phase: %w", err)
		}
		if phase.ProjectId != deliverable.ProjectId {
			return invalid("phase %d belongs to a different project", phase.Id)
		}
	}

	deliverable.Status = model.WorkStatusPending
	deliverable.Progress = 0
	deliverable.ManualSeconds = 0

	if err := h.db.Create(deliverable).Error; err != nil {
		return fmt.Errorf("failed to create deliverable: %w", err)
	}
	h.hub.Publish(notify.Event{Table: notify.TableDeliverable, Action: notify.ActionCreated, Id: deliverable.Id})
	return nil
}

// CreateTask validates and inserts a task under a deliverable
func (h *HierarchyLogic) CreateTask(task *model.TaskModel) error {
	if task.Title == "" {
		return invalid("task title is required")
	}
	var deliverable model.DeliverableModel
	err := h.db.First(&deliverable, task.DeliverableId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid("deliverable %d does not exist", task.DeliverableId)
	}
	if err != nil {
		return fmt.Errorf("failed to check deliverable: %w", err)
	}

	task.Completed = false
	task.CompletedAt = nil
	task.ManualSeconds = 0

	if err := h.db.Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	h.hub.Publish(notify.Event{Table: notify.TableTask, Action: notify.ActionCreated, Id: task.Id})
	return nil
}

// GetProject returns one project row
func (h *HierarchyLogic) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	err := h.db.First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("project %d does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}

// GetProjects returns all projects, newest first
func (h *HierarchyLogic) GetProjects() ([]model.ProjectModel, error) {
	var projects []model.ProjectModel
	if err := h.db.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// DeleteProject removes a project and its whole subtree, sessions and
// ledger rows included, in one transaction
func (h *HierarchyLogic) DeleteProject(id int64) error {
	if err := h.requireProject(id); err != nil {
		return err
	}

	tx := h.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var deliverableIds []int64
	if err := tx.Model(&model.DeliverableModel{}).Where("project_id = ?", id).
		Pluck("id", &deliverableIds).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to collect deliverables: %w", err)
	}

	var taskIds []int64
	if len(deliverableIds) > 0 {
		if err := tx.Model(&model.TaskModel{}).Where("deliverable_id IN ?", deliverableIds).
			Pluck("id", &taskIds).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to collect tasks: %w", err)
		}
	}

	var phaseIds []int64
	if err := tx.Model(&model.PhaseModel{}).Where("project_id = ?", id).
		Pluck("id", &phaseIds).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to collect phases: %w", err)
	}

	steps := []func() error{
		func() error { return deleteSessions(tx, taskIds, deliverableIds) },
		func() error { return deleteAdjustments(tx, model.TargetTask, taskIds) },
		func() error { return deleteAdjustments(tx, model.TargetDeliverable, deliverableIds) },
		func() error { return deleteAdjustments(tx, model.TargetPhase, phaseIds) },
		func() error {
			if len(taskIds) == 0 {
				return nil
			}
			return tx.Where("id IN ?", taskIds).Delete(&model.TaskModel{}).Error
		},
		func() error { return tx.Where("project_id = ?", id).Delete(&model.DeliverableModel{}).Error },
		func() error { return tx.Where("project_id = ?", id).Delete(&model.PhaseModel{}).Error },
		func() error { return tx.Delete(&model.ProjectModel{}, id).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to delete project subtree: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit project delete: %w", err)
	}

	h.hub.Publish(notify.Event{Table: notify.TableProject, Action: notify.ActionDeleted, Id: id})
	logger.Info("Deleted project %d with %d deliverables and %d tasks", id, len(deliverableIds), len(taskIds))
	return nil
}

// requireProject checks a project row exists
func (h *HierarchyLogic) requireProject(id int64) error {
	if id <= 0 {
		return invalid("project id is required")
	}
	err := h.db.First(&model.ProjectModel{}, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid("project %d does not exist", id)
	}
	if err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	return nil
}

func deleteSessions(tx *gorm.DB, taskIds, deliverableIds []int64) error {
	if len(taskIds) > 0 {
		if err := tx.Where("owner_kind = ? AND owner_id IN ?", model.TargetTask, taskIds).
			Delete(&model.TimerSessionModel{}).Error; err != nil {
			return err
		}
	}
	if len(deliverableIds) > 0 {
		if err := tx.Where("owner_kind = ? AND owner_id IN ?", model.TargetDeliverable, deliverableIds).
			Delete(&model.TimerSessionModel{}).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteAdjustments(tx *gorm.DB, kind model.TargetKind, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("target_kind = ? AND target_id IN ?", kind, ids).
		Delete(&model.TimeAdjustmentModel{}).Error
}
