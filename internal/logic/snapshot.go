package logic

import (
	"errors"
	"fmt"

	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/rollup"
	"gorm.io/gorm"
)

// Snapshot loading: the aggregator and the status cascade are pure
// functions over already-fetched state, so everything below only reads.

// taskTimerSums returns finalized session seconds grouped by task id
func taskTimerSums(db *gorm.DB, taskIds []int64) (map[int64]int64, error) {
	sums := make(map[int64]int64)
	if len(taskIds) == 0 {
		return sums, nil
	}

	var rows []struct {
		TaskId int64
		Total  int64
	}
	err := db.Model(&model.TimerSessionModel{}).
		Select("task_id, COALESCE(SUM(duration_seconds), 0) as total").
		Where("active = ? AND task_id IN ?", false, taskIds).
		Group("task_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum timer sessions: %w", err)
	}

	for _, r := range rows {
		sums[r.TaskId] = r.Total
	}
	return sums, nil
}

// orphanTimerSums returns finalized deliverable-owned session seconds that
// were never attributed to a task (the deliverable had none), grouped by
// deliverable id
func orphanTimerSums(db *gorm.DB, deliverableIds []int64) (map[int64]int64, error) {
	sums := make(map[int64]int64)
	if len(deliverableIds) == 0 {
		return sums, nil
	}

	var rows []struct {
		OwnerId int64
		Total   int64
	}
	err := db.Model(&model.TimerSessionModel{}).
		Select("owner_id, COALESCE(SUM(duration_seconds), 0) as total").
		Where("active = ? AND owner_kind = ? AND task_id = 0 AND owner_id IN ?",
			false, model.TargetDeliverable, deliverableIds).
		Group("owner_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum unattributed sessions: %w", err)
	}

	for _, r := range rows {
		sums[r.OwnerId] = r.Total
	}
	return sums, nil
}

// buildDeliverables assembles rollup snapshots for a set of deliverable rows
func buildDeliverables(db *gorm.DB, deliverables []model.DeliverableModel) ([]rollup.Deliverable, error) {
	if len(deliverables) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(deliverables))
	for _, d := range deliverables {
		ids = append(ids, d.Id)
	}

	var tasks []model.TaskModel
	if err := db.Where("deliverable_id IN ?", ids).Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	taskIds := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		taskIds = append(taskIds, t.Id)
	}

	timerSums, err := taskTimerSums(db, taskIds)
	if err != nil {
		return nil, err
	}
	orphanSums, err := orphanTimerSums(db, ids)
	if err != nil {
		return nil, err
	}

	byDeliverable := make(map[int64][]rollup.Task)
	for _, t := range tasks {
		byDeliverable[t.DeliverableId] = append(byDeliverable[t.DeliverableId], rollup.Task{
			Id:            t.Id,
			Completed:     t.Completed,
			TimerSeconds:  timerSums[t.Id],
			ManualSeconds: t.ManualSeconds,
		})
	}

	out := make([]rollup.Deliverable, 0, len(deliverables))
	for _, d := range deliverables {
		out = append(out, rollup.Deliverable{
			Id:              d.Id,
			DeclarableHours: d.DeclarableHours,
			ManualSeconds:   d.ManualSeconds,
			TimerSeconds:    orphanSums[d.Id],
			Tasks:           byDeliverable[d.Id],
		})
	}
	return out, nil
}

// loadDeliverableSnapshot loads one deliverable with its tasks
func loadDeliverableSnapshot(db *gorm.DB, deliverableId int64) (rollup.Deliverable, *model.DeliverableModel, error) {
	var row model.DeliverableModel
	if err := db.First(&row, deliverableId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rollup.Deliverable{}, nil, invalid("deliverable %d does not exist", deliverableId)
		}
		return rollup.Deliverable{}, nil, fmt.Errorf("failed to load deliverable: %w", err)
	}

	snaps, err := buildDeliverables(db, []model.DeliverableModel{row})
	if err != nil {
		return rollup.Deliverable{}, nil, err
	}
	return snaps[0], &row, nil
}

// loadPhaseSnapshot loads one phase with its deliverables
func loadPhaseSnapshot(db *gorm.DB, phaseId int64) (rollup.Phase, *model.PhaseModel, error) {
	var row model.PhaseModel
	if err := db.First(&row, phaseId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rollup.Phase{}, nil, invalid("phase %d does not exist", phaseId)
		}
		return rollup.Phase{}, nil, fmt.Errorf("failed to load phase: %w", err)
	}

	var deliverables []model.DeliverableModel
	if err := db.Where("phase_id = ?", phaseId).Find(&deliverables).Error; err != nil {
		return rollup.Phase{}, nil, fmt.Errorf("failed to load deliverables: %w", err)
	}

	snaps, err := buildDeliverables(db, deliverables)
	if err != nil {
		return rollup.Phase{}, nil, err
	}

	return rollup.Phase{
		Id:            row.Id,
		ManualSeconds: row.ManualSeconds,
		Deliverables:  snaps,
	}, &row, nil
}

// loadProjectSnapshot loads a full project subtree
func loadProjectSnapshot(db *gorm.DB, projectId int64) (rollup.Project, *model.ProjectModel, error) {
	var row model.ProjectModel
	if err := db.First(&row, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rollup.Project{}, nil, invalid("project %d does not exist", projectId)
		}
		return rollup.Project{}, nil, fmt.Errorf("failed to load project: %w", err)
	}

	var phases []model.PhaseModel
	if err := db.Where("project_id = ?", projectId).Order("created_at ASC, id ASC").Find(&phases).Error; err != nil {
		return rollup.Project{}, nil, fmt.Errorf("failed to load phases: %w", err)
	}

	var deliverables []model.DeliverableModel
	if err := db.Where("project_id = ?", projectId).Order("created_at ASC, id ASC").Find(&deliverables).Error; err != nil {
		return rollup.Project{}, nil, fmt.Errorf("failed to load deliverables: %w", err)
	}

	snaps, err := buildDeliverables(db, deliverables)
	if err != nil {
		return rollup.Project{}, nil, err
	}
	snapById := make(map[int64]rollup.Deliverable, len(snaps))
	for _, s := range snaps {
		snapById[s.Id] = s
	}

	project := rollup.Project{
		Id:            row.Id,
		BudgetedHours: row.BudgetedHours,
		HourlyRate:    row.HourlyRate,
	}

	grouped := make(map[int64][]rollup.Deliverable)
	for _, d := range deliverables {
		if d.PhaseId == nil {
			project.Standalone = append(project.Standalone, snapById[d.Id])
			continue
		}
		grouped[*d.PhaseId] = append(grouped[*d.PhaseId], snapById[d.Id])
	}

	for _, p := range phases {
		project.Phases = append(project.Phases, rollup.Phase{
			Id:            p.Id,
			ManualSeconds: p.ManualSeconds,
			Deliverables:  grouped[p.Id],
		})
	}

	return project, &row, nil
}
