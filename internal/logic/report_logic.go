package logic

import (
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/rollup"
	"gorm.io/gorm"
)

// ReportLogic combines live time rollups with budgets into the payloads
// the UI and reporting consumers read. Every number here is recomputed
// from persisted state on each call; nothing derived is stored.
type ReportLogic struct {
	db *gorm.DB
}

// NewReportLogic creates the report builder
func NewReportLogic(db *gorm.DB) *ReportLogic {
	return &ReportLogic{db: db}
}

// DeliverableReport is the per-deliverable breakdown
type DeliverableReport struct {
	Id              int64            `json:"id"`
	Title           string           `json:"title"`
	Status          model.WorkStatus `json:"status"`
	Progress        int              `json:"progress"`
	TrackedSeconds  int64            `json:"tracked_seconds"`
	TrackedHours    float64          `json:"tracked_hours"`
	DeclarableHours float64          `json:"declarable_hours"`
	Efficiency      float64          `json:"efficiency"`
	OverBudget      bool             `json:"over_budget"`
}

// PhaseReport is the per-phase breakdown
type PhaseReport struct {
	Id             int64               `json:"id"`
	Name           string              `json:"name"`
	Status         model.WorkStatus    `json:"status"`
	Progress       int                 `json:"progress"`
	TrackedSeconds int64               `json:"tracked_seconds"`
	TrackedHours   float64             `json:"tracked_hours"`
	Deliverables   []DeliverableReport `json:"deliverables"`
}

// ProjectReport is the full project rollup with budget projections
type ProjectReport struct {
	Id             int64               `json:"id"`
	Name           string              `json:"name"`
	Status         model.ProjectStatus `json:"status"`
	Progress       int                 `json:"progress"`
	TrackedSeconds int64               `json:"tracked_seconds"`
	TrackedHours   float64             `json:"tracked_hours"`
	BudgetedHours  float64             `json:"budgeted_hours"`
	Efficiency     float64             `json:"efficiency"`
	OverBudget     bool                `json:"over_budget"`
	BudgetedValue  float64             `json:"budgeted_value"`
	ActualValue    float64             `json:"actual_value"`
	Phases         []PhaseReport       `json:"phases"`
	Standalone     []DeliverableReport `json:"standalone_deliverables"`
}

// ProjectReport builds the full report for one project
func (r *ReportLogic) ProjectReport(projectId int64) (*ProjectReport, error) {
	snap, row, err := loadProjectSnapshot(r.db, projectId)
	if err != nil {
		return nil, err
	}

	totalSeconds := rollup.ProjectSeconds(snap)

	report := &ProjectReport{
		Id:             row.Id,
		Name:           row.Name,
		Status:         row.Status,
		Progress:       rollup.ProjectProgress(snap),
		TrackedSeconds: totalSeconds,
		TrackedHours:   rollup.Hours(totalSeconds),
		BudgetedHours:  row.BudgetedHours,
		Efficiency:     rollup.Efficiency(totalSeconds, row.BudgetedHours),
		OverBudget:     rollup.OverBudget(totalSeconds, row.BudgetedHours),
		BudgetedValue:  rollup.BudgetedValue(row.BudgetedHours, row.HourlyRate),
		ActualValue:    rollup.ActualValue(totalSeconds, row.HourlyRate),
	}

	// Titles and names come from the rows, the snapshot only carries ids
	phaseNames, deliverableTitles, err := r.names(projectId)
	if err != nil {
		return nil, err
	}

	for _, ph := range snap.Phases {
		phaseSeconds := rollup.PhaseSeconds(ph)
		phaseReport := PhaseReport{
			Id:             ph.Id,
			Name:           phaseNames[ph.Id],
			Status:         rollup.PhaseStatus(ph),
			Progress:       rollup.PhaseProgress(ph),
			TrackedSeconds: phaseSeconds,
			TrackedHours:   rollup.Hours(phaseSeconds),
		}
		for _, d := range ph.Deliverables {
			phaseReport.Deliverables = append(phaseReport.Deliverables, deliverableReport(d, deliverableTitles[d.Id]))
		}
		report.Phases = append(report.Phases, phaseReport)
	}

	for _, d := range snap.Standalone {
		report.Standalone = append(report.Standalone, deliverableReport(d, deliverableTitles[d.Id]))
	}

	return report, nil
}

// TargetSeconds returns the live time rollup for any level of the
// hierarchy, project included
func (r *ReportLogic) TargetSeconds(kind string, id int64) (int64, error) {
	switch kind {
	case "project":
		snap, _, err := loadProjectSnapshot(r.db, id)
		if err != nil {
			return 0, err
		}
		return rollup.ProjectSeconds(snap), nil
	case string(model.TargetPhase):
		snap, _, err := loadPhaseSnapshot(r.db, id)
		if err != nil {
			return 0, err
		}
		return rollup.PhaseSeconds(snap), nil
	case string(model.TargetDeliverable):
		snap, _, err := loadDeliverableSnapshot(r.db, id)
		if err != nil {
			return 0, err
		}
		return rollup.DeliverableSeconds(snap), nil
	case string(model.TargetTask):
		return r.taskSeconds(id)
	default:
		return 0, invalid("unknown entity kind: %s", kind)
	}
}

// taskSeconds is finalized timer time plus manual time for one task
func (r *ReportLogic) taskSeconds(taskId int64) (int64, error) {
	var task model.TaskModel
	if err := r.db.First(&task, taskId).Error; err != nil {
		return 0, invalid("task %d does not exist", taskId)
	}

	sums, err := taskTimerSums(r.db, []int64{taskId})
	if err != nil {
		return 0, err
	}
	return rollup.TaskSeconds(rollup.Task{
		TimerSeconds:  sums[taskId],
		ManualSeconds: task.ManualSeconds,
	}), nil
}

// names loads display names for the report
func (r *ReportLogic) names(projectId int64) (map[int64]string, map[int64]string, error) {
	var phases []model.PhaseModel
	if err := r.db.Select("id, name").Where("project_id = ?", projectId).Find(&phases).Error; err != nil {
		return nil, nil, err
	}
	var deliverables []model.DeliverableModel
	if err := r.db.Select("id, title").Where("project_id = ?", projectId).Find(&deliverables).Error; err != nil {
		return nil, nil, err
	}

	phaseNames := make(map[int64]string, len(phases))
	for _, p := range phases {
		phaseNames[p.Id] = p.Name
	}
	deliverableTitles := make(map[int64]string, len(deliverables))
	for _, d := range deliverables {
		deliverableTitles[d.Id] = d.Title
	}
	return phaseNames, deliverableTitles, nil
}

func deliverableReport(d rollup.Deliverable, title string) DeliverableReport {
	seconds := rollup.DeliverableSeconds(d)
	return DeliverableReport{
		Id:              d.Id,
		Title:           title,
		Status:          rollup.DeliverableStatus(d),
		Progress:        rollup.DeliverableProgress(d),
		TrackedSeconds:  seconds,
		TrackedHours:    rollup.Hours(seconds),
		DeclarableHours: d.DeclarableHours,
		Efficiency:      rollup.Efficiency(seconds, d.DeclarableHours),
		OverBudget:      rollup.OverBudget(seconds, d.DeclarableHours),
	}
}
