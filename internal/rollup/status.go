package rollup

import (
	"math"

	"github.com/blues/tts/internal/model"
)

// DeliverableStatus derives the three-way status from leaf tasks.
// Completed requires every task done and at least one task; a deliverable
// with no completed tasks but logged time still counts as started.
func DeliverableStatus(d Deliverable) model.WorkStatus {
	total := len(d.Tasks)
	done := 0
	for _, t := range d.Tasks {
		if t.Completed {
			done++
		}
	}

	switch {
	case total > 0 && done == total:
		return model.WorkStatusCompleted
	case done > 0:
		return model.WorkStatusInProgress
	case DeliverableSeconds(d) > 0:
		return model.WorkStatusInProgress
	default:
		return model.WorkStatusPending
	}
}

// PhaseStatus applies the same three-way rule over deliverable statuses
func PhaseStatus(p Phase) model.WorkStatus {
	if len(p.Deliverables) == 0 {
		return model.WorkStatusPending
	}

	completed := 0
	started := 0
	for _, d := range p.Deliverables {
		switch DeliverableStatus(d) {
		case model.WorkStatusCompleted:
			completed++
			started++
		case model.WorkStatusInProgress:
			started++
		}
	}

	switch {
	case completed == len(p.Deliverables):
		return model.WorkStatusCompleted
	case started > 0:
		return model.WorkStatusInProgress
	default:
		return model.WorkStatusPending
	}
}

// taskCounts walks a deliverable and returns (completed, total)
func taskCounts(d Deliverable) (int, int) {
	done := 0
	for _, t := range d.Tasks {
		if t.Completed {
			done++
		}
	}
	return done, len(d.Tasks)
}

// percent rounds completed/total to a whole percentage, 0 when empty
func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// DeliverableProgress is completed tasks over total tasks
func DeliverableProgress(d Deliverable) int {
	return percent(taskCounts(d))
}

// PhaseProgress weights by underlying task counts, not by averaging child
// percentages, so a one-task deliverable cannot outweigh a twenty-task one
func PhaseProgress(p Phase) int {
	done, total := 0, 0
	for _, d := range p.Deliverables {
		dd, dt := taskCounts(d)
		done += dd
		total += dt
	}
	return percent(done, total)
}

// ProjectProgress applies the same task-count weighting across the whole
// subtree, phases and standalone deliverables alike
func ProjectProgress(p Project) int {
	done, total := 0, 0
	for _, ph := range p.Phases {
		for _, d := range ph.Deliverables {
			dd, dt := taskCounts(d)
			done += dd
			total += dt
		}
	}
	for _, d := range p.Standalone {
		dd, dt := taskCounts(d)
		done += dd
		total += dt
	}
	return percent(done, total)
}

// StatusPolicy maps overall progress to an automatic project status.
// Thresholds come from config, they are policy, not business law.
type StatusPolicy struct {
	// ReviewThreshold is the progress percentage at which a project moves
	// to review. 100 always means completed.
	ReviewThreshold int
}

// DefaultStatusPolicy mirrors the config defaults
func DefaultStatusPolicy() StatusPolicy {
	return StatusPolicy{ReviewThreshold: 90}
}

// rank orders the automatic statuses; on_hold sits outside the ladder
func rank(s model.ProjectStatus) int {
	switch s {
	case model.ProjectStatusNew:
		return 0
	case model.ProjectStatusInProgress:
		return 1
	case model.ProjectStatusReview:
		return 2
	case model.ProjectStatusCompleted:
		return 3
	default:
		return -1
	}
}

// Apply advances the project status when progress crosses a threshold.
// A manually held project is never touched. The only demotion is dropping
// out of completed/review when progress falls back under the threshold.
func (p StatusPolicy) Apply(current model.ProjectStatus, progress int) model.ProjectStatus {
	if current == model.ProjectStatusOnHold {
		return current
	}

	var target model.ProjectStatus
	switch {
	case progress >= 100:
		target = model.ProjectStatusCompleted
	case progress >= p.ReviewThreshold:
		target = model.ProjectStatusReview
	case progress > 0:
		target = model.ProjectStatusInProgress
	default:
		target = model.ProjectStatusNew
	}

	if rank(target) > rank(current) {
		return target
	}
	// Un-completing work pulls completed/review projects back down,
	// but never below in_progress once anything was started
	if rank(current) >= rank(model.ProjectStatusReview) && rank(target) < rank(current) {
		if target == model.ProjectStatusNew {
			return model.ProjectStatusInProgress
		}
		return target
	}
	return current
}
