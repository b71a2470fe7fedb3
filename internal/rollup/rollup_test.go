package rollup

import (
	"testing"
)

func TestTaskSeconds(t *testing.T) {
	got := TaskSeconds(Task{TimerSeconds: 300, ManualSeconds: 120})
	if got != 420 {
		t.Errorf("expected 420, got %d", got)
	}
}

func TestDeliverableSeconds_AddsOwnManualTime(t *testing.T) {
	d := Deliverable{
		ManualSeconds: 600,
		Tasks: []Task{
			{TimerSeconds: 100, ManualSeconds: 50},
			{TimerSeconds: 200},
		},
	}

	// Manual time on the deliverable is extra time on top of task
	// rollups, never a replacement
	if got := DeliverableSeconds(d); got != 950 {
		t.Errorf("expected 950, got %d", got)
	}
}

func TestDeliverableSeconds_UnattributedTimerTime(t *testing.T) {
	// A deliverable timed before it had any tasks keeps that time
	d := Deliverable{TimerSeconds: 400, ManualSeconds: 100}
	if got := DeliverableSeconds(d); got != 500 {
		t.Errorf("expected 500, got %d", got)
	}
}

func TestPhaseSeconds(t *testing.T) {
	p := Phase{
		ManualSeconds: 60,
		Deliverables: []Deliverable{
			{Tasks: []Task{{TimerSeconds: 100}}},
			{ManualSeconds: 40},
		},
	}
	if got := PhaseSeconds(p); got != 200 {
		t.Errorf("expected 200, got %d", got)
	}
}

func TestProjectSeconds_Additivity(t *testing.T) {
	project := Project{
		Phases: []Phase{
			{
				ManualSeconds: 30,
				Deliverables: []Deliverable{
					{Tasks: []Task{{TimerSeconds: 100, ManualSeconds: 20}, {TimerSeconds: 50}}},
				},
			},
			{
				Deliverables: []Deliverable{
					{ManualSeconds: 200},
				},
			},
		},
		Standalone: []Deliverable{
			{Tasks: []Task{{TimerSeconds: 500}}},
		},
	}

	var phaseTotal int64
	for _, ph := range project.Phases {
		phaseTotal += PhaseSeconds(ph)
	}
	var standaloneTotal int64
	for _, d := range project.Standalone {
		standaloneTotal += DeliverableSeconds(d)
	}

	got := ProjectSeconds(project)
	if got != phaseTotal+standaloneTotal {
		t.Errorf("project total %d does not equal phase sum %d + standalone sum %d",
			got, phaseTotal, standaloneTotal)
	}
	if got != 900 {
		t.Errorf("expected 900, got %d", got)
	}
}

func TestProjectSeconds_EmptyHierarchy(t *testing.T) {
	t.Run("empty project", func(t *testing.T) {
		if got := ProjectSeconds(Project{}); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("empty phases and deliverables", func(t *testing.T) {
		project := Project{
			Phases:     []Phase{{}, {Deliverables: []Deliverable{{}}}},
			Standalone: []Deliverable{{}},
		}
		if got := ProjectSeconds(project); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})
}

func TestHours(t *testing.T) {
	if got := Hours(5400); got != 1.5 {
		t.Errorf("expected 1.5, got %v", got)
	}
	if got := Hours(0); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}
