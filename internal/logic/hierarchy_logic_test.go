package logic

import (
	"testing"

	"github.com/blues/tts/internal/model"
)

func TestCreateHierarchyValidation(t *testing.T) {
	db := newTestDB(t)
	hl := NewHierarchyLogic(db, nil)

	if err := hl.CreateProject(&model.ProjectModel{}); err == nil {
		t.Error("nameless project must be rejected")
	}
	if err := hl.CreateProject(&model.ProjectModel{Name: "X", BudgetedHours: -1}); err == nil {
		t.Error("negative budget must be rejected")
	}

	project := model.ProjectModel{Name: "Mobile App", Status: model.ProjectStatusCompleted, Progress: 80}
	if err := hl.CreateProject(&project); err != nil {
		t.Fatalf("create project failed: %v", err)
	}
	// Derived fields are server-owned, client values are discarded
	if project.Status != model.ProjectStatusNew || project.Progress != 0 {
		t.Errorf("new project must start at new/0, got %s/%d", project.Status, project.Progress)
	}

	if err := hl.CreatePhase(&model.PhaseModel{ProjectId: 99999, Name: "Nope"}); err == nil {
		t.Error("phase under a missing project must be rejected")
	} else if !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}

	phase := model.PhaseModel{ProjectId: project.Id, Name: "Discovery"}
	if err := hl.CreatePhase(&phase); err != nil {
		t.Fatalf("create phase failed: %v", err)
	}

	if err := hl.CreateTask(&model.TaskModel{DeliverableId: 99999, Title: "Orphan"}); err == nil {
		t.Error("task under a missing deliverable must be rejected")
	}
}

func TestCreateDeliverablePhaseMustMatchProject(t *testing.T) {
	db := newTestDB(t)
	hl := NewHierarchyLogic(db, nil)

	first := model.ProjectModel{Name: "First"}
	second := model.ProjectModel{Name: "Second"}
	if err := hl.CreateProject(&first); err != nil {
		t.Fatalf("create project failed: %v", err)
	}
	if err := hl.CreateProject(&second); err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	phase := model.PhaseModel{ProjectId: first.Id, Name: "Build"}
	if err := hl.CreatePhase(&phase); err != nil {
		t.Fatalf("create phase failed: %v", err)
	}

	wrong := model.DeliverableModel{ProjectId: second.Id, PhaseId: &phase.Id, Title: "Crossed"}
	if err := hl.CreateDeliverable(&wrong); err == nil {
		t.Error("deliverable whose phase belongs to another project must be rejected")
	} else if !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}

	right := model.DeliverableModel{ProjectId: first.Id, PhaseId: &phase.Id, Title: "Aligned"}
	if err := hl.CreateDeliverable(&right); err != nil {
		t.Errorf("valid deliverable rejected: %v", err)
	}

	standalone := model.DeliverableModel{ProjectId: first.Id, Title: "No phase"}
	if err := hl.CreateDeliverable(&standalone); err != nil {
		t.Errorf("standalone deliverable rejected: %v", err)
	}
}

func TestDeleteProjectRemovesSubtree(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 2)

	// Attach time records everywhere so the delete has to reach them all
	ll := NewLedgerLogic(db, nil)
	if _, err := ll.ApplyAdjustment(model.TaskTarget(tree.Tasks[0].Id), 600, ""); err != nil {
		t.Fatalf("adjustment failed: %v", err)
	}
	if _, err := ll.ApplyAdjustment(model.PhaseTarget(tree.Phase.Id), 600, ""); err != nil {
		t.Fatalf("adjustment failed: %v", err)
	}
	tl := NewTimerLogic(db, nil)
	session, err := tl.Start(model.TaskTarget(tree.Tasks[1].Id))
	if err != nil {
		t.Fatalf("timer start failed: %v", err)
	}
	if _, err := tl.Stop(session.Id); err != nil {
		t.Fatalf("timer stop failed: %v", err)
	}

	hl := NewHierarchyLogic(db, nil)
	if err := hl.DeleteProject(tree.Project.Id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	counts := map[string]interface{}{
		"project":         &model.ProjectModel{},
		"phase":           &model.PhaseModel{},
		"deliverable":     &model.DeliverableModel{},
		"task":            &model.TaskModel{},
		"timer_session":   &model.TimerSessionModel{},
		"time_adjustment": &model.TimeAdjustmentModel{},
	}
	for table, mdl := range counts {
		var n int64
		if err := db.Model(mdl).Count(&n).Error; err != nil {
			t.Fatalf("count %s failed: %v", table, err)
		}
		if n != 0 {
			t.Errorf("expected empty %s table after delete, found %d rows", table, n)
		}
	}

	if err := hl.DeleteProject(tree.Project.Id); err == nil {
		t.Error("deleting a missing project must fail")
	} else if !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestGetProjects(t *testing.T) {
	db := newTestDB(t)
	hl := NewHierarchyLogic(db, nil)

	for _, name := range []string{"One", "Two"} {
		if err := hl.CreateProject(&model.ProjectModel{Name: name}); err != nil {
			t.Fatalf("create project failed: %v", err)
		}
	}

	projects, err := hl.GetProjects()
	if err != nil {
		t.Fatalf("GetProjects failed: %v", err)
	}
	if len(projects) != 2 {
		t.Errorf("expected 2 projects, got %d", len(projects))
	}

	if _, err := hl.GetProject(99999); err == nil {
		t.Error("missing project lookup must fail")
	} else if !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}
