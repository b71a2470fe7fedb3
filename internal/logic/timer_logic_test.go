package logic

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blues/tts/internal/model"
	"gorm.io/gorm"
)

// testClock returns a timer logic whose clock the test controls
func testClock(l *TimerLogic, at *time.Time) {
	l.now = func() time.Time { return *at }
}

func TestTimerStartAndPause(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 2)

	tl := NewTimerLogic(db, nil)
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	testClock(tl, &clock)

	session, err := tl.Start(model.TaskTarget(tree.Tasks[0].Id))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !session.Active {
		t.Fatal("new session should be active")
	}
	if session.TaskId != tree.Tasks[0].Id {
		t.Errorf("task-owned session should carry its task id, got %d", session.TaskId)
	}

	clock = clock.Add(125 * time.Second)
	paused, err := tl.Pause(session.Id)
	if err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if paused.Active {
		t.Error("paused session should be inactive")
	}
	if paused.DurationSeconds != 125 {
		t.Errorf("expected 125 seconds, got %d", paused.DurationSeconds)
	}
	if paused.EndTime == nil || !paused.EndTime.Equal(clock) {
		t.Errorf("end time should equal finalize time, got %v", paused.EndTime)
	}
}

func TestTimerStartFinalizesRunningSession(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 2)

	tl := NewTimerLogic(db, nil)
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	testClock(tl, &clock)

	first, err := tl.Start(model.TaskTarget(tree.Tasks[0].Id))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	clock = clock.Add(60 * time.Second)
	second, err := tl.Start(model.TaskTarget(tree.Tasks[1].Id))
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	var reloaded model.TimerSessionModel
	if err := db.First(&reloaded, first.Id).Error; err != nil {
		t.Fatalf("failed to reload first session: %v", err)
	}
	if reloaded.Active {
		t.Error("first session should have been finalized by the second start")
	}
	if reloaded.DurationSeconds != 60 {
		t.Errorf("first session should hold exactly 60 seconds, got %d", reloaded.DurationSeconds)
	}
	if reloaded.EndTime == nil || !reloaded.EndTime.Equal(second.StartTime) {
		t.Error("old session must end exactly where the new one begins")
	}

	if got := countActiveSessions(t, db); got != 1 {
		t.Errorf("expected exactly one active session, got %d", got)
	}

	active, err := tl.Active()
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if active == nil || active.Id != second.Id {
		t.Errorf("active session should be the second one")
	}
}

func TestTimerSingleActiveAcrossRapidSwitching(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 3)

	tl := NewTimerLogic(db, nil)
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	testClock(tl, &clock)

	for i := 0; i < 6; i++ {
		if _, err := tl.Start(model.TaskTarget(tree.Tasks[i%3].Id)); err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
		clock = clock.Add(30 * time.Second)
		if got := countActiveSessions(t, db); got != 1 {
			t.Fatalf("after start %d expected one active session, got %d", i, got)
		}
	}
}

func TestTimerSecondActiveInsertRejectedBySchema(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 1)

	// Bypass the logic layer entirely; the partial unique index is the
	// last line of defense when two starts race from an idle state
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	first := model.TimerSessionModel{
		OwnerKind: model.TargetTask,
		OwnerId:   tree.Tasks[0].Id,
		TaskId:    tree.Tasks[0].Id,
		StartTime: start,
		Active:    true,
	}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	second := model.TimerSessionModel{
		OwnerKind: model.TargetTask,
		OwnerId:   tree.Tasks[0].Id,
		TaskId:    tree.Tasks[0].Id,
		StartTime: start,
		Active:    true,
	}
	err := db.Create(&second).Error
	if err == nil {
		t.Fatal("second active insert must violate the single-active index")
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("expected a duplicated key error, got %v", err)
	}

	// An inactive row is outside the partial index
	done := start.Add(time.Minute)
	third := model.TimerSessionModel{
		OwnerKind:       model.TargetTask,
		OwnerId:         tree.Tasks[0].Id,
		TaskId:          tree.Tasks[0].Id,
		StartTime:       start,
		EndTime:         &done,
		DurationSeconds: 60,
	}
	if err := db.Create(&third).Error; err != nil {
		t.Errorf("finalized rows must not collide: %v", err)
	}
}

func TestTimerConcurrentStartsFromIdle(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 2)

	tl := NewTimerLogic(db, nil)

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = tl.Start(model.TaskTarget(tree.Tasks[i].Id))
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("round %d: Start %d failed: %v", round, i, err)
			}
		}
		if got := countActiveSessions(t, db); got != 1 {
			t.Fatalf("round %d: expected one active session, got %d", round, got)
		}

		active, err := tl.Active()
		if err != nil || active == nil {
			t.Fatalf("round %d: Active failed: %v", round, err)
		}
		if _, err := tl.Stop(active.Id); err != nil {
			t.Fatalf("round %d: Stop failed: %v", round, err)
		}
	}
}

func TestTimerDurationWrittenOnce(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 1)

	tl := NewTimerLogic(db, nil)
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	testClock(tl, &clock)

	session, err := tl.Start(model.TaskTarget(tree.Tasks[0].Id))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	clock = clock.Add(90 * time.Second)
	if _, err := tl.Stop(session.Id); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	clock = clock.Add(1 * time.Hour)
	if _, err := tl.Stop(session.Id); err == nil {
		t.Fatal("finalizing a finalized session must fail")
	} else if !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}

	var reloaded model.TimerSessionModel
	if err := db.First(&reloaded, session.Id).Error; err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if reloaded.DurationSeconds != 90 {
		t.Errorf("duration must stay at 90, got %d", reloaded.DurationSeconds)
	}
}

func TestTimerDeliverableSessionAttribution(t *testing.T) {
	t.Run("attributed to oldest task", func(t *testing.T) {
		db := newTestDB(t)
		tree := seedTree(t, db, 3)

		tl := NewTimerLogic(db, nil)
		clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		testClock(tl, &clock)

		session, err := tl.Start(model.DeliverableTarget(tree.Deliverable.Id))
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if session.TaskId != 0 {
			t.Errorf("attribution happens at finalize, not start, got task %d", session.TaskId)
		}

		clock = clock.Add(300 * time.Second)
		stopped, err := tl.Stop(session.Id)
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if stopped.TaskId != tree.Tasks[0].Id {
			t.Errorf("expected attribution to oldest task %d, got %d", tree.Tasks[0].Id, stopped.TaskId)
		}
	})

	t.Run("no tasks keeps time on the deliverable", func(t *testing.T) {
		db := newTestDB(t)
		tree := seedTree(t, db, 0)

		tl := NewTimerLogic(db, nil)
		clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		testClock(tl, &clock)

		session, err := tl.Start(model.DeliverableTarget(tree.Deliverable.Id))
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		clock = clock.Add(120 * time.Second)
		stopped, err := tl.Stop(session.Id)
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if stopped.TaskId != 0 {
			t.Errorf("session should stay unattributed, got task %d", stopped.TaskId)
		}
		if stopped.DurationSeconds != 120 {
			t.Errorf("expected 120 seconds, got %d", stopped.DurationSeconds)
		}
	})
}

func TestTimerRejectsBadTargets(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 1)

	tl := NewTimerLogic(db, nil)

	if _, err := tl.Start(model.PhaseTarget(tree.Phase.Id)); err == nil {
		t.Error("timers on phases must be rejected")
	} else if !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}

	if _, err := tl.Start(model.TaskTarget(99999)); err == nil {
		t.Error("timer on a missing task must be rejected")
	} else if !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}

	if _, err := tl.Start(model.TimeTarget{Kind: "project", Id: 1}); err == nil {
		t.Error("unknown target kind must be rejected")
	}
}

func TestTimerActiveWhenIdle(t *testing.T) {
	db := newTestDB(t)
	seedTree(t, db, 1)

	tl := NewTimerLogic(db, nil)
	active, err := tl.Active()
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if active != nil {
		t.Errorf("expected no active session, got %d", active.Id)
	}
}
