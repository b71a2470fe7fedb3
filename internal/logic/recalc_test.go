package logic

import (
	"testing"
	"time"

	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"github.com/blues/tts/internal/rollup"
	"gorm.io/gorm"
)

// eventually polls until the condition holds or the deadline passes
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func deliverableStatus(t *testing.T, db *gorm.DB, id int64) model.WorkStatus {
	t.Helper()

	var row model.DeliverableModel
	if err := db.First(&row, id).Error; err != nil {
		t.Fatalf("failed to reload deliverable: %v", err)
	}
	return row.Status
}

func TestRecalculatorReactsToAdjustments(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 0)

	hub, err := notify.NewHub(4, 16)
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}
	defer hub.Close()

	sl := NewStatusLogic(db, hub, rollup.DefaultStatusPolicy())
	rc := NewRecalculator(db, hub, sl)
	rc.Start()
	defer rc.Stop()

	ll := NewLedgerLogic(db, hub)
	if _, err := ll.ApplyAdjustment(model.DeliverableTarget(tree.Deliverable.Id), 600, ""); err != nil {
		t.Fatalf("adjustment failed: %v", err)
	}

	eventually(t, "deliverable to start", func() bool {
		return deliverableStatus(t, db, tree.Deliverable.Id) == model.WorkStatusInProgress
	})
}

func TestRecalculatorReactsToFinalizedSessions(t *testing.T) {
	db := newTestDB(t)
	tree := seedTree(t, db, 0)

	hub, err := notify.NewHub(4, 16)
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}
	defer hub.Close()

	sl := NewStatusLogic(db, hub, rollup.DefaultStatusPolicy())
	rc := NewRecalculator(db, hub, sl)
	rc.Start()
	defer rc.Stop()

	tl := NewTimerLogic(db, hub)
	clock := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	testClock(tl, &clock)

	session, err := tl.Start(model.DeliverableTarget(tree.Deliverable.Id))
	if err != nil {
		t.Fatalf("timer start failed: %v", err)
	}

	// The start event announces an active session; nothing to derive yet
	time.Sleep(50 * time.Millisecond)
	if got := deliverableStatus(t, db, tree.Deliverable.Id); got != model.WorkStatusPending {
		t.Errorf("running session must not change status, got %s", got)
	}

	clock = clock.Add(10 * time.Minute)
	if _, err := tl.Stop(session.Id); err != nil {
		t.Fatalf("timer stop failed: %v", err)
	}

	eventually(t, "deliverable to start", func() bool {
		return deliverableStatus(t, db, tree.Deliverable.Id) == model.WorkStatusInProgress
	})
}
