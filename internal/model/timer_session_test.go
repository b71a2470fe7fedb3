package model

import (
	"testing"
	"time"
)

func TestSessionElapsed(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	running := TimerSessionModel{StartTime: start, Active: true}
	if got := running.Elapsed(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("expected 90s, got %v", got)
	}

	// A finalized session reports its persisted duration, not wall time
	done := TimerSessionModel{StartTime: start, DurationSeconds: 125}
	if got := done.Elapsed(start.Add(10 * time.Hour)); got != 125*time.Second {
		t.Errorf("expected 125s, got %v", got)
	}
}
