package model

import (
	"time"
)

// TimerSessionModel is one timed interval attributed to a task or deliverable.
// At most one row has active=true across the whole system.
type TimerSessionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Owning entity, task or deliverable, never both
	OwnerKind TargetKind `json:"owner_kind" gorm:"not null;index:idx_session_owner"`
	OwnerId   int64      `json:"owner_id" gorm:"not null;index:idx_session_owner"`

	// Task the session rolls up under. Set at creation for task-owned
	// sessions; set at finalize for deliverable-owned sessions (attributed
	// to the oldest task under the deliverable). Zero when no task exists.
	TaskId int64 `json:"task_id" gorm:"index"`

	StartTime time.Time  `json:"start_time" gorm:"not null"`
	EndTime   *time.Time `json:"end_time"`

	// Written exactly once at finalize, immutable afterwards
	DurationSeconds int64 `json:"duration_seconds" gorm:"default:0"`

	Active bool `json:"active" gorm:"default:false;index"`
}

// Elapsed is the client-facing running counter. Display only; the
// persisted duration written at finalize is the authoritative value.
func (s *TimerSessionModel) Elapsed(now time.Time) time.Duration {
	if !s.Active {
		return time.Duration(s.DurationSeconds) * time.Second
	}
	return now.Sub(s.StartTime)
}

// TableName overrides the table name
func (TimerSessionModel) TableName() string {
	return "timer_session"
}
