package model

import (
	"time"
)

// PhaseModel groups deliverables inside a project
type PhaseModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId int64  `json:"project_id" gorm:"not null;index" binding:"required"`
	Name      string `json:"name" gorm:"not null" binding:"required"`

	TargetDate *time.Time `json:"target_date"`

	// Derived state, maintained by the status cascade
	Status   WorkStatus `json:"status" gorm:"default:'pending'"`
	Progress int        `json:"progress" gorm:"default:0"`

	// Cached sum of manual adjustments targeting this phase.
	// The ledger is the source of truth; this column is a materialized view.
	ManualSeconds int64 `json:"manual_seconds" gorm:"default:0"`
}

// WorkStatus is the three-way status shared by phases and deliverables
type WorkStatus string

const (
	WorkStatusPending    WorkStatus = "pending"
	WorkStatusInProgress WorkStatus = "in_progress"
	WorkStatusCompleted  WorkStatus = "completed"
)

// TableName overrides the table name
func (PhaseModel) TableName() string {
	return "phase"
}
