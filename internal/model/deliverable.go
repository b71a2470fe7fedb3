package model

import (
	"time"
)

// DeliverableModel is a billable unit of work inside a project,
// optionally grouped into a phase
type DeliverableModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId int64  `json:"project_id" gorm:"not null;index" binding:"required"`
	PhaseId   *int64 `json:"phase_id" gorm:"index"`
	Title     string `json:"title" gorm:"not null" binding:"required"`

	// Budgeted hours, the denominator of the efficiency ratio
	DeclarableHours float64 `json:"declarable_hours" gorm:"default:0"`

	// Derived state, maintained by the status cascade
	Status   WorkStatus `json:"status" gorm:"default:'pending'"`
	Progress int        `json:"progress" gorm:"default:0"`

	// Cached sum of manual adjustments targeting this deliverable
	ManualSeconds int64 `json:"manual_seconds" gorm:"default:0"`
}

// TableName overrides the table name
func (DeliverableModel) TableName() string {
	return "deliverable"
}
