package model

import (
	"time"
)

// TaskModel is a leaf work item under a deliverable
type TaskModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DeliverableId int64  `json:"deliverable_id" gorm:"not null;index" binding:"required"`
	Title         string `json:"title" gorm:"not null" binding:"required"`
	Assignee      string `json:"assignee"`

	Completed   bool       `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at"`

	EstimatedSeconds int64 `json:"estimated_seconds" gorm:"default:0"`

	// Cached sum of manual adjustments targeting this task
	ManualSeconds int64 `json:"manual_seconds" gorm:"default:0"`
}

// TableName overrides the table name
func (TaskModel) TableName() string {
	return "task"
}
