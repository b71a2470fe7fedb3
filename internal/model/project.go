package model

import (
	"time"
)

// ProjectModel is the top of the tracking hierarchy
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Basic info
	Name        string `json:"name" gorm:"not null" binding:"required"`
	ClientName  string `json:"client_name"`
	Description string `json:"description" gorm:"type:text"`

	// Budget info
	BudgetedHours float64 `json:"budgeted_hours" gorm:"default:0"`
	HourlyRate    float64 `json:"hourly_rate" gorm:"default:0"`
	CurrencyValue float64 `json:"currency_value" gorm:"default:0"`

	// Derived state, maintained by the status cascade
	Status   ProjectStatus `json:"status" gorm:"default:'new'"`
	Progress int           `json:"progress" gorm:"default:0"`
}

// ProjectStatus project lifecycle state
type ProjectStatus string

const (
	ProjectStatusNew        ProjectStatus = "new"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusReview     ProjectStatus = "review"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusOnHold     ProjectStatus = "on_hold"
)

// TableName overrides the table name
func (ProjectModel) TableName() string {
	return "project"
}
