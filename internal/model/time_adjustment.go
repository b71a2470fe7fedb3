package model

import (
	"time"
)

// TimeAdjustmentModel is one immutable signed time delta entered by a user
// outside the timer mechanism. "Removing time" appends a negative row,
// history is never mutated.
type TimeAdjustmentModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	Target TimeTarget `json:"target" gorm:"embedded"`

	// Positive adds time, negative removes it
	Seconds int64  `json:"seconds" gorm:"not null"`
	Note    string `json:"note" gorm:"type:text"`
}

// TableName overrides the table name
func (TimeAdjustmentModel) TableName() string {
	return "time_adjustment"
}
