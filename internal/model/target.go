package model

import (
	"errors"
	"fmt"
)

// TargetKind identifies which level of the hierarchy a time record belongs to
type TargetKind string

const (
	TargetTask        TargetKind = "task"
	TargetDeliverable TargetKind = "deliverable"
	TargetPhase       TargetKind = "phase"
)

// TimeTarget is a tagged reference to exactly one task, deliverable or phase
type TimeTarget struct {
	Kind TargetKind `json:"kind" gorm:"column:target_kind;not null;index:idx_target"`
	Id   int64      `json:"id" gorm:"column:target_id;not null;index:idx_target"`
}

// TaskTarget builds a task reference
func TaskTarget(id int64) TimeTarget {
	return TimeTarget{Kind: TargetTask, Id: id}
}

func DeliverableTarget(id int64) TimeTarget {
	return TimeTarget{Kind: TargetDeliverable, Id: id}
}

func PhaseTarget(id int64) TimeTarget {
	return TimeTarget{Kind: TargetPhase, Id: id}
}

// Validate checks the reference is well formed
func (t TimeTarget) Validate() error {
	if t.Id <= 0 {
		return errors.New("target id is required")
	}
	switch t.Kind {
	case TargetTask, TargetDeliverable, TargetPhase:
		return nil
	default:
		return fmt.Errorf("unknown target kind: %s", t.Kind)
	}
}

// Timerable reports whether a timer session may be attached to this target.
// Timers only run on tasks and deliverables; phases carry manual time only.
func (t TimeTarget) Timerable() bool {
	return t.Kind == TargetTask || t.Kind == TargetDeliverable
}

func (t TimeTarget) String() string {
	return fmt.Sprintf("%s/%d", t.Kind, t.Id)
}
