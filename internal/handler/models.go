package handler

import (
	"time"

	"github.com/blues/tts/internal/model"
)

// TargetRequest names one entity in the hierarchy
type TargetRequest struct {
	Kind string `json:"kind" binding:"required"`
	Id   int64  `json:"id" binding:"required"`
}

// Target converts to the model variant
func (r TargetRequest) Target() model.TimeTarget {
	return model.TimeTarget{Kind: model.TargetKind(r.Kind), Id: r.Id}
}

// StartTimerRequest starts a session on a task or deliverable
type StartTimerRequest struct {
	Kind string `json:"kind" binding:"required"`
	Id   int64  `json:"id" binding:"required"`
}

// AdjustmentRequest appends one manual time delta
type AdjustmentRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Id      int64  `json:"id" binding:"required"`
	Seconds int64  `json:"seconds" binding:"required"`
	Note    string `json:"note"`
}

// ToggleTaskRequest sets a task's completed flag
type ToggleTaskRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// SessionResponse is the wire shape of a timer session. Elapsed is the
// display counter recomputed server-side; only DurationSeconds of a
// finalized session is authoritative. ResetElapsed tells the client to
// zero its counter (stop) instead of freezing it (pause).
type SessionResponse struct {
	Id              int64      `json:"id"`
	OwnerKind       string     `json:"owner_kind"`
	OwnerId         int64      `json:"owner_id"`
	TaskId          int64      `json:"task_id,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	Active          bool       `json:"active"`
	ElapsedSeconds  int64      `json:"elapsed_seconds"`
	ResetElapsed    bool       `json:"reset_elapsed,omitempty"`
}

// NewSessionResponse builds the wire shape from a session row
func NewSessionResponse(s *model.TimerSessionModel, now time.Time) SessionResponse {
	return SessionResponse{
		Id:              s.Id,
		OwnerKind:       string(s.OwnerKind),
		OwnerId:         s.OwnerId,
		TaskId:          s.TaskId,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationSeconds: s.DurationSeconds,
		Active:          s.Active,
		ElapsedSeconds:  int64(s.Elapsed(now).Seconds()),
	}
}

// TotalResponse is a ledger total for one target
type TotalResponse struct {
	Kind         string `json:"kind"`
	Id           int64  `json:"id"`
	TotalSeconds int64  `json:"total_seconds"`
}

// TimeResponse is a rollup total for one entity
type TimeResponse struct {
	Kind         string  `json:"kind"`
	Id           int64   `json:"id"`
	TotalSeconds int64   `json:"total_seconds"`
	TotalHours   float64 `json:"total_hours"`
}
