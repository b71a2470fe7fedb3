package logic

import (
	"errors"
	"fmt"

	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"gorm.io/gorm"
)

// MinAdjustmentSeconds is the smallest positive entry accepted, one minute
const MinAdjustmentSeconds = 60

// LedgerLogic is the append-only manual time ledger. Adjustment rows are
// immutable; removing time appends a negative row. Each owning row keeps a
// cached running total that is updated in the same transaction as the
// append, so the cache always equals the ledger sum.
type LedgerLogic struct {
	db  *gorm.DB
	hub *notify.Hub
}

// NewLedgerLogic creates the ledger
func NewLedgerLogic(db *gorm.DB, hub *notify.Hub) *LedgerLogic {
	return &LedgerLogic{db: db, hub: hub}
}

// ApplyAdjustment validates and appends one signed adjustment. Positive
// entries must be at least a minute; removals must not exceed the current
// running total and are all-or-nothing.
func (l *LedgerLogic) ApplyAdjustment(target model.TimeTarget, seconds int64, note string) (*model.TimeAdjustmentModel, error) {
	if err := target.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	if seconds == 0 {
		return nil, invalid("adjustment cannot be zero")
	}
	if seconds > 0 && seconds < MinAdjustmentSeconds {
		return nil, invalid("minimum time entry is one minute")
	}

	tx := l.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// Lock the owning row; its cached total is the balance being checked
	total, err := lockedTotal(tx, target)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if seconds < 0 && -seconds > total {
		tx.Rollback()
		return nil, invalid("cannot remove more time than is tracked")
	}

	adjustment := &model.TimeAdjustmentModel{
		Target:  target,
		Seconds: seconds,
		Note:    note,
	}
	if err := tx.Create(adjustment).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to append adjustment: %w", err)
	}

	newTotal := total + seconds
	if newTotal < 0 {
		newTotal = 0
	}
	if err := updateCachedTotal(tx, target, newTotal); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit adjustment: %w", err)
	}

	l.hub.Publish(notify.Event{Table: notify.TableAdjustment, Action: notify.ActionCreated, Id: adjustment.Id})
	logger.Info("Applied %+ds to %s (total now %ds)", seconds, target, newTotal)
	return adjustment, nil
}

// CurrentTotal reads the cached running total, the fast path
func (l *LedgerLogic) CurrentTotal(target model.TimeTarget) (int64, error) {
	if err := target.Validate(); err != nil {
		return 0, invalid("%v", err)
	}
	return cachedTotal(l.db, target)
}

// RecomputeTotal sums the ledger directly. Used by the audit job and
// tests; it must always agree with CurrentTotal.
func (l *LedgerLogic) RecomputeTotal(target model.TimeTarget) (int64, error) {
	if err := target.Validate(); err != nil {
		return 0, invalid("%v", err)
	}

	var total int64
	err := l.db.Model(&model.TimeAdjustmentModel{}).
		Select("COALESCE(SUM(seconds), 0)").
		Where("target_kind = ? AND target_id = ?", target.Kind, target.Id).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger: %w", err)
	}
	return total, nil
}

// Adjustments lists the ledger rows for one target, newest first
func (l *LedgerLogic) Adjustments(target model.TimeTarget) ([]model.TimeAdjustmentModel, error) {
	if err := target.Validate(); err != nil {
		return nil, invalid("%v", err)
	}

	var rows []model.TimeAdjustmentModel
	err := l.db.Where("target_kind = ? AND target_id = ?", target.Kind, target.Id).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	return rows, nil
}

// lockedTotal reads the cached total with the owning row locked FOR UPDATE
func lockedTotal(tx *gorm.DB, target model.TimeTarget) (int64, error) {
	return cachedTotal(lockForUpdate(tx), target)
}

// cachedTotal reads the cached total without locking
func cachedTotal(db *gorm.DB, target model.TimeTarget) (int64, error) {
	var err error
	var total int64
	switch target.Kind {
	case model.TargetTask:
		var row model.TaskModel
		err = db.First(&row, target.Id).Error
		total = row.ManualSeconds
	case model.TargetDeliverable:
		var row model.DeliverableModel
		err = db.First(&row, target.Id).Error
		total = row.ManualSeconds
	case model.TargetPhase:
		var row model.PhaseModel
		err = db.First(&row, target.Id).Error
		total = row.ManualSeconds
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, invalid("%s does not exist", target)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", target, err)
	}
	return total, nil
}

// updateCachedTotal writes the new running total on the owning row
func updateCachedTotal(tx *gorm.DB, target model.TimeTarget, total int64) error {
	var err error
	switch target.Kind {
	case model.TargetTask:
		err = tx.Model(&model.TaskModel{}).Where("id = ?", target.Id).
			Update("manual_seconds", total).Error
	case model.TargetDeliverable:
		err = tx.Model(&model.DeliverableModel{}).Where("id = ?", target.Id).
			Update("manual_seconds", total).Error
	case model.TargetPhase:
		err = tx.Model(&model.PhaseModel{}).Where("id = ?", target.Id).
			Update("manual_seconds", total).Error
	}
	if err != nil {
		return fmt.Errorf("failed to update cached total for %s: %w", target, err)
	}
	return nil
}
