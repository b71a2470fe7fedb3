package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recalculator consumes the change feed and re-derives statuses when time
// moves. Events are invalidation hints: the handler reloads the affected
// rows and recomputes, it never trusts event payloads or ordering. Task
// completion toggles cascade synchronously in StatusLogic, so only session
// and adjustment events matter here.
type Recalculator struct {
	db     *gorm.DB
	hub    *notify.Hub
	status *StatusLogic

	subId  uuid.UUID
	events <-chan notify.Event
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRecalculator creates the recompute subscriber
func NewRecalculator(db *gorm.DB, hub *notify.Hub, status *StatusLogic) *Recalculator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Recalculator{
		db:     db,
		hub:    hub,
		status: status,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes and begins consuming events
func (r *Recalculator) Start() {
	r.subId, r.events = r.hub.Subscribe()
	go r.loop()
	logger.Info("Recalculator subscribed to change feed")
}

// Stop unsubscribes and ends the loop
func (r *Recalculator) Stop() {
	r.cancel()
	r.hub.Unsubscribe(r.subId)
}

// loop consumes until cancelled or the channel closes
func (r *Recalculator) loop() {
	for {
		select {
		case <-r.ctx.Done():
			logger.Info("Recalculator stopped")
			return
		case event, ok := <-r.events:
			if !ok {
				return
			}
			if err := r.handle(event); err != nil {
				logger.Error("Recalculation for %s %d failed: %v", event.Table, event.Id, err)
			}
		}
	}
}

// handle maps one event to a cascade entry point
func (r *Recalculator) handle(event notify.Event) error {
	switch event.Table {
	case notify.TableSession:
		return r.handleSession(event.Id)
	case notify.TableAdjustment:
		return r.handleAdjustment(event.Id)
	default:
		// Status and progress writes also land on the feed for UI
		// consumers; nothing to re-derive from them
		return nil
	}
}

func (r *Recalculator) handleSession(id int64) error {
	var session model.TimerSessionModel
	if err := r.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session.Active {
		// Running sessions have no finalized duration yet
		return nil
	}
	return r.status.RecalculateForTarget(model.TimeTarget{Kind: session.OwnerKind, Id: session.OwnerId})
}

func (r *Recalculator) handleAdjustment(id int64) error {
	var adjustment model.TimeAdjustmentModel
	if err := r.db.First(&adjustment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load adjustment: %w", err)
	}
	return r.status.RecalculateForTarget(adjustment.Target)
}
