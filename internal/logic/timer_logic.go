package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"gorm.io/gorm"
)

// TimerLogic owns the global active-timer slot. At most one session is
// active system-wide; Start finalizes whatever is running before creating
// the new session, inside one transaction.
type TimerLogic struct {
	db  *gorm.DB
	hub *notify.Hub
	now func() time.Time
}

// NewTimerLogic creates the timer lifecycle manager
func NewTimerLogic(db *gorm.DB, hub *notify.Hub) *TimerLogic {
	return &TimerLogic{db: db, hub: hub, now: time.Now}
}

// startAttempts bounds the retry loop when concurrent starts collide on
// the single-active index
const startAttempts = 3

// Start begins a session on a task or deliverable. Any currently active
// session is finalized first with the same timestamp, so the old duration
// ends exactly where the new session begins. The finalize-then-create
// sequence runs in a single transaction with the active row locked. When
// no active row exists there is nothing to lock, so two starts from an
// idle state can race to the insert; the partial unique index on
// active sessions fails the loser, which retries and finalizes the
// winner's session like any other running one.
func (t *TimerLogic) Start(target model.TimeTarget) (*model.TimerSessionModel, error) {
	if err := target.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	if !target.Timerable() {
		return nil, invalid("timers only run on tasks and deliverables, not %s", target.Kind)
	}

	for attempt := 0; attempt < startAttempts; attempt++ {
		session, finalized, err := t.startOnce(target)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warn("Concurrent timer start on %s, retrying", target)
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, id := range finalized {
			t.hub.Publish(notify.Event{Table: notify.TableSession, Action: notify.ActionUpdated, Id: id})
		}
		t.hub.Publish(notify.Event{Table: notify.TableSession, Action: notify.ActionCreated, Id: session.Id})

		logger.Info("Started timer session %d on %s", session.Id, target)
		return session, nil
	}
	return nil, fmt.Errorf("timer start on %s kept colliding with concurrent starts", target)
}

// startOnce runs one finalize-then-create transaction. The owner row is
// checked and locked inside the transaction so a concurrent delete of the
// target cannot slip between the check and the insert.
func (t *TimerLogic) startOnce(target model.TimeTarget) (*model.TimerSessionModel, []int64, error) {
	now := t.now()
	var finalized []int64

	tx := t.db.Begin()
	if tx.Error != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := t.checkOwnerExists(tx, target); err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	// Lock any active session so a concurrent Start waits here
	var active []model.TimerSessionModel
	if err := lockForUpdate(tx).
		Where("active = ?", true).
		Find(&active).Error; err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("failed to query active session: %w", err)
	}

	for i := range active {
		if err := t.finalizeTx(tx, &active[i], now); err != nil {
			tx.Rollback()
			return nil, nil, err
		}
		finalized = append(finalized, active[i].Id)
	}

	session := &model.TimerSessionModel{
		OwnerKind: target.Kind,
		OwnerId:   target.Id,
		StartTime: now,
		Active:    true,
	}
	if target.Kind == model.TargetTask {
		session.TaskId = target.Id
	}

	if err := tx.Create(session).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, fmt.Errorf("failed to commit session start: %w", err)
	}
	return session, finalized, nil
}

// Pause finalizes the session, keeping the last displayed elapsed value
// on the client
func (t *TimerLogic) Pause(sessionId int64) (*model.TimerSessionModel, error) {
	return t.finalize(sessionId)
}

// Stop is Pause plus a client-side elapsed counter reset; server-side the
// two are the same finalize
func (t *TimerLogic) Stop(sessionId int64) (*model.TimerSessionModel, error) {
	return t.finalize(sessionId)
}

// Active returns the currently running session, nil when idle
func (t *TimerLogic) Active() (*model.TimerSessionModel, error) {
	var session model.TimerSessionModel
	err := t.db.Where("active = ?", true).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active session: %w", err)
	}
	return &session, nil
}

// Now exposes the logic clock so handlers compute display elapsed
// consistently with finalize timestamps
func (t *TimerLogic) Now() time.Time {
	return t.now()
}

// finalize ends one session by id
func (t *TimerLogic) finalize(sessionId int64) (*model.TimerSessionModel, error) {
	now := t.now()
	var session model.TimerSessionModel

	tx := t.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	err := lockForUpdate(tx).First(&session, sessionId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, invalid("session %d does not exist", sessionId)
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := t.finalizeTx(tx, &session, now); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit finalize: %w", err)
	}

	t.hub.Publish(notify.Event{Table: notify.TableSession, Action: notify.ActionUpdated, Id: session.Id})
	logger.Info("Finalized timer session %d with %d seconds", session.Id, session.DurationSeconds)
	return &session, nil
}

// finalizeTx writes the one and only duration for a session. The guarded
// update refuses to touch a row that is no longer active, so a duration
// can never be overwritten. Deliverable-owned sessions get attributed to
// the oldest task under the deliverable so task rollups include them.
func (t *TimerLogic) finalizeTx(tx *gorm.DB, session *model.TimerSessionModel, now time.Time) error {
	if !session.Active {
		return invalid("session %d is not active", session.Id)
	}

	duration := int64(now.Sub(session.StartTime).Seconds())
	if duration < 0 {
		duration = 0
	}

	taskId := session.TaskId
	if session.OwnerKind == model.TargetDeliverable {
		var task model.TaskModel
		err := tx.Where("deliverable_id = ?", session.OwnerId).
			Order("created_at ASC, id ASC").
			First(&task).Error
		switch {
		case err == nil:
			taskId = task.Id
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No tasks under the deliverable; the time stays attached
			// to the deliverable itself
		default:
			return fmt.Errorf("failed to find attribution task: %w", err)
		}
	}

	res := tx.Model(&model.TimerSessionModel{}).
		Where("id = ? AND active = ?", session.Id, true).
		Updates(map[string]interface{}{
			"active":           false,
			"end_time":         now,
			"duration_seconds": duration,
			"task_id":          taskId,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to finalize session: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("session %d was finalized concurrently", session.Id)
	}

	session.Active = false
	session.EndTime = &now
	session.DurationSeconds = duration
	session.TaskId = taskId
	return nil
}

// checkOwnerExists verifies the timer target row is real. It locks the
// row, so a concurrent delete waits until the session insert commits.
func (t *TimerLogic) checkOwnerExists(tx *gorm.DB, target model.TimeTarget) error {
	var err error
	switch target.Kind {
	case model.TargetTask:
		err = lockForUpdate(tx).First(&model.TaskModel{}, target.Id).Error
	case model.TargetDeliverable:
		err = lockForUpdate(tx).First(&model.DeliverableModel{}, target.Id).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid("%s does not exist", target)
	}
	if err != nil {
		return fmt.Errorf("failed to check timer target: %w", err)
	}
	return nil
}
