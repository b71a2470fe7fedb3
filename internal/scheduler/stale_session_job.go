package scheduler

import (
	"errors"
	"time"

	"github.com/blues/tts/internal/config"
	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StaleSessionJob force-finalizes timer sessions that were left running,
// usually by a client that disconnected without stopping its timer. The
// recorded duration is capped at the configured max age so an abandoned
// timer cannot book days of tracked time.
type StaleSessionJob struct {
	db     *gorm.DB
	hub    *notify.Hub
	config *config.Config
	now    func() time.Time
}

// NewStaleSessionJob creates the sweep
func NewStaleSessionJob(db *gorm.DB, hub *notify.Hub, cfg *config.Config) *StaleSessionJob {
	return &StaleSessionJob{db: db, hub: hub, config: cfg, now: time.Now}
}

// GetName job name
func (j *StaleSessionJob) GetName() string {
	return "stale_session_sweeper"
}

// GetSchedule schedule config
func (j *StaleSessionJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.StaleSweepInterval) * time.Second)
}

// Execute runs one sweep
func (j *StaleSessionJob) Execute() {
	maxAge := time.Duration(j.config.Scheduler.MaxSessionAgeHours) * time.Hour
	cutoff := j.now().Add(-maxAge)

	var stale []model.TimerSessionModel
	err := j.db.Where("active = ? AND start_time < ?", true, cutoff).Find(&stale).Error
	if err != nil {
		logger.Error("Failed to query stale sessions: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	swept := 0
	for i := range stale {
		if err := j.finalizeStale(&stale[i], maxAge); err != nil {
			logger.Error("Failed to finalize stale session %d: %v", stale[i].Id, err)
			continue
		}
		j.hub.Publish(notify.Event{Table: notify.TableSession, Action: notify.ActionUpdated, Id: stale[i].Id})
		swept++
	}

	logger.Info("Stale session sweep finalized %d of %d sessions", swept, len(stale))
}

// finalizeStale ends one abandoned session with its duration capped at
// the max age
func (j *StaleSessionJob) finalizeStale(session *model.TimerSessionModel, maxAge time.Duration) error {
	end := session.StartTime.Add(maxAge)
	duration := int64(maxAge.Seconds())

	taskId := session.TaskId
	if session.OwnerKind == model.TargetDeliverable && taskId == 0 {
		var task model.TaskModel
		err := j.db.Where("deliverable_id = ?", session.OwnerId).
			Order("created_at ASC, id ASC").
			First(&task).Error
		if err == nil {
			taskId = task.Id
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	res := j.db.Model(&model.TimerSessionModel{}).
		Where("id = ? AND active = ?", session.Id, true).
		Updates(map[string]interface{}{
			"active":           false,
			"end_time":         end,
			"duration_seconds": duration,
			"task_id":          taskId,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		logger.Warn("Force-finalized stale session %d (started %s, capped at %s)",
			session.Id, session.StartTime.Format(time.RFC3339), maxAge)
	}
	return nil
}
