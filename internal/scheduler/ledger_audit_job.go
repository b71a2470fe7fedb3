package scheduler

import (
	"time"

	"github.com/blues/tts/internal/config"
	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// LedgerAuditJob recomputes every cached manual-time total from the
// ledger and repairs drift. The ledger append and the counter update
// share a transaction, so drift should never happen; every repair is
// logged loudly because it means a bug somewhere.
type LedgerAuditJob struct {
	db     *gorm.DB
	config *config.Config
}

// NewLedgerAuditJob creates the audit
func NewLedgerAuditJob(db *gorm.DB, cfg *config.Config) *LedgerAuditJob {
	return &LedgerAuditJob{db: db, config: cfg}
}

// GetName job name
func (j *LedgerAuditJob) GetName() string {
	return "ledger_auditor"
}

// GetSchedule schedule config
func (j *LedgerAuditJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.AuditInterval) * time.Second)
}

// Execute audits all three target tables
func (j *LedgerAuditJob) Execute() {
	repaired := 0
	repaired += j.auditKind(model.TargetTask, &model.TaskModel{})
	repaired += j.auditKind(model.TargetDeliverable, &model.DeliverableModel{})
	repaired += j.auditKind(model.TargetPhase, &model.PhaseModel{})

	if repaired > 0 {
		logger.Error("Ledger audit repaired %d drifted totals, investigate", repaired)
	} else {
		logger.Debug("Ledger audit clean")
	}
}

// auditKind compares cached totals of one table against the ledger sums
func (j *LedgerAuditJob) auditKind(kind model.TargetKind, table interface{}) int {
	sums := make(map[int64]int64)
	var rows []struct {
		TargetId int64
		Total    int64
	}
	err := j.db.Model(&model.TimeAdjustmentModel{}).
		Select("target_id, COALESCE(SUM(seconds), 0) as total").
		Where("target_kind = ?", kind).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Ledger audit failed to sum %s adjustments: %v", kind, err)
		return 0
	}
	for _, r := range rows {
		sums[r.TargetId] = r.Total
	}

	var cached []struct {
		Id            int64
		ManualSeconds int64
	}
	if err := j.db.Model(table).Select("id, manual_seconds").Scan(&cached).Error; err != nil {
		logger.Error("Ledger audit failed to read %s totals: %v", kind, err)
		return 0
	}

	repaired := 0
	for _, row := range cached {
		expected := sums[row.Id]
		if expected < 0 {
			expected = 0
		}
		if row.ManualSeconds == expected {
			continue
		}

		err := j.db.Model(table).Where("id = ?", row.Id).
			Update("manual_seconds", expected).Error
		if err != nil {
			logger.Error("Ledger audit failed to repair %s/%d: %v", kind, row.Id, err)
			continue
		}
		logger.Warn("Ledger audit repaired %s/%d: cached %d, ledger %d",
			kind, row.Id, row.ManualSeconds, expected)
		repaired++
	}
	return repaired
}
