package scheduler

import (
	"github.com/blues/tts/internal/config"
	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/notify"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job is one periodic reconciliation pass
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager runs the reconciliation jobs
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	hub       *notify.Hub
	config    *config.Config
}

// NewManager creates the job manager
func NewManager(db *gorm.DB, hub *notify.Hub, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		hub:       hub,
		config:    cfg,
	}
}

// Start wires the jobs and starts the scheduler
func Start(db *gorm.DB, hub *notify.Hub, cfg *config.Config) *Manager {
	manager := NewManager(db, hub, cfg)
	manager.RegisterJobs()
	manager.scheduler.Start()
	logger.Info("Job manager started successfully")
	return manager
}

// RegisterJobs registers all reconciliation jobs
func (m *Manager) RegisterJobs() {
	m.register(NewStaleSessionJob(m.db, m.hub, m.config))
	m.register(NewLedgerAuditJob(m.db, m.config))
	m.register(NewStatusAuditJob(m.db, m.hub, m.config))
}

// register adds one job in singleton mode so a slow pass never overlaps
// the next one
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop shuts the scheduler down
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Job manager stopped")
}
