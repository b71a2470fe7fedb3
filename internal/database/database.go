package database

import (
	"fmt"

	"github.com/blues/tts/internal/config"
	"github.com/blues/tts/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent), // gorm's own logging off, zap carries it
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs the schema migration; split out so tests can run it
// against their own gorm handle
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.ProjectModel{},
		&model.PhaseModel{},
		&model.DeliverableModel{},
		&model.TaskModel{},
		&model.TimerSessionModel{},
		&model.TimeAdjustmentModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// At most one active session system-wide. The scan-and-lock in timer
	// start cannot lock rows that do not exist yet, so two starts from an
	// idle state would both insert; this partial unique index makes the
	// second insert fail instead.
	err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_timer_session_single_active ON timer_session (active) WHERE active",
	).Error
	if err != nil {
		return fmt.Errorf("failed to create single-active index: %w", err)
	}
	return nil
}
