package config

import (
	"github.com/blues/tts/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Status    StatusConfig    `mapstructure:"status"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// SchedulerConfig settings for the reconciliation jobs
type SchedulerConfig struct {
	StaleSweepInterval  int `mapstructure:"stale_sweep_interval"` // seconds between stale session sweeps
	MaxSessionAgeHours  int `mapstructure:"max_session_age_hours"` // force-finalize sessions older than this
	AuditInterval       int `mapstructure:"audit_interval"`       // seconds between ledger audits
	StatusAuditInterval int `mapstructure:"status_audit_interval"` // seconds between full status recomputes
}

// StatusConfig thresholds for automatic project status transitions
type StatusConfig struct {
	ReviewThreshold int `mapstructure:"review_threshold"` // progress percentage that moves a project to review
}

// NotifyConfig settings for the change notification hub
type NotifyConfig struct {
	PoolSize   int `mapstructure:"pool_size"`   // goroutine pool size for event dispatch
	BufferSize int `mapstructure:"buffer_size"` // per-subscriber channel buffer
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // stdout or file
	File   string `mapstructure:"file"`   // log file path when output is file
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/tts")

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "timetracking")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("scheduler.stale_sweep_interval", 300)
	viper.SetDefault("scheduler.max_session_age_hours", 12)
	viper.SetDefault("scheduler.audit_interval", 3600)
	viper.SetDefault("scheduler.status_audit_interval", 900)
	viper.SetDefault("status.review_threshold", 90)
	viper.SetDefault("notify.pool_size", 8)
	viper.SetDefault("notify.buffer_size", 64)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// Environment variables override the file
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
