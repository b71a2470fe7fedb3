package main

import (
	"github.com/blues/tts/internal/config"
	"github.com/blues/tts/internal/database"
	"github.com/blues/tts/internal/logger"
	"github.com/blues/tts/internal/logic"
	"github.com/blues/tts/internal/notify"
	"github.com/blues/tts/internal/rollup"
	"github.com/blues/tts/internal/router"
	"github.com/blues/tts/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load config
	cfg := config.Load()

	// Logger per config
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithRotation(level, logger.RotationConfig{Filename: cfg.Log.File})
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}
	defer logger.Sync()

	// Database
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// Change notification hub
	hub, err := notify.NewHub(cfg.Notify.PoolSize, cfg.Notify.BufferSize)
	if err != nil {
		logger.Fatal("Failed to create notification hub: %v", err)
	}
	defer hub.Close()

	// Recompute subscriber reacts to session and ledger changes
	policy := rollup.StatusPolicy{ReviewThreshold: cfg.Status.ReviewThreshold}
	recalc := logic.NewRecalculator(db, hub, logic.NewStatusLogic(db, hub, policy))
	recalc.Start()
	defer recalc.Stop()

	// Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Router
	r := router.Setup(db, hub, cfg)

	// Reconciliation jobs
	jobs := scheduler.Start(db, hub, cfg)
	defer jobs.Stop()

	// Server
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
