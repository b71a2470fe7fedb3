package router

import (
	"github.com/blues/tts/internal/config"
	"github.com/blues/tts/internal/handler"
	"github.com/blues/tts/internal/notify"
	"github.com/blues/tts/internal/rollup"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, hub *notify.Hub, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// Middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "time-tracking-service",
		})
	})

	policy := rollup.StatusPolicy{ReviewThreshold: cfg.Status.ReviewThreshold}

	v1 := r.Group("/api/v1")
	{
		projectHandler := handler.NewProjectHandler(db, hub)
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
		}
		v1.POST("/phases", projectHandler.CreatePhase)
		v1.POST("/deliverables", projectHandler.CreateDeliverable)

		taskHandler := handler.NewTaskHandler(db, hub, policy)
		tasks := v1.Group("/tasks")
		{
			tasks.POST("", taskHandler.Create)
			tasks.PUT("/:id/completion", taskHandler.ToggleCompletion)
		}

		timerHandler := handler.NewTimerHandler(db, hub)
		timer := v1.Group("/timer")
		{
			timer.POST("/start", timerHandler.Start)
			timer.PUT("/:id/pause", timerHandler.Pause)
			timer.PUT("/:id/stop", timerHandler.Stop)
			timer.GET("/active", timerHandler.Active)
		}

		adjustmentHandler := handler.NewAdjustmentHandler(db, hub)
		adjustments := v1.Group("/adjustments")
		{
			adjustments.POST("", adjustmentHandler.Create)
			adjustments.GET("", adjustmentHandler.List)
			adjustments.GET("/total", adjustmentHandler.Total)
		}

		reportHandler := handler.NewReportHandler(db)
		reports := v1.Group("/reports")
		{
			reports.GET("/projects/:id", reportHandler.ProjectReport)
			reports.GET("/time", reportHandler.EntityTime)
		}
	}

	return r
}

// CORS middleware
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
