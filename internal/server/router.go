// Package server assembles the gin engine: services, handlers and routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "pcds2030/internal/docs" // Import swagger docs
	"pcds2030/internal/handlers"
	"pcds2030/internal/middleware"
	"pcds2030/internal/services"
)

// Options tunes the router. The zero value serves every route except the
// export pipeline.
type Options struct {
	PipelineAPIKey string
	// RequestLogging adds the access log middleware.
	RequestLogging bool
}

// NewRouter wires the services over db and registers the API routes.
func NewRouter(db *gorm.DB, opts Options) *gin.Engine {
	// Initialize services
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db)
	programService := services.NewProgramService(db)
	periodService := services.NewPeriodService(db)
	submissionService := services.NewSubmissionService(db)
	statisticsService := services.NewStatisticsService(db, periodService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	programHandler := handlers.NewProgramHandler(programService, auditService)
	periodHandler := handlers.NewPeriodHandler(periodService, auditService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, programService, auditService)
	statisticsHandler := handlers.NewStatisticsHandler(statisticsService, auditService)
	auditHandler := handlers.NewAuditHandler(auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Scheduled export jobs
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(opts.PipelineAPIKey))
	pipeline.GET("/periods/:id/statistics/export", statisticsHandler.ExportStatistics)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/profile", authHandler.GetProfile)

	admin := protected.Group("/")
	admin.Use(middleware.RequireAdmin())

	// Users and audit trail
	admin.POST("/users", userHandler.CreateUser)
	admin.GET("/audit-logs", auditHandler.ListAuditLogs)

	// Program routes
	protected.GET("/programs", programHandler.ListPrograms)
	protected.GET("/programs/:id", programHandler.GetProgram)
	admin.POST("/programs", programHandler.CreateProgram)
	admin.PUT("/programs/:id", programHandler.UpdateProgram)

	// Reporting period routes
	protected.GET("/periods", periodHandler.ListPeriods)
	protected.GET("/periods/current", periodHandler.GetCurrentPeriod)
	protected.GET("/periods/:id", periodHandler.GetPeriod)
	admin.POST("/periods", periodHandler.CreatePeriod)
	admin.PUT("/periods/:id", periodHandler.UpdatePeriod)
	admin.PUT("/periods/:id/status", periodHandler.SetPeriodStatus)
	admin.DELETE("/periods/:id", periodHandler.DeletePeriod)
	admin.GET("/periods/:id/submissions", submissionHandler.ListFinalizedForPeriod)
	admin.GET("/periods/:id/statistics", statisticsHandler.GetStatistics)
	admin.GET("/periods/:id/statistics/export", statisticsHandler.ExportStatistics)

	// Submission routes
	protected.POST("/submissions", submissionHandler.CreateSubmission)
	protected.GET("/submissions/:id", submissionHandler.GetSubmission)
	protected.PUT("/submissions/:id", submissionHandler.UpdateSubmission)
	protected.POST("/submissions/:id/finalize", submissionHandler.FinalizeSubmission)
	protected.DELETE("/submissions/:id", submissionHandler.DeleteSubmission)
	protected.GET("/programs/:id/periods/:period_id/latest", submissionHandler.GetLatestFinalized)
	protected.GET("/programs/:id/periods/:period_id/draft", submissionHandler.GetDraft)
	protected.GET("/programs/:id/periods/:period_id/history", submissionHandler.ListHistory)
	admin.POST("/programs/:id/periods/:period_id/unsubmit", submissionHandler.Unsubmit)

	return router
}
