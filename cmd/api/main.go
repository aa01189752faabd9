package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"pcds2030/internal/config"
	"pcds2030/internal/database"
	"pcds2030/internal/logger"
	"pcds2030/internal/server"
	"pcds2030/internal/validator"
)

// @title           PCDS2030 Reporting API
// @version         1.0
// @description     Reporting periods and program progress submissions for the PCDS2030 dashboard.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(dbManager.DB(), server.Options{
		PipelineAPIKey: appConfig.PipelineAPIKey,
		RequestLogging: true,
	})

	log.Infof("Starting PCDS2030 reporting server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
