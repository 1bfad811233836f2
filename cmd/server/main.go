package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"landfolio/server/config"
	"landfolio/server/internal/api"
	"landfolio/server/internal/crm"
	"landfolio/server/internal/derive"
	"landfolio/server/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize the session store and its expiry sweep
	sessions := store.NewStore(
		time.Duration(cfg.Sessions.TTLMinutes)*time.Minute,
		time.Duration(cfg.Sessions.SweepIntervalMinutes)*time.Minute,
		logger,
	)
	sessions.Start()
	defer sessions.Close()

	// Initialize the derivation engine
	engine := derive.NewEngine(logger)

	// Lead enrichment is optional; it stays off without CRM credentials
	var enricher *crm.Enricher
	if cfg.CRM.BaseURL != "" && cfg.CRM.APIKey != "" {
		client := crm.NewClient(
			cfg.CRM.BaseURL,
			cfg.CRM.APIKey,
			time.Duration(cfg.CRM.TimeoutSeconds)*time.Second,
			logger,
		)
		enricher = crm.NewEnricher(client, sessions, time.Duration(cfg.CRM.LookupDelayMillis)*time.Millisecond, logger)
		logger.Info("CRM lead enrichment enabled")
	} else {
		logger.Info("CRM lead enrichment disabled (no credentials configured)")
	}

	// Initialize handler and router
	handler := api.NewHandler(sessions, engine, enricher, cfg.Server.MaxUploadBytes, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
