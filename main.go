// File: medtriage/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medtriage/config"
	"medtriage/cron"
	"medtriage/database/reference"
	"medtriage/handlers"
	"medtriage/middleware"
	"medtriage/models"
	"medtriage/routes"
	"medtriage/services/doctor"
	"medtriage/services/imaging"
	"medtriage/services/ingestion"
	"medtriage/services/pharmacy"
	"medtriage/services/therapy"
	"medtriage/services/triage"
	"medtriage/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitSessionCache()

	refStore, err := reference.Load(config.AppConfig.DataDir)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to load reference data: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Stage agents.
	normalizer := ingestion.NewNormalizer(
		config.AppConfig.UploadDir,
		config.AppConfig.MaxUploadSizeMB,
		config.AppConfig.DefaultPincode,
		config.AppConfig.DefaultCity,
	)
	scorer := imaging.NewScorer()
	selector := therapy.NewSelector(refStore)
	matcher := pharmacy.NewMatcher(
		refStore,
		config.AppConfig.MaxSearchRadiusKm,
		config.AppConfig.DeliverySpeedKmph,
		config.AppConfig.BaseDeliveryFee,
		config.AppConfig.PerKmCharge,
		models.Coordinates{Lat: config.AppConfig.DefaultLat, Lon: config.AppConfig.DefaultLon},
	)
	referrer := doctor.NewReferrer(refStore)

	coordinator := triage.NewCoordinator(normalizer, scorer, selector, matcher, referrer)
	triageHandler := handlers.NewTriageHandler(coordinator, logger)

	routes.SetupRoutes(router, triageHandler)

	cleanupJob := cron.StartUploadCleanup()

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cleanupJob.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: forced shutdown: %v", err)
	}
	logger.Info("Server exited")
}
