// File: medisched/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medisched/config"
	"medisched/cron"
	"medisched/database"
	appointmentRepo "medisched/database/repository/appointment"
	userRepo "medisched/database/repository/user"
	"medisched/handlers"
	"medisched/middleware"
	"medisched/routes"
	"medisched/services/scheduling"
	"medisched/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))
	router.Use(cors.Default())

	// repositories.
	apptRepo := appointmentRepo.NewMongoAppointmentRepo()
	usersRepo := userRepo.NewMongoUserRepo()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := apptRepo.EnsureIndexes(ctx); err != nil {
		logger.Sugar().Fatalf("main: failed to create appointment indexes: %v", err)
	}
	cancel()

	// services.
	schedulingService := &scheduling.DefaultSchedulingService{
		Users:              usersRepo,
		Appointments:       apptRepo,
		Cache:              utils.GetCacheClient(),
		CacheTTL:           time.Duration(config.AppConfig.SlotCacheTTLSec) * time.Second,
		DefaultGranularity: config.AppConfig.SlotGranularityMin,
	}

	appointmentHandler := handlers.NewAppointmentHandler(schedulingService, logger)
	availabilityHandler := handlers.NewAvailabilityHandler(schedulingService, logger)

	// Register routes.
	routes.RegisterAppointmentRoutes(router, appointmentHandler)
	routes.RegisterAvailabilityRoutes(router, availabilityHandler)
	routes.RegisterHealthRoute(router)

	// Background no-show sweeper.
	cron.InitNoShowWorker(schedulingService)

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
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
