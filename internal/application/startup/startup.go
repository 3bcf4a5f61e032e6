// Package startup prepares the application server
package startup

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pixreview/pixreview-go/internal/application/container"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/cleanup"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/pixreview/pixreview-go/internal/infrastructure/persistence/database"
	"github.com/pixreview/pixreview-go/internal/presentation/http/server"
	"github.com/pixreview/pixreview-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `

  ██████╗ ██╗██╗  ██╗██████╗ ███████╗██╗   ██╗██╗███████╗██╗    ██╗
  ██╔══██╗██║╚██╗██╔╝██╔══██╗██╔════╝██║   ██║██║██╔════╝██║    ██║
  ██████╔╝██║ ╚███╔╝ ██████╔╝█████╗  ██║   ██║██║█████╗  ██║ █╗ ██║
  ██╔═══╝ ██║ ██╔██╗ ██╔══██╗██╔══╝  ╚██╗ ██╔╝██║██╔══╝  ██║███╗██║
  ██║     ██║██╔╝ ██╗██║  ██║███████╗ ╚████╔╝ ██║███████╗╚███╔███╔╝
  ╚═╝     ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝  ╚═══╝  ╚═╝╚══════╝ ╚══╝╚══╝
` + "\033[0m")

	// Step 1: Channeled logger
	log.Println("Initializing logging...")
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return err
	}

	// Step 2: Performance tracker
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())
	logger.LogStartupPhase("observability", time.Since(start), true, nil)

	// Step 3: Database connection and schema
	logger.Startup().Info("Connecting to database...", "driver", config.DBDriver)
	dbStart := time.Now()

	db, err := database.NewConnectionWithLogger(config.DBDriver, database.DataSourceName(), logger)
	if err != nil {
		logger.Startup().Warn("Database connection failed, continuing without persistence", "error", err.Error())
		db = nil
	} else {
		tableCreator := database.NewTableCreator()
		if err := tableCreator.CreateSchema(db.DB); err != nil {
			return err
		}
		if err := tableCreator.SeedInitialSettings(db.DB); err != nil {
			return err
		}
	}
	logger.LogStartupPhase("database", time.Since(dbStart), db != nil, map[string]any{"driver": config.DBDriver})

	// Step 4: Dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer := container.NewContainer(logger, perfTracker, db)
	logger.Startup().Info("Container initialization complete", "database", db != nil)

	// Step 5: Roster broadcaster loop
	go appContainer.RosterBroadcaster.Run()
	logger.Startup().Info("Roster broadcaster started", "tick", config.RosterTickInterval)

	// Step 6: Background cleanup worker
	logger.Startup().Info("Starting background cleanup worker...")
	startWorkerTime := time.Now()

	cleanupConfig := cleanup.NewConfig()
	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager, cleanupConfig, logger)
	cleanupWorker.OnPresenceChange = func(count int) {
		appContainer.Broadcaster.BroadcastPresenceCount(count)
	}
	go cleanupWorker.Start(ctx)

	logger.Startup().Info("Background cleanup worker started", "duration", time.Since(startWorkerTime))

	// Step 7: HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()

	port := config.Port
	httpServer := server.New(port, appContainer)

	logger.Startup().Info("HTTP server initialized", "port", port, "duration", time.Since(startServerTime))

	// Step 8: Graceful shutdown wiring
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	totalStartupTime := time.Since(start)
	logger.Startup().Info("Application startup complete",
		"totalDuration", totalStartupTime,
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	if db != nil {
		logger.Shutdown().Info("Closing database connection...")
		if err := db.Close(); err != nil {
			logger.Shutdown().Error("Error closing database", "error", err.Error())
		}
	}

	elapsed := time.Since(start)
	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", elapsed,
		"shutdownDuration", time.Since(shutdownStart))

	return logger.Close()
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
