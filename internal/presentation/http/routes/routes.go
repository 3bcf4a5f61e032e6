// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/pixreview/pixreview-go/internal/application/container"
	"github.com/pixreview/pixreview-go/internal/presentation/http/handlers"
	"github.com/pixreview/pixreview-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	funnelHandlers := handlers.NewFunnelHandlers(container.FunnelService, container.Logger, container.PerfTracker)
	presenceHandlers := handlers.NewPresenceHandlers(container.PresenceService, container.Broadcaster, container.Logger, container.PerfTracker)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	adminHandlers := handlers.NewAdminHandlers(container.LeadService, container.ExportService, container.Logger, container.PerfTracker)
	rosterHandlers := handlers.NewRosterHandlers(container.RosterBroadcaster, container.Logger, container.PerfTracker)
	settingsHandlers := handlers.NewSettingsHandlers(container.SettingsService, container.Logger, container.PerfTracker)
	systemHandlers := handlers.NewSystemHandlers(container)

	api := r.Group("/api/v1")
	{
		// Funnel lifecycle
		funnelGroup := api.Group("/funnel")
		{
			funnelGroup.POST("/session", funnelHandlers.PostSession)
			funnelGroup.GET("/state", funnelHandlers.GetState)
			funnelGroup.POST("/name", funnelHandlers.PostName)
			funnelGroup.POST("/advance", funnelHandlers.PostAdvance)
			funnelGroup.POST("/rate", funnelHandlers.PostRate)
			funnelGroup.POST("/feedback", funnelHandlers.PostFeedback)
			funnelGroup.POST("/withdraw", funnelHandlers.PostWithdraw)
		}

		// Presence heartbeat and live count
		presenceGroup := api.Group("/presence")
		{
			presenceGroup.POST("/heartbeat", presenceHandlers.PostHeartbeat)
			presenceGroup.POST("/leave", presenceHandlers.PostLeave)
			presenceGroup.GET("/count", presenceHandlers.GetCount)
			presenceGroup.GET("/sse", presenceHandlers.GetStream)
		}

		// Public presentation data
		api.GET("/catalog", funnelHandlers.GetCatalog)
		api.GET("/settings", settingsHandlers.GetSettings)
		api.GET("/health", systemHandlers.GetHealth)

		// Operator authentication
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.POST("/logout", authHandlers.PostLogout)
			auth.GET("/status", authHandlers.GetAuthStatus)
		}

		// Admin endpoints behind the JWT cookie
		admin := api.Group("/admin")
		admin.Use(authHandlers.AdminOnlyMiddleware())
		{
			admin.GET("/records", adminHandlers.GetRecords)
			admin.GET("/records/:id", adminHandlers.GetRecord)
			admin.GET("/stats", adminHandlers.GetStats)
			admin.GET("/export", adminHandlers.GetExport)
			admin.GET("/export/report", adminHandlers.GetReport)
			admin.GET("/roster", rosterHandlers.GetRoster)
			admin.GET("/live", rosterHandlers.GetLive)
			admin.PUT("/settings", settingsHandlers.PutSettings)
			admin.GET("/logs/levels", systemHandlers.GetLogLevels)
			admin.POST("/logs/levels", systemHandlers.PostLogLevel)
		}
	}

	return r
}
