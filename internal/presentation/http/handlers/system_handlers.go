package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pixreview/pixreview-go/internal/application/container"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// SystemHandlers contains operational status HTTP handlers
type SystemHandlers struct {
	container *container.Container
}

// NewSystemHandlers creates system handlers with the full container since
// status reporting cuts across every subsystem
func NewSystemHandlers(c *container.Container) *SystemHandlers {
	return &SystemHandlers{container: c}
}

// GetHealth handles GET /api/v1/health - liveness plus subsystem status
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	dbStatus := "disabled"
	if h.container.DB != nil {
		if err := h.container.DB.Ping(); err != nil {
			dbStatus = "unreachable"
		} else {
			dbStatus = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbStatus,
		"cache":     h.container.CacheManager.GetStats(),
		"health":    h.container.PerfTracker.CalculateHealth(),
	})
}

// GetLogLevels handles GET /api/v1/admin/logs/levels
func (h *SystemHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.container.Logger.GetChannelLevels()})
}

// PostLogLevel handles POST /api/v1/admin/logs/levels - runtime log tuning
func (h *SystemHandlers) PostLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	level, err := parseLogLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.container.Logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level: %s", name)
}
