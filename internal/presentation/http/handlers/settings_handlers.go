package handlers

import (
	"net/http"

	"github.com/pixreview/pixreview-go/internal/application/services"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// SettingsHandlers contains funnel configuration HTTP handlers
type SettingsHandlers struct {
	settingsService *services.SettingsService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewSettingsHandlers creates settings handlers with injected dependencies
func NewSettingsHandlers(settingsService *services.SettingsService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SettingsHandlers {
	return &SettingsHandlers{
		settingsService: settingsService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// GetSettings handles GET /api/v1/settings - public funnel presentation
// settings (tracking pixel, video embeds)
func (h *SettingsHandlers) GetSettings(c *gin.Context) {
	marker := h.perfTracker.StartOperation("settings:get_request")
	defer marker.Complete()

	settings, err := h.settingsService.All()
	if err != nil {
		h.logger.LogError(logging.ChannelDatabase, "get_settings", err, nil)
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, settings)
}

// PutSettings handles PUT /api/v1/admin/settings - updates known settings
func (h *SettingsHandlers) PutSettings(c *gin.Context) {
	marker := h.perfTracker.StartOperation("settings:put_request")
	defer marker.Complete()

	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.settingsService.Update(values); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	marker.SetSuccess(true)
	h.logger.System().Info("Settings updated", "keys", len(values))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
