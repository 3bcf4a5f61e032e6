package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pixreview/pixreview-go/internal/application/services"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// AdminHandlers contains lead inspection and export HTTP handlers
type AdminHandlers struct {
	leadService   *services.LeadService
	exportService *services.ExportService
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

// NewAdminHandlers creates admin handlers with injected dependencies
func NewAdminHandlers(leadService *services.LeadService, exportService *services.ExportService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AdminHandlers {
	return &AdminHandlers{
		leadService:   leadService,
		exportService: exportService,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

// GetRecords handles GET /api/v1/admin/records - all captured leads, newest first
func (h *AdminHandlers) GetRecords(c *gin.Context) {
	marker := h.perfTracker.StartOperation("admin:get_records_request")
	defer marker.Complete()

	records, err := h.leadService.ListRecords()
	if err != nil {
		h.logger.LogError(logging.ChannelDatabase, "admin_get_records", err, nil)
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load records"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"records": records, "total": len(records)})
}

// GetRecord handles GET /api/v1/admin/records/:id - one lead with evaluations
func (h *AdminHandlers) GetRecord(c *gin.Context) {
	marker := h.perfTracker.StartOperation("admin:get_record_request")
	defer marker.Complete()

	record, err := h.leadService.GetRecord(c.Param("id"))
	if err != nil || record == nil {
		marker.SetSuccess(false)
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, record)
}

// GetStats handles GET /api/v1/admin/stats - aggregate lead statistics
func (h *AdminHandlers) GetStats(c *gin.Context) {
	marker := h.perfTracker.StartOperation("admin:get_stats_request")
	defer marker.Complete()

	stats, err := h.leadService.Stats()
	if err != nil {
		h.logger.LogError(logging.ChannelDatabase, "admin_get_stats", err, nil)
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, stats)
}

// GetExport handles GET /api/v1/admin/export - full JSON download
func (h *AdminHandlers) GetExport(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("admin:get_export_request")
	defer marker.Complete()

	data, err := h.exportService.ExportJSON()
	if err != nil {
		h.logger.LogError(logging.ChannelDatabase, "admin_export", err, nil)
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		return
	}

	filename := fmt.Sprintf("pixreview-leads-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	marker.SetSuccess(true)
	h.logger.System().Info("Lead export generated", "bytes", len(data), "duration", time.Since(start))
	c.Data(http.StatusOK, "application/json", data)
}

// GetReport handles GET /api/v1/admin/report - plain text summary report
func (h *AdminHandlers) GetReport(c *gin.Context) {
	marker := h.perfTracker.StartOperation("admin:get_report_request")
	defer marker.Complete()

	report, err := h.exportService.ExportReport()
	if err != nil {
		h.logger.LogError(logging.ChannelDatabase, "admin_report", err, nil)
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Report generation failed"})
		return
	}

	marker.SetSuccess(true)
	c.String(http.StatusOK, report)
}
