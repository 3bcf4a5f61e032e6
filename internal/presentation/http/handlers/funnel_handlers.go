// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/pixreview/pixreview-go/internal/application/services"
	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/pixreview/pixreview-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// FunnelHandlers contains all funnel lifecycle HTTP handlers
type FunnelHandlers struct {
	funnelService *services.FunnelService
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

// NewFunnelHandlers creates funnel handlers with injected dependencies
func NewFunnelHandlers(funnelService *services.FunnelService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *FunnelHandlers {
	return &FunnelHandlers{
		funnelService: funnelService,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

func (h *FunnelHandlers) respond(c *gin.Context, result *services.FunnelResult) {
	if result.NotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found or expired"})
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": result.Error})
		return
	}
	c.JSON(http.StatusOK, result.State)
}

// PostSession handles POST /api/v1/funnel/session - creates a new funnel session
func (h *FunnelHandlers) PostSession(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("funnel:post_session_request")
	defer marker.Complete()

	result := h.funnelService.CreateSession()

	marker.SetSuccess(result.Success)
	h.logger.Funnel().Debug("Session create request handled", "success", result.Success, "duration", time.Since(start))
	h.respond(c, result)
}

// GetState handles GET /api/v1/funnel/state - returns the session's current snapshot
func (h *FunnelHandlers) GetState(c *gin.Context) {
	marker := h.perfTracker.StartOperation("funnel:get_state_request")
	defer marker.Complete()

	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	result := h.funnelService.GetState(sessionID)
	marker.SetSuccess(result.Success)
	h.respond(c, result)
}

// PostName handles POST /api/v1/funnel/name - submits the visitor's name
func (h *FunnelHandlers) PostName(c *gin.Context) {
	marker := h.perfTracker.StartOperation("funnel:post_name_request")
	defer marker.Complete()

	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.funnelService.SubmitName(sessionID, req.Name)
	marker.SetSuccess(result.Success)
	h.respond(c, result)
}

// PostAdvance handles POST /api/v1/funnel/advance - leaves the explainer or
// dismisses a pending interlude
func (h *FunnelHandlers) PostAdvance(c *gin.Context) {
	marker := h.perfTracker.StartOperation("funnel:post_advance_request")
	defer marker.Complete()

	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	result := h.funnelService.Advance(sessionID)
	marker.SetSuccess(result.Success)
	h.respond(c, result)
}

// PostRate handles POST /api/v1/funnel/rate - rates the current product
func (h *FunnelHandlers) PostRate(c *gin.Context) {
	marker := h.perfTracker.StartOperation("funnel:post_rate_request")
	defer marker.Complete()

	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	var req struct {
		Rating string `json:"rating" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.funnelService.Rate(sessionID, funnel.Rating(req.Rating))
	marker.SetSuccess(result.Success)
	h.respond(c, result)
}

// PostFeedback handles POST /api/v1/funnel/feedback - resolves the feedback
// prompt raised by a disliked rating
func (h *FunnelHandlers) PostFeedback(c *gin.Context) {
	marker := h.perfTracker.StartOperation("funnel:post_feedback_request")
	defer marker.Complete()

	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	var req struct {
		Feedback string `json:"feedback"`
		Declined bool   `json:"declined"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.funnelService.SubmitFeedback(sessionID, req.Feedback, req.Declined)
	marker.SetSuccess(result.Success)
	h.respond(c, result)
}

// PostWithdraw handles POST /api/v1/funnel/withdraw - captures withdrawal
// details and resets the session
func (h *FunnelHandlers) PostWithdraw(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("funnel:post_withdraw_request")
	defer marker.Complete()

	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	var req struct {
		FullName           string `json:"fullName" binding:"required"`
		PixKey             string `json:"pixKey" binding:"required"`
		WhatsApp           string `json:"whatsapp" binding:"required"`
		AllowFutureContact bool   `json:"allowFutureContact"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.funnelService.Withdraw(sessionID, req.FullName, req.PixKey, req.WhatsApp, req.AllowFutureContact)
	marker.SetSuccess(result.Success)
	h.logger.Funnel().Info("Withdraw request handled", "success", result.Success, "duration", time.Since(start))
	h.respond(c, result)
}

// GetCatalog handles GET /api/v1/funnel/catalog - returns the product script
func (h *FunnelHandlers) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products": funnel.DefaultCatalog,
		"total":    len(funnel.DefaultCatalog),
	})
}
