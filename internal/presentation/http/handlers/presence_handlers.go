package handlers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pixreview/pixreview-go/internal/application/services"
	"github.com/pixreview/pixreview-go/internal/infrastructure/messaging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/pixreview/pixreview-go/internal/presentation/http/middleware"
	"github.com/pixreview/pixreview-go/pkg/config"
	"github.com/gin-gonic/gin"
)

const maxSSEConnections = 1000

var activeSSEConnections int64

// PresenceHandlers contains heartbeat and live-count HTTP handlers
type PresenceHandlers struct {
	presenceService *services.PresenceService
	broadcaster     *messaging.SSEBroadcaster
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewPresenceHandlers creates presence handlers with injected dependencies
func NewPresenceHandlers(presenceService *services.PresenceService, broadcaster *messaging.SSEBroadcaster, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PresenceHandlers {
	return &PresenceHandlers{
		presenceService: presenceService,
		broadcaster:     broadcaster,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// PostHeartbeat handles POST /api/v1/presence/heartbeat
func (h *PresenceHandlers) PostHeartbeat(c *gin.Context) {
	marker := h.perfTracker.StartOperation("presence:heartbeat_request")
	defer marker.Complete()

	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	result := h.presenceService.Heartbeat(sessionID)
	marker.SetSuccess(result.Success)

	c.JSON(http.StatusOK, gin.H{"count": result.ActiveCount})
}

// PostLeave handles POST /api/v1/presence/leave - explicit departure, also
// the target of navigator.sendBeacon on page unload
func (h *PresenceHandlers) PostLeave(c *gin.Context) {
	marker := h.perfTracker.StartOperation("presence:leave_request")
	defer marker.Complete()

	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
		return
	}

	result := h.presenceService.Leave(sessionID)
	marker.SetSuccess(result.Success)

	c.JSON(http.StatusOK, gin.H{"count": result.ActiveCount})
}

// GetCount handles GET /api/v1/presence/count - point-in-time active count
func (h *PresenceHandlers) GetCount(c *gin.Context) {
	result := h.presenceService.Count()
	c.JSON(http.StatusOK, gin.H{"count": result.ActiveCount})
}

// GetStream handles GET /api/v1/presence/sse - establishes a
// Server-Sent Events connection carrying live count updates
func (h *PresenceHandlers) GetStream(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("presence:sse_stream_request")
	defer marker.Complete()

	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		h.logger.SSE().Error("SSE connection request missing session ID")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required for SSE connection"})
		return
	}

	currentConnections := atomic.LoadInt64(&activeSSEConnections)
	if currentConnections >= maxSSEConnections {
		h.logger.SSE().Warn("SSE connection limit reached",
			"sessionId", sessionID,
			"currentConnections", currentConnections,
			"maxConnections", maxSSEConnections)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "SSE connection limit reached. Please try again later.",
		})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := h.broadcaster.AddClient(sessionID)

	atomic.AddInt64(&activeSSEConnections, 1)
	defer func() {
		atomic.AddInt64(&activeSSEConnections, -1)
		h.broadcaster.RemoveClient(ch, sessionID)
	}()

	// Initial payload so the client renders a count immediately
	count := h.presenceService.Count().ActiveCount
	if _, err := fmt.Fprintf(c.Writer, "event: presence_count\ndata: {\"count\":%d}\n\n", count); err != nil {
		return
	}
	c.Writer.Flush()

	h.logger.LogSSEEvent("connected", sessionID, h.broadcaster.GetConnectionCount())
	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetStream request", "duration", time.Since(start), "success", true)

	clientCtx := c.Request.Context()
	ticker := time.NewTicker(config.SSEHeartbeatInterval)
	defer ticker.Stop()

	connectionStart := time.Now()
	for {
		select {
		case <-clientCtx.Done():
			h.logger.SSE().Info("SSE client disconnected",
				"sessionId", sessionID,
				"connectionDuration", time.Since(connectionStart))
			return

		case message, ok := <-ch:
			if !ok {
				h.logger.SSE().Info("SSE connection channel closed",
					"sessionId", sessionID,
					"connectionDuration", time.Since(connectionStart))
				return
			}
			if _, err := c.Writer.WriteString(message); err != nil {
				h.logger.SSE().Error("SSE write failed", "sessionId", sessionID, "error", err.Error())
				return
			}
			c.Writer.Flush()

		case <-ticker.C:
			// Comment line keeps proxies from timing the stream out
			if _, err := fmt.Fprintf(c.Writer, ": heartbeat %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
