package handlers

import (
	"net/http"
	"time"

	"github.com/pixreview/pixreview-go/internal/infrastructure/messaging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	rosterWriteWait  = 10 * time.Second
	rosterPongWait   = 60 * time.Second
	rosterPingPeriod = (rosterPongWait * 9) / 10
)

var rosterUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Admin socket is guarded by the JWT middleware upstream
		return true
	},
}

// RosterHandlers contains the live session roster HTTP handlers
type RosterHandlers struct {
	broadcaster *messaging.RosterBroadcaster
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewRosterHandlers creates roster handlers with injected dependencies
func NewRosterHandlers(broadcaster *messaging.RosterBroadcaster, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *RosterHandlers {
	return &RosterHandlers{
		broadcaster: broadcaster,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetRoster handles GET /api/v1/admin/roster - a point-in-time snapshot of
// live sessions for dashboards that do not hold a websocket open
func (h *RosterHandlers) GetRoster(c *gin.Context) {
	marker := h.perfTracker.StartOperation("admin:get_roster_request")
	defer marker.Complete()

	payload := h.broadcaster.BuildPayload(time.Now().UTC())

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, payload)
}

// GetLive handles GET /api/v1/admin/live - upgrades to a websocket that
// streams the roster on every broadcast tick
func (h *RosterHandlers) GetLive(c *gin.Context) {
	conn, err := rosterUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.SSE().Error("Roster websocket upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.RosterClient{
		Conn: conn,
		Send: make(chan []byte, 16),
	}
	h.broadcaster.Register(client)

	go h.writePump(client)
	go h.readPump(client)
}

// writePump forwards broadcast payloads to the websocket and keeps the
// connection alive with pings.
func (h *RosterHandlers) writePump(client *messaging.RosterClient) {
	ticker := time.NewTicker(rosterPingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(rosterWriteWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(rosterWriteWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so pong handlers run and unregisters the
// client when the peer goes away.
func (h *RosterHandlers) readPump(client *messaging.RosterClient) {
	defer func() {
		h.broadcaster.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(rosterPongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(rosterPongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.SSE().Warn("Roster websocket closed unexpectedly", "error", err.Error())
			}
			return
		}
	}
}
