package messaging

import (
	"encoding/json"
	"time"

	"sync"

	"github.com/gorilla/websocket"
	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/manager"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/pkg/config"
)

// RosterClient represents a single connected admin dashboard client.
type RosterClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// RosterEntry represents the state of one live session for visualization.
type RosterEntry struct {
	SessionID    string      `json:"sessionId"`
	Step         funnel.Step `json:"step"`
	UserName     string      `json:"userName,omitempty"`
	Balance      float64     `json:"balance"`
	Evaluations  int         `json:"evaluations"`
	FirstSeen    time.Time   `json:"firstSeen"`
	LastActivity time.Time   `json:"lastActivity"`
}

// RosterPayload is the complete data structure sent to the dashboard on each tick.
type RosterPayload struct {
	Entries        []RosterEntry `json:"entries"`
	ActiveCount    int           `json:"activeCount"`
	EvaluatingAt   int           `json:"evaluatingCount"`
	CompletedCount int           `json:"completedCount"`
	NamedCount     int           `json:"namedCount"`
}

// RosterBroadcaster manages all connected admin clients and pushes the
// live session roster over websockets.
type RosterBroadcaster struct {
	clients      map[*RosterClient]bool
	register     chan *RosterClient
	unregister   chan *RosterClient
	cacheManager *manager.Manager
	logger       *logging.ChanneledLogger
	mu           sync.RWMutex
}

// NewRosterBroadcaster creates a new broadcaster instance.
func NewRosterBroadcaster(cm *manager.Manager, logger *logging.ChanneledLogger) *RosterBroadcaster {
	return &RosterBroadcaster{
		clients:      make(map[*RosterClient]bool),
		register:     make(chan *RosterClient),
		unregister:   make(chan *RosterClient),
		cacheManager: cm,
		logger:       logger,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *RosterBroadcaster) Run() {
	ticker := time.NewTicker(config.RosterTickInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			b.logger.SSE().Info("Roster client registered")

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mu.Unlock()
			b.logger.SSE().Info("Roster client unregistered")

		case <-ticker.C:
			b.broadcastRoster()
		}
	}
}

// Register queues a client for registration.
func (b *RosterBroadcaster) Register(client *RosterClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *RosterBroadcaster) Unregister(client *RosterClient) {
	b.unregister <- client
}

// broadcastRoster gathers and sends the roster to all connected clients.
func (b *RosterBroadcaster) broadcastRoster() {
	b.mu.RLock()
	hasClients := len(b.clients) > 0
	b.mu.RUnlock()
	if !hasClients {
		return
	}

	payload := b.BuildPayload(time.Now().UTC())

	message, err := json.Marshal(payload)
	if err != nil {
		b.logger.SSE().Error("Error marshaling roster payload", "error", err.Error())
		return
	}

	b.mu.RLock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
	b.mu.RUnlock()
}

// BuildPayload assembles the roster from the presence registry joined
// against the session cache. Sessions still on the welcome screen count
// toward ActiveCount but are left out of the entry list.
func (b *RosterBroadcaster) BuildPayload(now time.Time) *RosterPayload {
	entries := b.cacheManager.ActivePresenceEntries(now, config.ActiveWindow)

	payload := &RosterPayload{
		Entries:     make([]RosterEntry, 0, len(entries)),
		ActiveCount: len(entries),
	}

	for _, entry := range entries {
		if entry.Step == funnel.StepWelcome {
			continue
		}
		rosterEntry := RosterEntry{
			SessionID:    entry.SessionID,
			Step:         entry.Step,
			UserName:     entry.UserName,
			Evaluations:  entry.EvaluationsCount,
			FirstSeen:    entry.FirstSeen,
			LastActivity: entry.LastSeen,
		}

		if session, found := b.cacheManager.GetSession(entry.SessionID); found {
			rosterEntry.Balance = session.Balance
			rosterEntry.LastActivity = session.LastActivity
		}

		switch rosterEntry.Step {
		case funnel.StepEvaluating:
			payload.EvaluatingAt++
		case funnel.StepComplete:
			payload.CompletedCount++
		}
		if rosterEntry.UserName != "" {
			payload.NamedCount++
		}

		payload.Entries = append(payload.Entries, rosterEntry)
	}

	return payload
}
