// Package messaging provides the concrete implementation of the SSE broadcaster.
package messaging

import (
	"fmt"
	"sync"

	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/pkg/config"
)

// SSEBroadcaster manages session-scoped SSE connections and pushes
// live presence counts to every connected browser.
type SSEBroadcaster struct {
	sessions map[string][]chan string // sessionId -> []channels
	mu       sync.Mutex
	logger   *logging.ChanneledLogger
}

var (
	globalBroadcaster *SSEBroadcaster
	once              sync.Once
)

// NewSSEBroadcaster creates the singleton SSEBroadcaster instance.
func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	once.Do(func() {
		globalBroadcaster = &SSEBroadcaster{
			sessions: make(map[string][]chan string),
			logger:   logger,
		}
	})
	return globalBroadcaster
}

// AddClient registers a new SSE client for a session.
func (b *SSEBroadcaster) AddClient(sessionID string) chan string {
	ch := make(chan string, config.SSEChannelBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[sessionID] = append(b.sessions[sessionID], ch)

	b.logger.SSE().Debug("SSE client registered", "sessionId", sessionID)
	return ch
}

// RemoveClient removes an SSE client for a session.
func (b *SSEBroadcaster) RemoveClient(ch chan string, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, exists := b.sessions[sessionID]; exists {
		newClients := make([]chan string, 0, len(clients)-1)
		for _, client := range clients {
			if client != ch {
				newClients = append(newClients, client)
			}
		}
		b.sessions[sessionID] = newClients

		if len(b.sessions[sessionID]) == 0 {
			delete(b.sessions, sessionID)
		}
	}
	b.logger.SSE().Debug("SSE client unregistered", "sessionId", sessionID)
}

// GetConnectionCount returns the total number of connected SSE clients.
func (b *SSEBroadcaster) GetConnectionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, clients := range b.sessions {
		total += len(clients)
	}
	return total
}

// BroadcastPresenceCount pushes the live visitor count to every client.
func (b *SSEBroadcaster) BroadcastPresenceCount(count int) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.SSE().Error("Panic recovered in BroadcastPresenceCount", "error", r)
		}
	}()

	message := fmt.Sprintf("event: presence_count\ndata: {\"count\":%d}\n\n", count)

	b.mu.Lock()
	defer b.mu.Unlock()

	clientCount := 0
	for sessionID, clients := range b.sessions {
		for _, ch := range clients {
			select {
			case ch <- message:
				clientCount++
			default:
				b.logger.SSE().Warn("SSE channel full, message dropped", "sessionId", sessionID)
			}
		}
	}

	b.logger.SSE().Debug("Presence count broadcasted", "count", count, "clients", clientCount)
}
