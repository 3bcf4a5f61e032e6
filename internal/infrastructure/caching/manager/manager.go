// Package manager provides centralized cache operations by delegating
// to specialized stores.
package manager

import (
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/stores"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/types"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
)

// Manager fronts the session and presence stores so callers hold a
// single cache dependency.
type Manager struct {
	sessionsStore *stores.SessionsStore
	presenceStore *stores.PresenceStore
	logger        *logging.ChanneledLogger
}

func NewManager(logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "stores", []string{"sessions", "presence"})
	}

	return &Manager{
		sessionsStore: stores.NewSessionsStore(logger),
		presenceStore: stores.NewPresenceStore(logger),
		logger:        logger,
	}
}

// Session operations

func (m *Manager) GetSession(sessionID string) (*types.FunnelSession, bool) {
	return m.sessionsStore.GetSession(sessionID)
}

func (m *Manager) SetSession(session *types.FunnelSession) {
	m.sessionsStore.SetSession(session)
}

func (m *Manager) RemoveSession(sessionID string) {
	m.sessionsStore.RemoveSession(sessionID)
}

func (m *Manager) TouchSession(sessionID string, ttl time.Duration) bool {
	return m.sessionsStore.TouchSession(sessionID, ttl)
}

func (m *Manager) SessionCount() int {
	return m.sessionsStore.SessionCount()
}

func (m *Manager) PurgeExpiredSessions(now time.Time) int {
	return m.sessionsStore.PurgeExpiredSessions(now)
}

// Presence operations

func (m *Manager) RecordHeartbeat(sessionID, userName string, step funnel.Step, evaluations int, now time.Time) {
	m.presenceStore.RecordHeartbeat(sessionID, userName, step, evaluations, now)
}

func (m *Manager) RemovePresence(sessionID string) bool {
	return m.presenceStore.RemoveEntry(sessionID)
}

func (m *Manager) CountActivePresence(now time.Time, window time.Duration) int {
	return m.presenceStore.CountActive(now, window)
}

func (m *Manager) ActivePresenceEntries(now time.Time, window time.Duration) []types.PresenceEntry {
	return m.presenceStore.ActiveEntries(now, window)
}

func (m *Manager) PresenceEntryCount() int {
	return m.presenceStore.EntryCount()
}

func (m *Manager) PruneStalePresence(now time.Time, window time.Duration) int {
	return m.presenceStore.PruneStale(now, window)
}

// GetStats returns counts for the status endpoint
func (m *Manager) GetStats() map[string]any {
	return map[string]any{
		"sessions":        m.sessionsStore.SessionCount(),
		"presenceEntries": m.presenceStore.EntryCount(),
	}
}
