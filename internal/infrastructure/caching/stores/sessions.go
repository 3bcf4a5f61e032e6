// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/types"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
)

// SessionsStore implements funnel session caching operations
type SessionsStore struct {
	sessions map[string]*types.FunnelSession
	mu       sync.RWMutex
	logger   *logging.ChanneledLogger
}

// NewSessionsStore creates a new sessions cache store
func NewSessionsStore(logger *logging.ChanneledLogger) *SessionsStore {
	if logger != nil {
		logger.Cache().Info("Initializing sessions cache store")
	}
	return &SessionsStore{
		sessions: make(map[string]*types.FunnelSession),
		logger:   logger,
	}
}

// GetSession retrieves session data by session ID. Expired sessions are
// treated as misses but left for the cleanup worker to remove. The
// returned session is a private copy; writers publish changes back
// through SetSession. Services mutate sessions outside the store lock,
// so the stored session is never handed out directly.
func (ss *SessionsStore) GetSession(sessionID string) (*types.FunnelSession, bool) {
	start := time.Now()
	ss.mu.RLock()
	stored, found := ss.sessions[sessionID]
	var session *types.FunnelSession
	if found {
		copied := *stored
		session = &copied
	}
	ss.mu.RUnlock()

	if found && session.IsExpired(time.Now().UTC()) {
		if ss.logger != nil {
			ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "sessionId", sessionID, "hit", false, "reason", "expired", "duration", time.Since(start))
		}
		return nil, false
	}

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "sessionId", sessionID, "hit", found, "duration", time.Since(start))
	}
	return session, found
}

// SetSession stores a copy of the session data, so the caller's pointer
// stays private after publication.
func (ss *SessionsStore) SetSession(session *types.FunnelSession) {
	start := time.Now()
	stored := *session
	ss.mu.Lock()
	ss.sessions[session.SessionID] = &stored
	ss.mu.Unlock()

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "set", "type", "session", "sessionId", session.SessionID, "step", string(session.Step), "duration", time.Since(start))
	}
}

// RemoveSession deletes a session from the cache
func (ss *SessionsStore) RemoveSession(sessionID string) {
	ss.mu.Lock()
	delete(ss.sessions, sessionID)
	ss.mu.Unlock()

	if ss.logger != nil {
		ss.logger.Cache().Debug("Cache operation", "operation", "remove", "type", "session", "sessionId", sessionID)
	}
}

// TouchSession refreshes a session's activity timestamps and expiry
func (ss *SessionsStore) TouchSession(sessionID string, ttl time.Duration) bool {
	now := time.Now().UTC()
	ss.mu.Lock()
	defer ss.mu.Unlock()

	session, found := ss.sessions[sessionID]
	if !found {
		return false
	}
	session.LastActivity = now
	session.ExpiresAt = now.Add(ttl)
	return true
}

// SessionCount returns the number of cached sessions, expired included
func (ss *SessionsStore) SessionCount() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// PurgeExpiredSessions removes every expired session and returns the count
func (ss *SessionsStore) PurgeExpiredSessions(now time.Time) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	purged := 0
	for id, session := range ss.sessions {
		if session.IsExpired(now) {
			delete(ss.sessions, id)
			purged++
		}
	}

	if purged > 0 && ss.logger != nil {
		ss.logger.Cache().Info("Expired sessions purged", "count", purged)
	}
	return purged
}
