package stores

import (
	"sort"
	"sync"
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/types"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
)

// PresenceStore implements the heartbeat registry behind the live
// visitor count. Entries are written on every heartbeat and pruned
// by the cleanup worker once they fall outside the active window.
type PresenceStore struct {
	entries map[string]*types.PresenceEntry
	mu      sync.RWMutex
	logger  *logging.ChanneledLogger
}

// NewPresenceStore creates a new presence cache store
func NewPresenceStore(logger *logging.ChanneledLogger) *PresenceStore {
	if logger != nil {
		logger.Cache().Info("Initializing presence cache store")
	}
	return &PresenceStore{
		entries: make(map[string]*types.PresenceEntry),
		logger:  logger,
	}
}

// RecordHeartbeat upserts the entry for a session at the given instant,
// refreshing the funnel snapshot carried by the entry.
func (ps *PresenceStore) RecordHeartbeat(sessionID, userName string, step funnel.Step, evaluations int, now time.Time) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	entry, found := ps.entries[sessionID]
	if !found {
		ps.entries[sessionID] = &types.PresenceEntry{
			SessionID:        sessionID,
			UserName:         userName,
			Step:             step,
			EvaluationsCount: evaluations,
			FirstSeen:        now,
			LastSeen:         now,
		}
		if ps.logger != nil {
			ps.logger.Cache().Debug("Cache operation", "operation", "set", "type", "presence", "sessionId", sessionID, "new", true)
		}
		return
	}
	entry.UserName = userName
	entry.Step = step
	entry.EvaluationsCount = evaluations
	entry.LastSeen = now
}

// RemoveEntry deletes a session's presence entry, used on proactive leave
func (ps *PresenceStore) RemoveEntry(sessionID string) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, found := ps.entries[sessionID]; !found {
		return false
	}
	delete(ps.entries, sessionID)

	if ps.logger != nil {
		ps.logger.Cache().Debug("Cache operation", "operation", "remove", "type", "presence", "sessionId", sessionID)
	}
	return true
}

// CountActive returns how many entries heartbeated within the window
func (ps *PresenceStore) CountActive(now time.Time, window time.Duration) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	count := 0
	for _, entry := range ps.entries {
		if entry.ActiveWithin(now, window) {
			count++
		}
	}
	return count
}

// ActiveEntries returns copies of the entries active within the window,
// ordered by first-seen time so the roster is stable across reads.
func (ps *PresenceStore) ActiveEntries(now time.Time, window time.Duration) []types.PresenceEntry {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	active := make([]types.PresenceEntry, 0, len(ps.entries))
	for _, entry := range ps.entries {
		if entry.ActiveWithin(now, window) {
			active = append(active, *entry)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].FirstSeen.Before(active[j].FirstSeen)
	})
	return active
}

// EntryCount returns the total number of entries, stale included
func (ps *PresenceStore) EntryCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.entries)
}

// PruneStale removes entries outside the window and returns the count
func (ps *PresenceStore) PruneStale(now time.Time, window time.Duration) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	pruned := 0
	for id, entry := range ps.entries {
		if !entry.ActiveWithin(now, window) {
			delete(ps.entries, id)
			pruned++
		}
	}

	if pruned > 0 && ps.logger != nil {
		ps.logger.Cache().Debug("Stale presence entries pruned", "count", pruned)
	}
	return pruned
}
