package services

import (
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/manager"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/types"
	"github.com/pixreview/pixreview-go/internal/infrastructure/messaging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/pixreview/pixreview-go/pkg/config"
)

// PresenceService maintains the best-effort registry of live sessions.
// Counts are eventually consistent: the active window bounds staleness
// and the cleanup worker physically removes aged-out entries.
type PresenceService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	cache       *manager.Manager
	broadcaster messaging.Broadcaster
	nowFn       func() time.Time
}

// NewPresenceService creates a new presence service
func NewPresenceService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, cache *manager.Manager, broadcaster messaging.Broadcaster) *PresenceService {
	return &PresenceService{
		logger:      logger,
		perfTracker: perfTracker,
		cache:       cache,
		broadcaster: broadcaster,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the service clock. Intended for tests.
func (s *PresenceService) SetClock(nowFn func() time.Time) {
	s.nowFn = nowFn
}

// PresenceResult holds the outcome of a presence operation.
type PresenceResult struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	ActiveCount int    `json:"activeCount"`
}

// Heartbeat refreshes the caller's entry with a snapshot of its funnel
// progress and returns the active count including the caller.
func (s *PresenceService) Heartbeat(sessionID string) *PresenceResult {
	marker := s.perfTracker.StartOperation("presence:heartbeat")
	defer marker.Complete()

	if sessionID == "" {
		marker.SetSuccess(false)
		return &PresenceResult{Success: false, Error: "session id is required"}
	}

	now := s.nowFn()

	userName := ""
	step := funnel.StepWelcome
	evaluations := 0
	if session, found := s.cache.GetSession(sessionID); found {
		userName = session.UserName
		step = session.Step
		evaluations = session.EvaluationsCount
	}

	before := s.cache.CountActivePresence(now, config.ActiveWindow)
	s.cache.RecordHeartbeat(sessionID, userName, step, evaluations, now)
	count := s.cache.CountActivePresence(now, config.ActiveWindow)

	if count != before {
		s.broadcaster.BroadcastPresenceCount(count)
	}

	marker.SetSuccess(true)
	return &PresenceResult{Success: true, ActiveCount: count}
}

// Leave removes the caller's entry proactively, the best-effort unload
// path. Watchers are notified when the count actually changed.
func (s *PresenceService) Leave(sessionID string) *PresenceResult {
	marker := s.perfTracker.StartOperation("presence:leave")
	defer marker.Complete()

	if sessionID == "" {
		marker.SetSuccess(false)
		return &PresenceResult{Success: false, Error: "session id is required"}
	}

	removed := s.cache.RemovePresence(sessionID)
	count := s.cache.CountActivePresence(s.nowFn(), config.ActiveWindow)

	if removed {
		s.broadcaster.BroadcastPresenceCount(count)
		s.logger.Presence().Debug("Session left", "sessionId", sessionID, "activeCount", count)
	}

	marker.SetSuccess(true)
	return &PresenceResult{Success: true, ActiveCount: count}
}

// Count returns the active count without writing, the observe-only path.
func (s *PresenceService) Count() *PresenceResult {
	count := s.cache.CountActivePresence(s.nowFn(), config.ActiveWindow)
	return &PresenceResult{Success: true, ActiveCount: count}
}

// Roster returns the active sessions that moved past the Welcome step,
// for the admin view.
func (s *PresenceService) Roster() []types.PresenceEntry {
	marker := s.perfTracker.StartOperation("presence:roster")
	defer marker.Complete()

	entries := s.cache.ActivePresenceEntries(s.nowFn(), config.ActiveWindow)
	roster := make([]types.PresenceEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Step != funnel.StepWelcome {
			roster = append(roster, entry)
		}
	}

	marker.SetSuccess(true)
	return roster
}
