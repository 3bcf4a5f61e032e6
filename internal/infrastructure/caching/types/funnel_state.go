// Package types defines funnel session and presence data structures.
package types

import (
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
)

// FunnelSession represents ephemeral per-visitor funnel state. Sessions
// link the browser to the visitor's persistent record once one exists.
type FunnelSession struct {
	SessionID            string      `json:"sessionId"`
	Step                 funnel.Step `json:"step"`
	UserName             string      `json:"userName,omitempty"`
	RecordID             string      `json:"recordId,omitempty"`
	CurrentProductIndex  int         `json:"currentProductIndex"`
	Balance              float64     `json:"balance"`
	EvaluationsCount     int         `json:"evaluationsCount"`
	InterludePending     bool        `json:"interludePending"`
	PendingFeedbackIndex int         `json:"pendingFeedbackIndex"` // -1 when no feedback prompt is open
	CreatedAt            time.Time   `json:"createdAt"`
	LastActivity         time.Time   `json:"lastActivity"`
	ExpiresAt            time.Time   `json:"expiresAt"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *FunnelSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// PresenceEntry records the last heartbeat seen from a browser session,
// alongside a snapshot of its funnel progress for the admin roster.
type PresenceEntry struct {
	SessionID        string      `json:"sessionId"`
	UserName         string      `json:"userName,omitempty"`
	Step             funnel.Step `json:"step"`
	EvaluationsCount int         `json:"evaluationsCount"`
	FirstSeen        time.Time   `json:"firstSeen"`
	LastSeen         time.Time   `json:"lastSeen"`
}

// ActiveWithin reports whether the entry heartbeated strictly inside
// the window. An entry last seen exactly one window ago is stale.
func (p *PresenceEntry) ActiveWithin(now time.Time, window time.Duration) bool {
	return now.Sub(p.LastSeen) < window
}
