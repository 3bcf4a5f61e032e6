package services

import (
	"testing"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/pkg/config"
)

func newPresenceFixture(t *testing.T) (*PresenceService, *fakeClock, *fakeBroadcaster) {
	t.Helper()

	clock := newFakeClock()
	broadcaster := &fakeBroadcaster{}
	svc := NewPresenceService(newTestLogger(t), newTestTracker(), newTestCache(t), broadcaster)
	svc.SetClock(clock.Now)
	return svc, clock, broadcaster
}

func TestHeartbeatCountsEachSessionOnce(t *testing.T) {
	svc, _, _ := newPresenceFixture(t)

	if result := svc.Heartbeat("session-a"); result.ActiveCount != 1 {
		t.Fatalf("first heartbeat count = %d, want 1", result.ActiveCount)
	}
	if result := svc.Heartbeat("session-a"); result.ActiveCount != 1 {
		t.Fatalf("repeated heartbeat count = %d, want 1", result.ActiveCount)
	}
	if result := svc.Heartbeat("session-b"); result.ActiveCount != 2 {
		t.Fatalf("second session count = %d, want 2", result.ActiveCount)
	}
}

func TestHeartbeatRequiresSessionID(t *testing.T) {
	svc, _, _ := newPresenceFixture(t)

	if result := svc.Heartbeat(""); result.Success {
		t.Fatal("Heartbeat(\"\") succeeded, want failure")
	}
}

func TestStaleSessionsDropOutOfTheCount(t *testing.T) {
	svc, clock, _ := newPresenceFixture(t)

	svc.Heartbeat("session-a")
	svc.Heartbeat("session-b")

	// Keep only session-b fresh across the active window.
	clock.Advance(config.ActiveWindow / 2)
	svc.Heartbeat("session-b")

	clock.Advance(config.ActiveWindow/2 + 1)
	if result := svc.Count(); result.ActiveCount != 1 {
		t.Fatalf("count after window = %d, want 1", result.ActiveCount)
	}

	clock.Advance(config.ActiveWindow)
	if result := svc.Count(); result.ActiveCount != 0 {
		t.Fatalf("count after everything aged out = %d, want 0", result.ActiveCount)
	}
}

func TestLeaveRemovesAndBroadcasts(t *testing.T) {
	svc, _, broadcaster := newPresenceFixture(t)

	svc.Heartbeat("session-a")
	svc.Heartbeat("session-b")

	result := svc.Leave("session-a")
	if !result.Success || result.ActiveCount != 1 {
		t.Fatalf("Leave() = %+v, want success with count 1", result)
	}

	broadcasts := broadcaster.broadcasts()
	if len(broadcasts) == 0 || broadcasts[len(broadcasts)-1] != 1 {
		t.Errorf("broadcasts = %v, want trailing count 1", broadcasts)
	}

	// Leaving twice is harmless and does not broadcast again.
	before := len(broadcaster.broadcasts())
	svc.Leave("session-a")
	if after := len(broadcaster.broadcasts()); after != before {
		t.Errorf("repeat leave broadcast: %d -> %d", before, after)
	}
}

func TestBroadcastOnlyOnCountChange(t *testing.T) {
	svc, _, broadcaster := newPresenceFixture(t)

	svc.Heartbeat("session-a")
	first := len(broadcaster.broadcasts())
	if first != 1 {
		t.Fatalf("broadcasts after first heartbeat = %d, want 1", first)
	}

	svc.Heartbeat("session-a")
	svc.Heartbeat("session-a")
	if got := len(broadcaster.broadcasts()); got != first {
		t.Errorf("refresh heartbeats broadcast %d times, want %d", got, first)
	}
}

func TestRosterExcludesWelcomeSessions(t *testing.T) {
	logger := newTestLogger(t)
	tracker := newTestTracker()
	cache := newTestCache(t)
	clock := newFakeClock()
	broadcaster := &fakeBroadcaster{}

	svc := NewPresenceService(logger, tracker, cache, broadcaster)
	svc.SetClock(clock.Now)

	now := clock.Now()
	cache.RecordHeartbeat("session-welcome", "", funnel.StepWelcome, 0, now)
	cache.RecordHeartbeat("session-eval", "Marcos", funnel.StepEvaluating, 3, now)
	cache.RecordHeartbeat("session-done", "Lia", funnel.StepComplete, 7, now)

	roster := svc.Roster()
	if len(roster) != 2 {
		t.Fatalf("roster has %d entries, want 2", len(roster))
	}
	for _, entry := range roster {
		if entry.Step == funnel.StepWelcome {
			t.Errorf("welcome session %q in roster", entry.SessionID)
		}
	}
}
