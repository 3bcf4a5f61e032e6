package messaging

import (
	"log/slog"
	"testing"
	"time"

	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/manager"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/types"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
)

func newQuietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		DefaultLevel:  slog.LevelError,
		ChannelLevels: make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		t.Fatalf("NewChanneledLogger() error: %v", err)
	}
	return logger
}

func TestBuildPayloadJoinsPresenceWithSessions(t *testing.T) {
	logger := newQuietLogger(t)
	cache := manager.NewManager(logger)
	broadcaster := NewRosterBroadcaster(cache, logger)

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	cache.RecordHeartbeat("s-welcome", "", funnel.StepWelcome, 0, now)
	cache.RecordHeartbeat("s-eval", "Marcos", funnel.StepEvaluating, 3, now)
	cache.RecordHeartbeat("s-done", "Lia", funnel.StepComplete, 7, now)

	cache.SetSession(&types.FunnelSession{
		SessionID:            "s-eval",
		Step:                 funnel.StepEvaluating,
		UserName:             "Marcos",
		Balance:              432.10,
		EvaluationsCount:     3,
		PendingFeedbackIndex: -1,
		LastActivity:         now,
		ExpiresAt:            now.Add(time.Hour),
	})

	payload := broadcaster.BuildPayload(now)

	// Everyone active counts, welcome screens stay off the roster.
	if payload.ActiveCount != 3 {
		t.Errorf("ActiveCount = %d, want 3", payload.ActiveCount)
	}
	if len(payload.Entries) != 2 {
		t.Fatalf("roster has %d entries, want 2", len(payload.Entries))
	}
	if payload.EvaluatingAt != 1 || payload.CompletedCount != 1 || payload.NamedCount != 2 {
		t.Errorf("tallies = evaluating %d, completed %d, named %d",
			payload.EvaluatingAt, payload.CompletedCount, payload.NamedCount)
	}

	for _, entry := range payload.Entries {
		if entry.SessionID == "s-eval" && entry.Balance != 432.10 {
			t.Errorf("session join lost balance: %+v", entry)
		}
		if entry.SessionID == "s-welcome" {
			t.Error("welcome session on roster")
		}
	}
}
