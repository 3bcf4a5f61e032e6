package cleanup

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

func TestPerformCleanupPrunesAndNotifies(t *testing.T) {
	logger := newQuietLogger(t)
	cache := manager.NewManager(logger)

	now := time.Now().UTC()
	window := 30 * time.Second

	cache.RecordHeartbeat("fresh", "Ana", funnel.StepEvaluating, 1, now)
	cache.RecordHeartbeat("stale", "", funnel.StepWelcome, 0, now.Add(-2*window))

	cache.SetSession(&types.FunnelSession{
		SessionID:            "expired-session",
		Step:                 funnel.StepWelcome,
		PendingFeedbackIndex: -1,
		ExpiresAt:            now.Add(-time.Minute),
	})

	worker := NewWorker(cache, &Config{
		CompactionInterval: time.Second,
		ActiveWindow:       window,
		SessionTTL:         time.Hour,
	}, logger)

	var notified []int
	worker.OnPresenceChange = func(count int) { notified = append(notified, count) }

	worker.performCleanup()

	if got := cache.PresenceEntryCount(); got != 1 {
		t.Errorf("presence entries after cleanup = %d, want 1", got)
	}
	if got := cache.SessionCount(); got != 0 {
		t.Errorf("sessions after cleanup = %d, want 0", got)
	}
	if len(notified) != 1 || notified[0] != 1 {
		t.Errorf("OnPresenceChange calls = %v, want [1]", notified)
	}

	// A pass that removes nothing stays silent.
	notified = nil
	worker.performCleanup()
	if len(notified) != 0 {
		t.Errorf("no-op cleanup notified %v", notified)
	}
}
