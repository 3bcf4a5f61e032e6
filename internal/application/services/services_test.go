package services

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/manager"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
)

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		DefaultLevel:    slog.LevelError,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		t.Fatalf("NewChanneledLogger() error: %v", err)
	}
	return logger
}

func newTestTracker() *performance.Tracker {
	return performance.NewTracker(performance.DefaultTrackerConfig())
}

func newTestCache(t *testing.T) *manager.Manager {
	t.Helper()
	return manager.NewManager(newTestLogger(t))
}

// fakeClock is a controllable time source shared by the service tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeBroadcaster records presence count broadcasts.
type fakeBroadcaster struct {
	mu     sync.Mutex
	counts []int
}

func (b *fakeBroadcaster) AddClient(sessionID string) chan string { return make(chan string, 1) }
func (b *fakeBroadcaster) RemoveClient(ch chan string, sessionID string) {}
func (b *fakeBroadcaster) GetConnectionCount() int                { return 0 }

func (b *fakeBroadcaster) BroadcastPresenceCount(count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts = append(b.counts, count)
}

func (b *fakeBroadcaster) broadcasts() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.counts...)
}
