// Package cleanup provides the background compaction worker
package cleanup

import (
	"context"
	"time"

	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/manager"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
)

// Worker periodically compacts the presence registry and purges
// expired funnel sessions. Pruning here is what lets the live count
// converge when a browser disappears without a proactive leave.
type Worker struct {
	cache  *manager.Manager
	config *Config
	logger *logging.ChanneledLogger

	// Called with the active count after a compaction pass that
	// removed at least one entry, so watchers see the drop.
	OnPresenceChange func(count int)
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache *manager.Manager, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// Start begins the cleanup worker routine, using the configured interval
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CompactionInterval)
	defer ticker.Stop()

	w.logger.System().Info("Cache cleanup worker started",
		"interval", w.config.CompactionInterval,
		"activeWindow", w.config.ActiveWindow,
		"verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.performCleanup()
		}
	}
}

// performCleanup runs one compaction pass
func (w *Worker) performCleanup() {
	start := time.Now()
	now := start.UTC()

	prunedPresence := w.cache.PruneStalePresence(now, w.config.ActiveWindow)
	purgedSessions := w.cache.PurgeExpiredSessions(now)

	if prunedPresence > 0 && w.OnPresenceChange != nil {
		w.OnPresenceChange(w.cache.CountActivePresence(now, w.config.ActiveWindow))
	}

	duration := time.Since(start)
	if prunedPresence > 0 || purgedSessions > 0 {
		w.logger.Cache().Info("Cleanup pass finished",
			"prunedPresence", prunedPresence,
			"purgedSessions", purgedSessions,
			"duration", duration)
	} else if w.config.VerboseReporting {
		w.logger.Cache().Debug("Cleanup pass completed, nothing expired", "duration", duration)
	}
}
