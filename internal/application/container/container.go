// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/pixreview/pixreview-go/internal/application/services"
	"github.com/pixreview/pixreview-go/internal/domain/funnel"
	"github.com/pixreview/pixreview-go/internal/domain/user"
	"github.com/pixreview/pixreview-go/internal/infrastructure/caching/manager"
	"github.com/pixreview/pixreview-go/internal/infrastructure/email"
	"github.com/pixreview/pixreview-go/internal/infrastructure/messaging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
	"github.com/pixreview/pixreview-go/internal/infrastructure/persistence/database"
	persistuser "github.com/pixreview/pixreview-go/internal/infrastructure/persistence/user"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application Services (stateless singletons)
	FunnelService   *services.FunnelService
	PresenceService *services.PresenceService
	LeadService     *services.LeadService
	AuthService     *services.AuthService
	SettingsService *services.SettingsService
	ExportService   *services.ExportService

	// Infrastructure Dependencies
	Logger            *logging.ChanneledLogger
	PerfTracker       *performance.Tracker
	CacheManager      *manager.Manager
	DB                *database.DB
	RecordRepo        user.RecordRepository
	SettingsRepo      user.SettingsRepository
	Broadcaster       *messaging.SSEBroadcaster
	RosterBroadcaster *messaging.RosterBroadcaster
	EmailService      email.Service
}

// NewContainer creates and wires all singleton services. A nil db falls
// back to in-memory repositories so the funnel still runs without a
// database (leads are lost on restart).
func NewContainer(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, db *database.DB) *Container {
	cacheManager := manager.NewManager(logger)

	var recordRepo user.RecordRepository
	var settingsRepo user.SettingsRepository
	if db != nil {
		recordRepo = persistuser.NewSQLRecordRepository(db, logger)
		settingsRepo = persistuser.NewSQLSettingsRepository(db, logger)
	} else {
		logger.System().Warn("No database configured, using in-memory repositories")
		recordRepo = persistuser.NewMemoryRecordRepository()
		settingsRepo = persistuser.NewMemorySettingsRepository()
	}

	emailSvc, err := email.NewService()
	if err != nil {
		logger.System().Info("Email notifications disabled", "reason", err.Error())
		emailSvc = nil
	}

	broadcaster := messaging.NewSSEBroadcaster(logger)
	rosterBroadcaster := messaging.NewRosterBroadcaster(cacheManager, logger)

	leadService := services.NewLeadService(logger, perfTracker, recordRepo)
	funnelService := services.NewFunnelService(logger, perfTracker, cacheManager, leadService, emailSvc, funnel.DefaultCatalog)
	presenceService := services.NewPresenceService(logger, perfTracker, cacheManager, broadcaster)

	return &Container{
		FunnelService:   funnelService,
		PresenceService: presenceService,
		LeadService:     leadService,
		AuthService:     services.NewAuthService(logger, perfTracker),
		SettingsService: services.NewSettingsService(logger, perfTracker, settingsRepo),
		ExportService:   services.NewExportService(logger, perfTracker, leadService),

		Logger:            logger,
		PerfTracker:       perfTracker,
		CacheManager:      cacheManager,
		DB:                db,
		RecordRepo:        recordRepo,
		SettingsRepo:      settingsRepo,
		Broadcaster:       broadcaster,
		RosterBroadcaster: rosterBroadcaster,
		EmailService:      emailSvc,
	}
}
