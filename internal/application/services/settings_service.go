package services

import (
	"fmt"

	"github.com/pixreview/pixreview-go/internal/domain/user"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/logging"
	"github.com/pixreview/pixreview-go/internal/infrastructure/observability/performance"
)

// Settings keys the operator can edit.
const (
	SettingPixelID             = "pixel_id"
	SettingWelcomeVideoEmbed   = "welcome_video_embed"
	SettingExplainerVideoEmbed = "explainer_video_embed"
	SettingInterludeVideoEmbed = "interlude_video_embed"
)

var knownSettings = map[string]bool{
	SettingPixelID:             true,
	SettingWelcomeVideoEmbed:   true,
	SettingExplainerVideoEmbed: true,
	SettingInterludeVideoEmbed: true,
}

// SettingsService reads and writes the operator settings blobs. The
// funnel itself never consumes them; they are served to the browser
// for the presentation layer.
type SettingsService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	repo        user.SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, repo user.SettingsRepository) *SettingsService {
	return &SettingsService{
		logger:      logger,
		perfTracker: perfTracker,
		repo:        repo,
	}
}

// All returns every operator setting.
func (s *SettingsService) All() (map[string]string, error) {
	return s.repo.All()
}

// Update writes the provided settings. Unknown keys are rejected so a
// typo cannot silently grow the settings table.
func (s *SettingsService) Update(values map[string]string) error {
	marker := s.perfTracker.StartOperation("settings:update")
	defer marker.Complete()

	for key := range values {
		if !knownSettings[key] {
			marker.SetSuccess(false)
			return fmt.Errorf("unknown setting key: %s", key)
		}
	}

	for key, value := range values {
		if err := s.repo.Set(key, value); err != nil {
			marker.SetError(err)
			return err
		}
	}

	s.logger.System().Info("Operator settings updated", "keys", len(values))
	marker.SetSuccess(true)
	return nil
}
