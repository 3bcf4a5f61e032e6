package cleanup

import (
	"time"

	"github.com/pixreview/pixreview-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CompactionInterval time.Duration
	ActiveWindow       time.Duration
	SessionTTL         time.Duration
	VerboseReporting   bool
}

// NewConfig creates a new cleanup configuration by reading values
// from the already-initialized variables in the centralized /pkg/config package.
func NewConfig() *Config {
	return &Config{
		CompactionInterval: config.CompactionInterval,
		ActiveWindow:       config.ActiveWindow,
		SessionTTL:         config.SessionTTL,
		VerboseReporting:   config.CleanupVerbose,
	}
}
