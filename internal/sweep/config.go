package sweep

import (
	"time"

	"github.com/smallbiznis/factorylicense/internal/config"
)

// Config controls how often storage is re-measured and how long one factory
// may take.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	// RunOnStart triggers a pass immediately instead of after one interval.
	RunOnStart bool
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		JobTimeout:  5 * time.Minute,
		RunOnStart:  true,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.Billing.SweepInterval,
		JobTimeout:  cfg.Billing.SweepTimeout,
		RunOnStart:  true,
	}.withDefaults()
}
