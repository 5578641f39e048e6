package scheduler

import (
	"strings"
	"time"

	appconfig "github.com/voyara/voyara/internal/config"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	JobTimeout  time.Duration
	LockTTL     time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		BatchSize:   100,
		JobTimeout:  5 * time.Minute,
		LockTTL:     10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}

func ProvideConfig(cfg appconfig.Config) Config {
	out := Config{
		BatchSize: cfg.SchedulerBatchSize,
	}
	if cfg.SchedulerIntervalSec > 0 {
		out.RunInterval = time.Duration(cfg.SchedulerIntervalSec) * time.Second
	}
	if jobs := strings.TrimSpace(cfg.SchedulerEnabledJobs); jobs != "" {
		for _, name := range strings.Split(jobs, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				out.EnabledJobs = append(out.EnabledJobs, trimmed)
			}
		}
	}
	return out.withDefaults()
}
