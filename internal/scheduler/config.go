package scheduler

import (
	"time"

	appconfig "github.com/lucanori/invoicerr/internal/config"
)

// Config controls the daily generation run.
type Config struct {
	// RunAt is the local hour (0-23) in Timezone at which the daily run fires.
	RunAt      int
	Timezone   string
	BatchSize  int
	JobTimeout time.Duration
	LockTTL    time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunAt:      9,
		Timezone:   "Europe/Paris",
		BatchSize:  50,
		JobTimeout: 5 * time.Minute,
		LockTTL:    10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunAt < 0 || c.RunAt > 23 {
		c.RunAt = defaults.RunAt
	}
	if c.Timezone == "" {
		c.Timezone = defaults.Timezone
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
	return Config{
		RunAt:     cfg.Scheduler.RunAt,
		Timezone:  cfg.Scheduler.Timezone,
		BatchSize: cfg.Scheduler.BatchSize,
	}.withDefaults()
}
