package dispatcher

import (
	"time"

	"github.com/smallbiznis/volunteerhub/internal/config"
)

// Config controls delivery cadence and retry policy.
type Config struct {
	Interval     time.Duration
	BatchSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:     5 * time.Second,
		BatchSize:    50,
		MaxAttempts:  5,
		RetryBackoff: 30 * time.Second,
		MaxBackoff:   time.Hour,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Interval:     cfg.Notification.DispatchInterval,
		BatchSize:    cfg.Notification.BatchSize,
		MaxAttempts:  cfg.Notification.MaxAttempts,
		RetryBackoff: cfg.Notification.RetryBackoff,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaults.RetryBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	return c
}

// backoff doubles the base delay per completed attempt, capped at MaxBackoff.
func (c Config) backoff(attempts int) time.Duration {
	delay := c.RetryBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	if delay > c.MaxBackoff {
		return c.MaxBackoff
	}
	return delay
}
