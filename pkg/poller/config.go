package poller

import (
	"time"

	"github.com/proton2025/widgetd/pkg/models"
)

const (
	defaultThrottleDelay       = 100 * time.Millisecond
	defaultVisibilityThreshold = 3 * time.Second
	defaultCycleTimeout        = time.Minute
	execPollMultiplier         = 3
)

// DefaultRetryDelays is the back-off used while the backend is not reachable yet.
func DefaultRetryDelays() models.Durations {
	return models.Durations{
		models.Duration(250 * time.Millisecond),
		models.Duration(500 * time.Millisecond),
		models.Duration(time.Second),
		models.Duration(2 * time.Second),
		models.Duration(4 * time.Second),
	}
}

// Config represents poller configuration.
type Config struct {
	// Debug enables per-service log lines.
	Debug               bool             `json:"debug"`
	RetryDelays         models.Durations `json:"retry_delays,omitempty"`
	ThrottleDelay       models.Duration  `json:"throttle_delay,omitempty"` // negative disables
	VisibilityThreshold models.Duration  `json:"visibility_threshold,omitempty"`
	PollInterval        models.Duration  `json:"poll_interval,omitempty"` // zero or negative disables periodic polling
	ExecPollInterval    models.Duration  `json:"exec_poll_interval,omitempty"`
	CycleTimeout        models.Duration  `json:"cycle_timeout,omitempty"`
}

// Validate implements config.Validator interface.
func (c *Config) Validate() error {
	if len(c.RetryDelays) == 0 {
		c.RetryDelays = DefaultRetryDelays()
	}

	for _, d := range c.RetryDelays {
		if d <= 0 {
			return errInvalidDelay
		}
	}

	if c.ThrottleDelay == 0 {
		c.ThrottleDelay = models.Duration(defaultThrottleDelay)
	}

	if c.VisibilityThreshold <= 0 {
		c.VisibilityThreshold = models.Duration(defaultVisibilityThreshold)
	}

	if c.PollInterval > 0 && c.ExecPollInterval <= 0 {
		c.ExecPollInterval = c.PollInterval * execPollMultiplier
	}

	if c.CycleTimeout <= 0 {
		c.CycleTimeout = models.Duration(defaultCycleTimeout)
	}

	return nil
}

func (c *Config) throttle() time.Duration {
	if c.ThrottleDelay < 0 {
		return 0
	}

	return time.Duration(c.ThrottleDelay)
}

// pollInterval returns the periodic poll interval for the given mode, zero when disabled.
func (c *Config) pollInterval(execMode bool) time.Duration {
	if c.PollInterval <= 0 {
		return 0
	}

	if execMode {
		return time.Duration(c.ExecPollInterval)
	}

	return time.Duration(c.PollInterval)
}
