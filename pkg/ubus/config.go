package ubus

import (
	"time"

	"github.com/proton2025/widgetd/pkg/models"
)

const (
	defaultURL            = "http://127.0.0.1/ubus"
	defaultTimeout        = 5 * time.Second
	defaultMaxRetries     = 2
	defaultRetryBaseDelay = 100 * time.Millisecond
	defaultRetryMaxDelay  = 2 * time.Second
	defaultBreakerDelay   = 15 * time.Second
	defaultBreakerMinReqs = 10
)

// Config describes how to reach rpcd's JSON-RPC endpoint.
type Config struct {
	URL            string          `json:"url"`
	Username       string          `json:"username,omitempty"`
	Password       string          `json:"password,omitempty"`
	Timeout        models.Duration `json:"timeout,omitempty"`
	MaxRetries     int             `json:"max_retries,omitempty"`
	RetryBaseDelay models.Duration `json:"retry_base_delay,omitempty"`
	BreakerDelay   models.Duration `json:"breaker_delay,omitempty"`
}

// Validate fills in defaults.
func (c *Config) Validate() error {
	if c.URL == "" {
		c.URL = defaultURL
	}

	if c.Timeout <= 0 {
		c.Timeout = models.Duration(defaultTimeout)
	}

	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}

	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = models.Duration(defaultRetryBaseDelay)
	}

	if c.BreakerDelay <= 0 {
		c.BreakerDelay = models.Duration(defaultBreakerDelay)
	}

	return nil
}
