package dashboard

import (
	"time"

	"github.com/proton2025/widgetd/pkg/models"
)

const (
	defaultListenAddr   = ":9140"
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// Config configures the HTTP listener.
type Config struct {
	ListenAddr string `json:"listen_addr"`
	// AllowedOrigins lists origins allowed for CORS and WebSocket upgrades.
	// "*" allows any origin; empty allows same-host requests only.
	AllowedOrigins []string        `json:"allowed_origins,omitempty"`
	ReadTimeout    models.Duration `json:"read_timeout,omitempty"`
	WriteTimeout   models.Duration `json:"write_timeout,omitempty"`
	IdleTimeout    models.Duration `json:"idle_timeout,omitempty"`
}

// Validate fills defaults.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.ReadTimeout == 0 {
		c.ReadTimeout = models.Duration(defaultReadTimeout)
	}

	if c.WriteTimeout == 0 {
		c.WriteTimeout = models.Duration(defaultWriteTimeout)
	}

	if c.IdleTimeout == 0 {
		c.IdleTimeout = models.Duration(defaultIdleTimeout)
	}

	return nil
}
