package settings

import (
	"time"

	"github.com/proton2025/widgetd/pkg/models"
)

const (
	defaultDebounce     = 500 * time.Millisecond
	defaultStartupDelay = time.Second
	defaultSchedule     = "@every 5m"
	defaultCallTimeout  = 10 * time.Second

	// RemoteUbus, RemoteKV and RemoteNone select the remote store.
	RemoteUbus = "ubus"
	RemoteKV   = "kv"
	RemoteNone = "none"
)

// Config configures the settings store.
type Config struct {
	DatabasePath string          `json:"database_path"`
	Remote       string          `json:"remote"`
	KVPrefix     string          `json:"kv_prefix,omitempty"`
	Debounce     models.Duration `json:"debounce,omitempty"`
	StartupDelay models.Duration `json:"startup_delay,omitempty"`
	// Schedule is a cron spec for periodic resyncs; "-" disables them.
	Schedule    string          `json:"schedule,omitempty"`
	CallTimeout models.Duration `json:"call_timeout,omitempty"`
}

// Validate fills defaults.
func (c *Config) Validate() error {
	if c.Remote == "" {
		c.Remote = RemoteUbus
	}

	switch c.Remote {
	case RemoteUbus, RemoteKV, RemoteNone:
	default:
		return errInvalidRemote
	}

	if c.Debounce <= 0 {
		c.Debounce = models.Duration(defaultDebounce)
	}

	if c.StartupDelay <= 0 {
		c.StartupDelay = models.Duration(defaultStartupDelay)
	}

	if c.Schedule == "" {
		c.Schedule = defaultSchedule
	}

	if c.CallTimeout <= 0 {
		c.CallTimeout = models.Duration(defaultCallTimeout)
	}

	if c.KVPrefix == "" {
		c.KVPrefix = DefaultKVPrefix
	}

	return nil
}
