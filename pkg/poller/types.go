package poller

import (
	"fmt"
	"time"

	"github.com/proton2025/widgetd/pkg/models"
)

// Mode is the mechanism a check cycle ended up using.
type Mode string

const (
	ModeUnknown  Mode = "unknown"
	ModeNone     Mode = "none"
	ModeRPC      Mode = "rpc"
	ModeExec     Mode = "exec"
	ModeRPCEmpty Mode = "rpc-empty"
)

// ServiceStatus is one entry of a Snapshot.
type ServiceStatus struct {
	Name   string        `json:"name"`
	Status models.Status `json:"status"`
}

// StatusChange is delivered to the notifier when a service changes state.
type StatusChange struct {
	Name     string        `json:"name"`
	Previous models.Status `json:"previous,omitempty"`
	Status   models.Status `json:"status"`
}

// ActivityLine is one entry of the activity log shown under the widget.
type ActivityLine struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

type nopRecorder struct{}

func (nopRecorder) ObserveCycle(Mode, time.Duration) {}

func (nopRecorder) StatusChanged(models.Status) {}

func (nopRecorder) RetryScheduled(int) {}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Round(time.Millisecond).Milliseconds())
	}

	return fmt.Sprintf("%.1fs", d.Seconds())
}
