//go:generate mockgen -destination=mock_discovery.go -package=discovery github.com/proton2025/widgetd/pkg/discovery InitdSource

// Package discovery finds the services a router can offer to the widget: installed
// init scripts, admin menu entries and the built-in catalog.
package discovery

import (
	"context"

	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/ubus"
)

// InitdSource lists installed init scripts. *ubus.Client implements it.
type InitdSource interface {
	RCList(ctx context.Context, name string) (map[string]models.ServiceState, error)
	FileList(ctx context.Context, path string) ([]ubus.FileEntry, error)
}
