package ubus

import (
	"context"
	"errors"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/poller"
)

// Backend exposes rc and file objects as a poller.Backend.
type Backend struct {
	client *Client
	logger logger.Logger
}

var _ poller.Backend = (*Backend)(nil)

// NewBackend creates a Backend on top of client.
func NewBackend(client *Client, log logger.Logger) *Backend {
	return &Backend{client: client, logger: log}
}

// Capabilities asks ubus which of rc.list and file.exec are published.
// Any failure means nothing is usable right now.
func (b *Backend) Capabilities(ctx context.Context) poller.Capability {
	objects, err := b.client.List(ctx, "rc", "file")
	if err != nil {
		b.logger.Debug().Err(err).Msg("ubus list failed")

		return 0
	}

	var caps poller.Capability

	if _, ok := objects["rc"]["list"]; ok {
		caps |= poller.CapBulkList | poller.CapServiceQuery
	}

	if _, ok := objects["file"]["exec"]; ok {
		caps |= poller.CapExec
	}

	return caps
}

func (b *Backend) ListServices(ctx context.Context) (map[string]models.ServiceState, error) {
	return b.client.RCList(ctx, "")
}

func (b *Backend) QueryService(ctx context.Context, name string) (models.ServiceState, bool, error) {
	states, err := b.client.RCList(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return models.ServiceState{}, false, nil
	}

	if err != nil {
		return models.ServiceState{}, false, err
	}

	state, ok := states[name]

	return state, ok, nil
}

func (b *Backend) Exec(ctx context.Context, path string, args []string) (poller.ExecResult, error) {
	res, err := b.client.Exec(ctx, path, args)
	if err != nil {
		return poller.ExecResult{}, err
	}

	out := poller.ExecResult{Stdout: res.Stdout}
	if res.Code != nil {
		out.Code = *res.Code
		out.Exited = true
	}

	return out, nil
}
