package ubus

import (
	"context"

	"github.com/proton2025/widgetd/pkg/models"
)

type rcEntry struct {
	Start   int  `json:"start"`
	Stop    int  `json:"stop"`
	Enabled bool `json:"enabled"`
	Running bool `json:"running"`
}

// RCList calls rc.list. With an empty name every init script is returned,
// otherwise only the named one (if it exists).
func (c *Client) RCList(ctx context.Context, name string) (map[string]models.ServiceState, error) {
	var args interface{}
	if name != "" {
		args = map[string]string{"name": name}
	}

	raw := make(map[string]rcEntry)
	if err := c.Call(ctx, "rc", "list", args, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]models.ServiceState, len(raw))
	for svc, e := range raw {
		out[svc] = models.ServiceState{Running: e.Running, Enabled: e.Enabled}
	}

	return out, nil
}
