package ubus

import "context"

// loadScale is the fixed point factor of the kernel load averages reported by system.info.
const loadScale = 65536.0

// SystemInfo is the subset of system.info used by the widgets.
type SystemInfo struct {
	LocalTime int64     `json:"localtime"`
	Uptime    int64     `json:"uptime"`
	Load      [3]uint64 `json:"load"`
	Memory    struct {
		Total     uint64 `json:"total"`
		Free      uint64 `json:"free"`
		Available uint64 `json:"available"`
	} `json:"memory"`
}

// LoadAverages converts the fixed point loads to floats.
func (s *SystemInfo) LoadAverages() [3]float64 {
	var out [3]float64
	for i, v := range s.Load {
		out[i] = float64(v) / loadScale
	}

	return out
}

// SystemInfo calls system.info.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.Call(ctx, "system", "info", nil, &info); err != nil {
		return nil, err
	}

	return &info, nil
}
