package loadavg

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"

	"github.com/proton2025/widgetd/pkg/ubus"
)

// Sampler reads the current load averages and core count.
type Sampler interface {
	Sample(ctx context.Context) ([3]float64, int, error)
}

// HostSampler samples the machine widgetd runs on.
type HostSampler struct{}

func (HostSampler) Sample(ctx context.Context) ([3]float64, int, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return [3]float64{}, 0, err
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores < 1 {
		cores = 1
	}

	return [3]float64{avg.Load1, avg.Load5, avg.Load15}, cores, nil
}

// SystemRPC is the part of the ubus client used by UbusSampler.
type SystemRPC interface {
	SystemInfo(ctx context.Context) (*ubus.SystemInfo, error)
	Exec(ctx context.Context, command string, params []string) (*ubus.ExecResult, error)
}

// UbusSampler samples the router through system.info. The core count is read
// once from /proc/cpuinfo.
type UbusSampler struct {
	rpc SystemRPC

	mu    sync.Mutex
	cores int
}

// NewUbusSampler creates a Sampler over rpc.
func NewUbusSampler(rpc SystemRPC) *UbusSampler {
	return &UbusSampler{rpc: rpc}
}

func (u *UbusSampler) Sample(ctx context.Context) ([3]float64, int, error) {
	info, err := u.rpc.SystemInfo(ctx)
	if err != nil {
		return [3]float64{}, 0, err
	}

	return info.LoadAverages(), u.coreCount(ctx), nil
}

func (u *UbusSampler) coreCount(ctx context.Context) int {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.cores > 0 {
		return u.cores
	}

	res, err := u.rpc.Exec(ctx, "/bin/grep", []string{"-c", "^processor", "/proc/cpuinfo"})
	if err != nil || res == nil {
		return 1
	}

	n, err := strconv.Atoi(strings.TrimSpace(res.Stdout))
	if err != nil || n < 1 {
		return 1
	}

	u.cores = n

	return n
}
