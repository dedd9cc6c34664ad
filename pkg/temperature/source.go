/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

//go:generate mockgen -destination=mock_temperature.go -package=temperature github.com/proton2025/widgetd/pkg/temperature Source,RPC

package temperature

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/ubus"
)

const thermalDir = "/sys/class/thermal"

// Source reports the current sensors.
type Source interface {
	Sensors(ctx context.Context) ([]RawSensor, error)
}

// RPC is the part of the ubus client used by UbusSource.
type RPC interface {
	Call(ctx context.Context, object, method string, args, out interface{}) error
	FileList(ctx context.Context, path string) ([]ubus.FileEntry, error)
}

// UbusSource reads sensors through the luci.proton-temp ubus object.
type UbusSource struct {
	rpc    RPC
	logger logger.Logger
}

// NewUbusSource creates a Source over rpc.
func NewUbusSource(rpc RPC, log logger.Logger) *UbusSource {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &UbusSource{rpc: rpc, logger: log}
}

type rpcSensor struct {
	Name string   `json:"name"`
	Path string   `json:"path"`
	Temp *float64 `json:"temp"`
	Peak *float64 `json:"peak"`
}

type getSensorsResponse struct {
	Sensors []rpcSensor `json:"sensors"`
}

func (u *UbusSource) Sensors(ctx context.Context) ([]RawSensor, error) {
	var resp getSensorsResponse
	if err := u.rpc.Call(ctx, "luci.proton-temp", "getSensors", map[string]interface{}{}, &resp); err != nil {
		return nil, err
	}

	out := make([]RawSensor, 0, len(resp.Sensors))

	for _, s := range resp.Sensors {
		if s.Temp == nil || math.IsNaN(*s.Temp) {
			continue
		}

		raw := RawSensor{Name: s.Name, Path: s.Path, Temp: *s.Temp}
		if s.Peak != nil {
			raw.Peak = *s.Peak
		}

		if raw.Name == "" {
			raw.Name = "Sensor"
		}

		out = append(out, raw)
	}

	if len(out) == 0 {
		u.diagnose(ctx)
	}

	return out, nil
}

// diagnose logs a hint when the kernel has thermal zones the RPC did not report.
func (u *UbusSource) diagnose(ctx context.Context) {
	entries, err := u.rpc.FileList(ctx, thermalDir)
	if err != nil {
		u.logger.Debug().Err(err).Msg("Cannot list thermal zones")

		return
	}

	for _, e := range entries {
		if strings.HasPrefix(e.Name, "thermal_zone") {
			u.logger.Warn().Msg("Thermal zones exist but the luci.proton-temp RPC returned no sensors; is the theme backend installed?")

			return
		}
	}
}

// HostSource reads sensors of the machine widgetd runs on.
type HostSource struct {
	read func(ctx context.Context) ([]host.TemperatureStat, error)

	mu    sync.Mutex
	peaks map[string]float64
}

// NewHostSource creates a Source backed by gopsutil.
func NewHostSource() *HostSource {
	return &HostSource{read: host.SensorsTemperaturesWithContext, peaks: make(map[string]float64)}
}

func (h *HostSource) Sensors(ctx context.Context) ([]RawSensor, error) {
	stats, err := h.read(ctx)
	if err != nil && len(stats) == 0 {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]RawSensor, 0, len(stats))

	for _, st := range stats {
		if st.Temperature <= 0 {
			continue
		}

		milli := st.Temperature * 1000
		if milli > h.peaks[st.SensorKey] {
			h.peaks[st.SensorKey] = milli
		}

		out = append(out, RawSensor{Name: st.SensorKey, Temp: milli, Peak: h.peaks[st.SensorKey]})
	}

	return out, nil
}

// FallbackSource asks primary first and secondary when primary has nothing.
type FallbackSource struct {
	primary   Source
	secondary Source
}

// NewFallbackSource chains two sources.
func NewFallbackSource(primary, secondary Source) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary}
}

func (f *FallbackSource) Sensors(ctx context.Context) ([]RawSensor, error) {
	sensors, err := f.primary.Sensors(ctx)
	if err == nil && len(sensors) > 0 {
		return sensors, nil
	}

	fallback, ferr := f.secondary.Sensors(ctx)
	if ferr == nil && len(fallback) > 0 {
		return fallback, nil
	}

	if err != nil {
		return nil, err
	}

	return fallback, ferr
}
