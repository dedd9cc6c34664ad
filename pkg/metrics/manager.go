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

package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/proton2025/widgetd/pkg/loadavg"
	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/poller"
	"github.com/proton2025/widgetd/pkg/temperature"
)

const namespace = "widgetd"

var loadWindows = [3]string{"1m", "5m", "15m"}

// Manager records metrics into its own registry.
type Manager struct {
	registry *prometheus.Registry

	cycles       *prometheus.CounterVec
	cycleSeconds *prometheus.HistogramVec
	statuses     *prometheus.CounterVec
	retries      *prometheus.CounterVec

	sensorTemp *prometheus.GaugeVec
	sensorPeak *prometheus.GaugeVec
	tempState  *prometheus.GaugeVec

	load      *prometheus.GaugeVec
	cpuCores  prometheus.Gauge
	syncs     *prometheus.CounterVec
	buildInfo *prometheus.GaugeVec

	mu      sync.Mutex
	sensors map[string]struct{}
}

var (
	_ Collector       = (*Manager)(nil)
	_ poller.Recorder = (*Manager)(nil)
)

// NewManager creates a Manager with process and Go collectors registered.
func NewManager(version string) *Manager {
	m := &Manager{
		registry: prometheus.NewRegistry(),
		sensors:  make(map[string]struct{}),
	}

	m.cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "cycles_total",
		Help:      "Completed service check cycles by mode.",
	}, []string{"mode"})

	m.cycleSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of service check cycles.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"mode"})

	m.statuses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "status_changes_total",
		Help:      "Service status transitions by new status.",
	}, []string{"status"})

	m.retries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "backend_retries_total",
		Help:      "Backend availability retries by attempt number.",
	}, []string{"attempt"})

	m.sensorTemp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "temperature",
		Name:      "celsius",
		Help:      "Current sensor temperature.",
	}, []string{"sensor", "type"})

	m.sensorPeak = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "temperature",
		Name:      "peak_celsius",
		Help:      "Highest temperature seen by the sensor.",
	}, []string{"sensor", "type"})

	m.tempState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "temperature",
		Name:      "state",
		Help:      "Temperature widget state, 1 for the current one.",
	}, []string{"state"})

	m.load = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "load",
		Name:      "average",
		Help:      "System load average.",
	}, []string{"window"})

	m.cpuCores = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "load",
		Name:      "cpu_cores",
		Help:      "CPU cores used to scale the load bars.",
	})

	m.syncs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "settings",
		Name:      "syncs_total",
		Help:      "Settings syncs from the remote store by result.",
	}, []string{"result"})

	m.buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information.",
	}, []string{"version"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cycles, m.cycleSeconds, m.statuses, m.retries,
		m.sensorTemp, m.sensorPeak, m.tempState,
		m.load, m.cpuCores, m.syncs, m.buildInfo,
	)

	m.buildInfo.WithLabelValues(version).Set(1)

	return m
}

// Registry returns the registry metrics are recorded into.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) ObserveCycle(mode poller.Mode, elapsed time.Duration) {
	m.cycles.WithLabelValues(string(mode)).Inc()
	m.cycleSeconds.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

func (m *Manager) StatusChanged(status models.Status) {
	m.statuses.WithLabelValues(string(status)).Inc()
}

func (m *Manager) RetryScheduled(attempt int) {
	m.retries.WithLabelValues(strconv.Itoa(attempt)).Inc()
}

// ObserveTemperature records the snapshot and drops gauges for sensors that went away.
func (m *Manager) ObserveTemperature(snap temperature.Snapshot) {
	for _, s := range []temperature.State{temperature.StateLoading, temperature.StateReady, temperature.StateEmpty} {
		v := 0.0
		if s == snap.State {
			v = 1
		}

		m.tempState.WithLabelValues(string(s)).Set(v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{}, len(snap.Sensors))

	for _, r := range snap.Sensors {
		seen[r.Name] = struct{}{}
		m.sensorTemp.WithLabelValues(r.Name, string(r.Type)).Set(float64(r.Temp))
		m.sensorPeak.WithLabelValues(r.Name, string(r.Type)).Set(float64(r.Peak))
	}

	if snap.State == temperature.StateLoading {
		return
	}

	for name := range m.sensors {
		if _, ok := seen[name]; ok {
			continue
		}

		m.sensorTemp.DeletePartialMatch(prometheus.Labels{"sensor": name})
		m.sensorPeak.DeletePartialMatch(prometheus.Labels{"sensor": name})
	}

	m.sensors = seen
}

func (m *Manager) ObserveLoad(report loadavg.Report) {
	for i, item := range report.Items {
		m.load.WithLabelValues(loadWindows[i]).Set(item.Value)
	}

	m.cpuCores.Set(float64(report.Cores))
}

func (m *Manager) ObserveSettingsSync(changed bool, err error) {
	switch {
	case err != nil:
		m.syncs.WithLabelValues("error").Inc()
	case changed:
		m.syncs.WithLabelValues("changed").Inc()
	default:
		m.syncs.WithLabelValues("unchanged").Inc()
	}
}
