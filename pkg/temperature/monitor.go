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

// Package temperature polls the router's thermal sensors for the temperature widget.
package temperature

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
)

const (
	defaultPollInterval     = 5 * time.Second
	defaultFirstDelay       = 300 * time.Millisecond
	defaultMaxEmptyAttempts = 3
	defaultCallTimeout      = 5 * time.Second
)

var errNilSource = errors.New("temperature source is required")

// Config configures the monitor.
type Config struct {
	PollInterval     models.Duration `json:"poll_interval,omitempty"`
	FirstDelay       models.Duration `json:"first_delay,omitempty"`
	MaxEmptyAttempts int             `json:"max_empty_attempts,omitempty"`
	CallTimeout      models.Duration `json:"call_timeout,omitempty"`
	// UseHostSensors adds the local machine's sensors as a fallback source.
	UseHostSensors bool `json:"use_host_sensors,omitempty"`
}

// Validate fills defaults.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if c.FirstDelay <= 0 {
		c.FirstDelay = models.Duration(defaultFirstDelay)
	}

	if c.MaxEmptyAttempts <= 0 {
		c.MaxEmptyAttempts = defaultMaxEmptyAttempts
	}

	if c.CallTimeout <= 0 {
		c.CallTimeout = models.Duration(defaultCallTimeout)
	}

	return nil
}

// Monitor polls a Source while the widget is visible.
type Monitor struct {
	cfg       *Config
	source    Source
	logger    logger.Logger
	translate func(string) string
	onUpdate  func(Snapshot)

	mu            sync.Mutex
	snapshot      Snapshot
	emptyAttempts int
	seenSensors   bool

	visible  atomic.Bool
	started  atomic.Bool
	stopped  atomic.Bool
	updating atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	wake   chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTranslator translates sensor labels and status texts.
func WithTranslator(t func(string) string) Option {
	return func(m *Monitor) {
		if t != nil {
			m.translate = t
		}
	}
}

// WithUpdateHandler is called after every poll that changed the snapshot.
func WithUpdateHandler(f func(Snapshot)) Option {
	return func(m *Monitor) {
		m.onUpdate = f
	}
}

// NewMonitor creates a Monitor.
func NewMonitor(cfg *Config, source Source, opts ...Option) (*Monitor, error) {
	if source == nil {
		return nil, errNilSource
	}

	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Monitor{
		cfg:       cfg,
		source:    source,
		logger:    logger.NewTestLogger(),
		translate: func(s string) string { return s },
		snapshot:  Snapshot{State: StateLoading, Sensors: []Reading{}},
		ctx:       ctx,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
	}

	m.visible.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Snapshot returns the current widget data.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.snapshot
	s.Sensors = append([]Reading(nil), m.snapshot.Sensors...)

	return s
}

// Update polls the source once. An update already in flight makes it a no-op.
func (m *Monitor) Update(ctx context.Context) {
	if m.stopped.Load() || !m.updating.CompareAndSwap(false, true) {
		return
	}
	defer m.updating.Store(false)

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.CallTimeout))
	defer cancel()

	raw, err := m.source.Sensors(callCtx)
	if m.stopped.Load() {
		return
	}

	m.mu.Lock()
	changed := m.apply(raw, err)
	snap := m.snapshot
	snap.Sensors = append([]Reading(nil), m.snapshot.Sensors...)
	m.mu.Unlock()

	if changed && m.onUpdate != nil {
		m.onUpdate(snap)
	}
}

// apply folds one poll result into the snapshot; m.mu must be held.
func (m *Monitor) apply(raw []RawSensor, err error) bool {
	now := time.Now()

	if err == nil && len(raw) > 0 {
		m.emptyAttempts = 0
		m.seenSensors = true

		readings := m.readings(raw)
		changed := m.snapshot.State != StateReady || !sameReadings(m.snapshot.Sensors, readings)

		m.snapshot = Snapshot{State: StateReady, Sensors: readings, UpdatedAt: now}

		return changed
	}

	m.emptyAttempts++

	if err != nil {
		m.logger.Debug().Err(err).Int("attempt", m.emptyAttempts).Msg("Failed to fetch temperatures")

		// Keep the last readings through transient errors.
		if len(m.snapshot.Sensors) > 0 {
			return false
		}
	} else {
		m.logger.Debug().Int("attempt", m.emptyAttempts).Msg("No sensors found")
	}

	prev := m.snapshot.State

	if m.emptyAttempts < m.cfg.MaxEmptyAttempts {
		m.snapshot = Snapshot{State: StateLoading, Sensors: []Reading{}, UpdatedAt: now}
	} else {
		if prev != StateEmpty {
			m.logger.Info().Int("attempts", m.emptyAttempts).Msg("No temperature sensors found")
		}

		m.snapshot = Snapshot{State: StateEmpty, Sensors: []Reading{}, UpdatedAt: now}
	}

	return prev != m.snapshot.State
}

func (m *Monitor) readings(raw []RawSensor) []Reading {
	out := make([]Reading, 0, len(raw))

	for _, s := range raw {
		temp := int(math.Round(s.Temp / 1000))

		peak := temp
		if s.Peak > 0 {
			peak = int(math.Round(s.Peak / 1000))
		}

		level := LevelOf(temp)

		out = append(out, Reading{
			Name:        s.Name,
			DisplayName: FormatName(s.Name, m.translate),
			Path:        s.Path,
			Temp:        temp,
			Peak:        peak,
			Level:       level,
			Status:      m.translate(level.StatusText()),
			Type:        TypeOf(s.Name),
			Percent:     Percent(temp),
		})
	}

	return out
}

func sameReadings(a, b []Reading) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// SetVisible pauses polling while hidden and polls at once when shown again.
func (m *Monitor) SetVisible(visible bool) {
	was := m.visible.Swap(visible)
	if visible && !was {
		select {
		case m.wake <- struct{}{}:
		default:
		}
	}
}

// Start begins polling after the first-load delay. It does not block.
func (m *Monitor) Start(context.Context) error {
	if m.stopped.Load() || !m.started.CompareAndSwap(false, true) {
		return nil
	}

	m.wg.Add(1)

	go m.run()

	return nil
}

func (m *Monitor) run() {
	defer m.wg.Done()

	first := time.NewTimer(time.Duration(m.cfg.FirstDelay))
	defer first.Stop()

	select {
	case <-m.ctx.Done():
		return
	case <-first.C:
		m.Update(m.ctx)
	}

	ticker := time.NewTicker(time.Duration(m.cfg.PollInterval))
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if m.visible.Load() {
				m.Update(m.ctx)
			}
		case <-m.wake:
			m.Update(m.ctx)
		}
	}
}

// Stop ends polling. It is idempotent.
func (m *Monitor) Stop(context.Context) error {
	if !m.stopped.CompareAndSwap(false, true) {
		return nil
	}

	m.cancel()
	m.wg.Wait()

	return nil
}
