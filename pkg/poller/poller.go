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

// Package poller determines the run state of a set of watched router services
// using the best mechanism the admin backend currently offers.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
)

const (
	initScriptDir = "/etc/init.d/"
	verbRunning   = "running"
	verbStatus    = "status"
)

// initScriptVerbs is the probe order for services without a remembered verb.
var initScriptVerbs = []string{verbRunning, verbStatus}

// Poller checks the watched services. It is live from New until Stop; after
// Stop every method is a no-op.
type Poller struct {
	cfg       *Config
	backend   Backend
	store     WatchStore
	clock     Clock
	logger    logger.Logger
	notifier  func(StatusChange)
	recorder  Recorder
	translate func(string) string
	activity  *activityLog

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	busy    atomic.Bool
	stopped atomic.Bool
	debug   atomic.Bool
	recheck atomic.Bool

	// notifyMu serializes notifications and lets Stop wait for one in progress.
	notifyMu sync.Mutex

	mu            sync.Mutex
	watched       []string
	statuses      map[string]models.Status
	actions       map[string]string
	retryTimer    Timer
	retryAttempts int
	pollTimer     Timer
	visible       bool
	hiddenAt      time.Time
	execMode      bool
	lastMode      Mode
	lastCheck     time.Time
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock, used by tests.
func WithClock(c Clock) Option {
	return func(p *Poller) {
		p.clock = c
	}
}

// WithLogger sets the poller logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

// WithNotifier registers the status change callback.
func WithNotifier(f func(StatusChange)) Option {
	return func(p *Poller) {
		p.notifier = f
	}
}

// WithRecorder registers an instrumentation sink.
func WithRecorder(r Recorder) Option {
	return func(p *Poller) {
		p.recorder = r
	}
}

// WithTranslator sets the function used to translate activity log lines.
func WithTranslator(t func(string) string) Option {
	return func(p *Poller) {
		p.translate = t
	}
}

// New creates a poller and loads the persisted watch list. Nothing is checked
// until Start, AddWatched or SetVisible asks for it.
func New(cfg *Config, backend Backend, store WatchStore, opts ...Option) (*Poller, error) {
	if backend == nil {
		return nil, errNilBackend
	}

	if store == nil {
		return nil, errNilStore
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Poller{
		cfg:       cfg,
		backend:   backend,
		store:     store,
		clock:     realClock{},
		logger:    logger.New(logger.WithComponent("poller")),
		notifier:  func(StatusChange) {},
		recorder:  nopRecorder{},
		translate: func(s string) string { return s },
		activity:  newActivityLog(activityLogSize),
		ctx:       ctx,
		cancel:    cancel,
		statuses:  make(map[string]models.Status),
		actions:   make(map[string]string),
		visible:   true,
		lastMode:  ModeUnknown,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.debug.Store(cfg.Debug)
	p.watched = p.loadWatchList(ctx)

	return p, nil
}

func (p *Poller) loadWatchList(ctx context.Context) []string {
	names, found, err := p.store.LoadWatchList(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to load watch list, using defaults")

		return append([]string(nil), models.DefaultWatchList...)
	}

	if !found {
		return append([]string(nil), models.DefaultWatchList...)
	}

	return models.NormalizeServiceList(names)
}

// SetDebug toggles per-service log lines at runtime.
func (p *Poller) SetDebug(enabled bool) {
	p.debug.Store(enabled)
}

func (p *Poller) detail() *zerolog.Event {
	if !p.debug.Load() {
		return nil
	}

	return p.logger.Debug()
}

func (p *Poller) logActivity(text string) {
	p.activity.add(p.clock.Now(), text)
}

// Note appends an already translated line to the activity log.
func (p *Poller) Note(text string) {
	if p.stopped.Load() {
		return
	}

	p.logActivity(text)
}

// spawn runs f on a goroutine tracked by Stop.
func (p *Poller) spawn(f func()) {
	p.mu.Lock()
	if p.stopped.Load() {
		p.mu.Unlock()

		return
	}

	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		f()
	}()
}

// callContext derives a context that ends with ctx, with the poller or after the cycle timeout.
func (p *Poller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.CycleTimeout))
	stop := context.AfterFunc(p.ctx, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}

// Start performs the initial check. It does not block.
func (p *Poller) Start(_ context.Context) error {
	if p.stopped.Load() {
		return ErrStopped
	}

	p.logActivity(p.translate("Ready"))
	p.spawn(func() { p.CheckAll(p.ctx) })

	return nil
}

// Stop cancels timers and in-flight calls, clears every cache and leaves the
// poller inert. It is safe to call more than once.
func (p *Poller) Stop(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}

	p.cancel()

	p.mu.Lock()
	if p.retryTimer != nil {
		p.retryTimer.Stop()
		p.retryTimer = nil
	}

	if p.pollTimer != nil {
		p.pollTimer.Stop()
		p.pollTimer = nil
	}

	p.retryAttempts = 0
	clear(p.statuses)
	clear(p.actions)
	p.mu.Unlock()

	// wait for a notification that may be running right now
	p.notifyMu.Lock()
	p.notifyMu.Unlock() //nolint:staticcheck // empty critical section is the barrier

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn().Msg("Timed out waiting for in-flight checks")
	}

	p.logger.Info().Msg("Service poller stopped")

	return nil
}

// Stopped reports whether Stop has been called.
func (p *Poller) Stopped() bool {
	return p.stopped.Load()
}

// CheckAll checks every watched service and notifies about changes. A call made
// while another cycle is running returns immediately.
func (p *Poller) CheckAll(ctx context.Context) {
	if p.stopped.Load() {
		return
	}

	if !p.busy.CompareAndSwap(false, true) {
		p.detail().Msg("Skip: update already in progress")

		return
	}

	// this cycle covers any check requested before it started
	p.recheck.Store(false)

	ctx, cancel := p.callContext(ctx)
	defer cancel()

	started := p.clock.Now()
	mode := ModeUnknown

	p.logger.Info().Msg("Checking services...")
	p.logActivity(p.translate("Checking services..."))

	defer func() {
		elapsed := p.clock.Now().Sub(started)
		p.finishCycle(mode, elapsed)
	}()

	mode = p.runCycle(ctx)
}

func (p *Poller) runCycle(ctx context.Context) Mode {
	watched := p.Watched()
	caps := p.backend.Capabilities(ctx)

	if !caps.Has(CapBulkList) && !caps.Has(CapExec) {
		for _, name := range watched {
			p.record(name, models.StatusUnknown)
		}

		p.scheduleRetry()

		return ModeNone
	}

	p.clearRetry()

	if caps.Has(CapBulkList) {
		states, err := p.backend.ListServices(ctx)

		switch {
		case err != nil:
			p.detail().Err(err).Msg("Bulk service list failed, falling back")
		case len(states) == 0:
			p.detail().Msg("Bulk service list empty, falling back")
		default:
			p.setExecMode(false)

			for _, name := range watched {
				status := models.StatusStopped
				if st, ok := states[name]; ok && st.Running {
					status = models.StatusRunning
				}

				p.record(name, status)
			}

			return ModeRPC
		}
	}

	p.setExecMode(true)

	mode := ModeRPCEmpty
	if caps.Has(CapExec) {
		mode = ModeExec
	}

	p.checkSequentially(ctx, watched, caps)

	return mode
}

func (p *Poller) finishCycle(mode Mode, elapsed time.Duration) {
	p.mu.Lock()
	p.lastMode = mode
	p.lastCheck = p.clock.Now()
	p.mu.Unlock()

	p.busy.Store(false)

	if p.stopped.Load() {
		return
	}

	p.recorder.ObserveCycle(mode, elapsed)
	p.logger.Info().Str("mode", string(mode)).Dur("elapsed", elapsed).Msg("Check complete")

	line := p.translate("Check complete") + ": " + string(mode)
	if elapsed > 0 {
		line += " - " + formatElapsed(elapsed)
	}

	p.logActivity(line)
	p.schedulePoll()

	if p.recheck.CompareAndSwap(true, false) {
		p.spawn(func() { p.CheckAll(p.ctx) })
	}
}

// checkSequentially checks one service at a time with a pause in between.
func (p *Poller) checkSequentially(ctx context.Context, watched []string, caps Capability) {
	for i, name := range watched {
		if p.stopped.Load() || ctx.Err() != nil {
			return
		}

		p.detail().Str("service", name).Msg("Checking service")

		status := p.checkOne(ctx, name, caps)
		if ctx.Err() != nil {
			return
		}

		p.record(name, status)
		p.detail().Str("service", name).Str("status", string(status)).Msg("Checked service")

		if i < len(watched)-1 && !p.sleep(ctx, p.cfg.throttle()) {
			return
		}
	}
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	done := make(chan struct{})
	t := p.clock.AfterFunc(d, func() { close(done) })

	select {
	case <-done:
		return true
	case <-ctx.Done():
		t.Stop()

		return false
	}
}

// CheckOne checks a single service, records the result if it is watched and returns it.
func (p *Poller) CheckOne(ctx context.Context, name string) models.Status {
	if p.stopped.Load() || !models.IsValidServiceName(name) {
		return models.StatusUnknown
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()

	status := p.checkOne(ctx, name, p.backend.Capabilities(ctx))
	if ctx.Err() != nil {
		return status
	}

	p.record(name, status)

	return status
}

// checkOne asks the per-name query and then the init script. The result is
// error when every mechanism that was tried failed, unknown when none answered.
func (p *Poller) checkOne(ctx context.Context, name string, caps Capability) models.Status {
	if !models.IsValidServiceName(name) {
		return models.StatusUnknown
	}

	var attempted, failed int

	if caps.Has(CapServiceQuery) {
		attempted++

		state, found, err := p.backend.QueryService(ctx, name)

		switch {
		case err != nil:
			failed++

			p.detail().Err(err).Str("service", name).Msg("Service query failed, trying init script")
		case found && state.Running:
			return models.StatusRunning
		case found:
			if state.Enabled && caps.Has(CapExec) {
				if status, ok, _ := p.viaInitScript(ctx, name); ok && status == models.StatusRunning {
					return models.StatusRunning
				}
			}

			return models.StatusStopped
		}
	}

	if caps.Has(CapExec) {
		attempted++

		status, ok, err := p.viaInitScript(ctx, name)
		if ok {
			return status
		}

		if err != nil {
			failed++

			p.detail().Err(err).Str("service", name).Msg("Init script check failed")
		}
	}

	if attempted > 0 && failed == attempted {
		return models.StatusError
	}

	return models.StatusUnknown
}

// viaInitScript runs /etc/init.d/<name> with the remembered verb first, then
// probes both verbs and remembers the one that answered.
func (p *Poller) viaInitScript(ctx context.Context, name string) (models.Status, bool, error) {
	path := initScriptDir + name

	run := func(verb string) (models.Status, bool, error) {
		res, err := p.backend.Exec(ctx, path, []string{verb})
		if err != nil {
			return "", false, err
		}

		if !res.Exited {
			return "", false, nil
		}

		if res.Code == 0 {
			return models.StatusRunning, true, nil
		}

		return models.StatusStopped, true, nil
	}

	if verb, ok := p.preferredVerb(name); ok {
		status, answered, err := run(verb)
		if err == nil && answered {
			return status, true, nil
		}

		if err != nil {
			p.forgetVerb(name)
		}
	}

	var lastErr error

	for _, verb := range initScriptVerbs {
		status, answered, err := run(verb)
		if err != nil {
			lastErr = err

			continue
		}

		if answered {
			p.rememberVerb(name, verb)

			return status, true, nil
		}
	}

	return "", false, lastErr
}

func (p *Poller) preferredVerb(name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	verb, ok := p.actions[name]

	return verb, ok
}

func (p *Poller) rememberVerb(name, verb string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped.Load() || !p.isWatchedLocked(name) {
		return
	}

	p.actions[name] = verb
}

func (p *Poller) forgetVerb(name string) {
	p.mu.Lock()
	delete(p.actions, name)
	p.mu.Unlock()
}

// record stores status for a watched service and notifies if it changed.
func (p *Poller) record(name string, status models.Status) {
	p.mu.Lock()

	if p.stopped.Load() || !p.isWatchedLocked(name) {
		p.mu.Unlock()

		return
	}

	previous, ok := p.statuses[name]
	if ok && previous == status {
		p.mu.Unlock()

		return
	}

	p.statuses[name] = status
	p.mu.Unlock()

	p.recorder.StatusChanged(status)
	p.emit(StatusChange{Name: name, Previous: previous, Status: status})
}

func (p *Poller) emit(change StatusChange) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	if p.stopped.Load() {
		return
	}

	p.notifier(change)
}

func (p *Poller) setExecMode(exec bool) {
	p.mu.Lock()
	p.execMode = exec
	p.mu.Unlock()
}

// Mode returns the mechanism used by the last completed cycle.
func (p *Poller) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastMode
}

// LastCheck returns when the last cycle completed.
func (p *Poller) LastCheck() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastCheck
}

// Snapshot returns the watched services in order with their last known status.
// Services without a result yet are reported as checking.
func (p *Poller) Snapshot() []ServiceStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]ServiceStatus, 0, len(p.watched))

	for _, name := range p.watched {
		status, ok := p.statuses[name]
		if !ok {
			status = models.StatusChecking
		}

		out = append(out, ServiceStatus{Name: name, Status: status})
	}

	return out
}

// Status returns the cached status of name.
func (p *Poller) Status(name string) (models.Status, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[name]

	return status, ok
}

// Activity returns the recent activity log, oldest first.
func (p *Poller) Activity() []ActivityLine {
	return p.activity.snapshot()
}
