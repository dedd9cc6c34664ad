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

package widgetd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/proton2025/widgetd/pkg/dashboard"
	"github.com/proton2025/widgetd/pkg/discovery"
	"github.com/proton2025/widgetd/pkg/i18n"
	"github.com/proton2025/widgetd/pkg/kv"
	"github.com/proton2025/widgetd/pkg/lifecycle"
	"github.com/proton2025/widgetd/pkg/loadavg"
	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/metrics"
	"github.com/proton2025/widgetd/pkg/natsutil"
	"github.com/proton2025/widgetd/pkg/poller"
	"github.com/proton2025/widgetd/pkg/settings"
	"github.com/proton2025/widgetd/pkg/temperature"
	"github.com/proton2025/widgetd/pkg/ubus"
	"github.com/proton2025/widgetd/pkg/version"
)

const menuFetchTimeout = 15 * time.Second

// App holds the wired components of the daemon.
type App struct {
	cfg    *Config
	logger logger.Logger
	nc     *nats.Conn

	Client     *ubus.Client
	KV         kv.KVStore
	Events     *natsutil.EventPublisher
	Local      settings.LocalStore
	Settings   *settings.Store
	Poller     *poller.Poller
	Discoverer *discovery.Discoverer
	Monitor    *temperature.Monitor
	Metrics    *metrics.Manager
	Hub        *dashboard.Hub
	Server     *dashboard.Server
}

// Option customizes New, mainly for tests.
type Option func(*options)

type options struct {
	kvStore  kv.KVStore
	stream   natsutil.StreamPublisher
	ubusOpts []ubus.Option
	version  string
}

// WithEventStream publishes status events to js instead of connecting to NATS.
func WithEventStream(js natsutil.StreamPublisher) Option {
	return func(o *options) { o.stream = js }
}

// WithKVStore uses store instead of connecting to the configured NATS bucket.
func WithKVStore(store kv.KVStore) Option {
	return func(o *options) { o.kvStore = store }
}

// WithUbusOptions passes options to the ubus client.
func WithUbusOptions(opts ...ubus.Option) Option {
	return func(o *options) { o.ubusOpts = append(o.ubusOpts, opts...) }
}

// WithVersion sets the version reported in metrics.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// New builds every component. Nothing talks to the router until the services start.
func New(ctx context.Context, cfg *Config, log logger.Logger, opts ...Option) (app *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{version: version.Get().Version}
	for _, opt := range opts {
		opt(o)
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	app = &App{cfg: cfg, logger: log}

	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	i18n.SetLanguage(cfg.Language)

	app.Client, err = ubus.NewClient(&cfg.Ubus, log, o.ubusOpts...)
	if err != nil {
		return app, fmt.Errorf("failed to create ubus client: %w", err)
	}

	if err = app.openKV(ctx, o.kvStore); err != nil {
		return app, err
	}

	if err = app.buildSettings(ctx); err != nil {
		return app, err
	}

	app.Metrics = metrics.NewManager(o.version)
	app.Hub = dashboard.NewHub(log)

	app.Settings.ObserveSyncs(app.Metrics.ObserveSettingsSync)

	if err = app.openEvents(ctx, o.stream); err != nil {
		return app, err
	}

	app.Poller, err = poller.New(&cfg.Poller, ubus.NewBackend(app.Client, log), settings.NewWatchListStore(app.Local),
		poller.WithLogger(log),
		poller.WithNotifier(app.statusNotifier()),
		poller.WithRecorder(app.Metrics),
		poller.WithTranslator(i18n.T),
	)
	if err != nil {
		return app, fmt.Errorf("failed to create poller: %w", err)
	}

	if cfg.Poller.Debug || settings.DebugEnabled(ctx, app.Local) {
		app.Poller.SetDebug(true)
	}

	initd, err := discovery.NewInitdCache(app.Client, time.Duration(cfg.Discovery.InitdTTL), log)
	if err != nil {
		return app, err
	}

	app.Discoverer, err = discovery.NewDiscoverer(initd,
		discovery.WithNotes(app.Poller.Note),
		discovery.WithTranslator(i18n.T),
		discovery.WithLogger(log),
	)
	if err != nil {
		return app, err
	}

	if err = app.buildMonitor(); err != nil {
		return app, err
	}

	app.Server, err = dashboard.NewServer(&cfg.Dashboard, app.Hub,
		dashboard.WithServices(app.Poller),
		dashboard.WithDiscoverer(app.Discoverer),
		dashboard.WithTemperature(app.Monitor),
		dashboard.WithLoadSampler(app.loadSampler()),
		dashboard.WithSettings(app.Settings),
		dashboard.WithCatalog(i18n.Default()),
		dashboard.WithMetrics(app.Metrics.Handler(), app.Metrics),
		dashboard.WithLogger(log),
	)
	if err != nil {
		return app, err
	}

	return app, nil
}

func (a *App) openKV(ctx context.Context, store kv.KVStore) error {
	switch {
	case store != nil:
		a.KV = store
	case a.cfg.KV != nil:
		natsStore, err := kv.NewNatsStore(ctx, a.cfg.KV, a.logger)
		if err != nil {
			return err
		}

		a.KV = natsStore
	}

	return nil
}

func (a *App) openEvents(ctx context.Context, stream natsutil.StreamPublisher) error {
	cfg := a.cfg.Events
	if cfg == nil {
		return nil
	}

	var js jetstream.JetStream

	if stream == nil {
		nc, err := natsutil.Connect(a.cfg.KV.NatsURL, a.cfg.KV.ConnectOptions("widgetd-events"), a.logger)
		if err != nil {
			return err
		}

		a.nc = nc

		if a.cfg.KV.Domain != "" {
			js, err = jetstream.NewWithDomain(nc, a.cfg.KV.Domain)
		} else {
			js, err = jetstream.New(nc)
		}

		if err != nil {
			return fmt.Errorf("failed to create JetStream context: %w", err)
		}

		stream = js
	}

	a.Events = natsutil.NewEventPublisher(stream, cfg.SubjectPrefix, cfg.Source, a.logger)

	if js == nil {
		return nil
	}

	ensureCtx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.KV.Timeout))
	defer cancel()

	// A missing stream only loses events; the dashboard keeps working.
	if err := natsutil.EnsureStream(ensureCtx, js, cfg.Stream, a.Events.Subjects()); err != nil {
		a.logger.Warn().Err(err).Str("stream", cfg.Stream).Msg("Failed to ensure event stream")
	}

	return nil
}

// statusNotifier fans poller status changes out to the dashboard and the event stream.
func (a *App) statusNotifier() func(poller.StatusChange) {
	broadcast := a.Hub.StatusHandler()
	if a.Events == nil {
		return broadcast
	}

	return func(change poller.StatusChange) {
		broadcast(change)
		a.Events.Notify(change)
	}
}

func (a *App) buildSettings(ctx context.Context) error {
	if a.cfg.Settings.DatabasePath != "" {
		local, err := settings.NewSQLiteStore(ctx, a.cfg.Settings.DatabasePath)
		if err != nil {
			return err
		}

		a.Local = local
	} else {
		a.Local = settings.NewMemoryStore(nil)
	}

	var remote settings.RemoteStore

	switch a.cfg.Settings.Remote {
	case settings.RemoteUbus:
		remote = settings.NewUbusRemote(a.Client)
	case settings.RemoteKV:
		if a.KV == nil {
			return errKVRequired
		}

		remote = settings.NewKVRemote(a.KV, a.cfg.Settings.KVPrefix)
	}

	store, err := settings.NewStore(&a.cfg.Settings, a.Local, remote, a.logger)
	if err != nil {
		return err
	}

	a.Settings = store

	return nil
}

func (a *App) buildMonitor() error {
	var source temperature.Source = temperature.NewUbusSource(a.Client, a.logger)
	if a.cfg.Temperature.UseHostSensors {
		source = temperature.NewFallbackSource(source, temperature.NewHostSource())
	}

	monitor, err := temperature.NewMonitor(&a.cfg.Temperature, source,
		temperature.WithLogger(a.logger),
		temperature.WithTranslator(i18n.T),
		temperature.WithUpdateHandler(func(snap temperature.Snapshot) {
			a.Metrics.ObserveTemperature(snap)
			a.Hub.Broadcast(dashboard.EventTemperature, snap)
		}),
	)
	if err != nil {
		return err
	}

	a.Monitor = monitor

	return nil
}

func (a *App) loadSampler() loadavg.Sampler {
	if a.cfg.Load.Source == LoadSourceHost {
		return loadavg.HostSampler{}
	}

	return loadavg.NewUbusSampler(a.Client)
}

// Services lists the components in start order.
func (a *App) Services() []lifecycle.NamedService {
	services := []lifecycle.NamedService{{Name: "settings", Service: a.Settings}}

	if a.Events != nil {
		services = append(services, lifecycle.NamedService{Name: "events", Service: a.Events})
	}

	return append(services, []lifecycle.NamedService{
		{Name: "poller", Service: a.Poller},
		{Name: "temperature", Service: a.Monitor},
		{Name: "menu", Service: &menuLoader{url: a.cfg.Discovery.MenuURL, discoverer: a.Discoverer, logger: a.logger}},
		{Name: "dashboard", Service: a.Server},
	}...)
}

// Close releases the stores. Services must be stopped first.
func (a *App) Close() error {
	var errs []error

	if a.Local != nil {
		errs = append(errs, a.Local.Close())
	}

	if a.KV != nil {
		errs = append(errs, a.KV.Close())
	}

	if a.nc != nil {
		a.nc.Close()
	}

	return errors.Join(errs...)
}

// menuLoader fetches the console menu once at start-up.
type menuLoader struct {
	url        string
	discoverer *discovery.Discoverer
	logger     logger.Logger
	client     *http.Client
}

func (m *menuLoader) Start(ctx context.Context) error {
	if m.url == "" {
		return nil
	}

	client := m.client
	if client == nil {
		client = &http.Client{Timeout: menuFetchTimeout}
	}

	slugs, err := discovery.FetchMenu(ctx, client, m.url)
	if err != nil {
		m.logger.Warn().Err(err).Str("url", m.url).Msg("Failed to load console menu")

		return nil
	}

	m.discoverer.SetMenu(slugs)
	m.logger.Info().Int("entries", len(slugs)).Msg("Console menu loaded")

	return nil
}

func (*menuLoader) Stop(context.Context) error {
	return nil
}
