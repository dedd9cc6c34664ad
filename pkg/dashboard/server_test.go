package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proton2025/widgetd/pkg/catalog"
	"github.com/proton2025/widgetd/pkg/loadavg"
	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/pages"
	"github.com/proton2025/widgetd/pkg/poller"
	"github.com/proton2025/widgetd/pkg/settings"
	"github.com/proton2025/widgetd/pkg/temperature"
)

type fakeServices struct {
	mu      sync.Mutex
	watched []string
	status  map[string]models.Status
	visible []bool
	debug   bool
	checks  int
	stopped bool
}

func newFakeServices(names ...string) *fakeServices {
	return &fakeServices{watched: names, status: make(map[string]models.Status)}
}

func (f *fakeServices) Watched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.watched...)
}

func (f *fakeServices) AddWatched(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.watched {
		if n == name {
			return false
		}
	}

	f.watched = append(f.watched, name)

	return true
}

func (f *fakeServices) RemoveWatched(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, n := range f.watched {
		if n == name {
			f.watched = append(f.watched[:i], f.watched[i+1:]...)

			return true
		}
	}

	return false
}

func (f *fakeServices) CheckAll(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.checks++

	for _, n := range f.watched {
		f.status[n] = models.StatusRunning
	}
}

func (f *fakeServices) Snapshot() []poller.ServiceStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []poller.ServiceStatus

	for _, n := range f.watched {
		if st, ok := f.status[n]; ok {
			out = append(out, poller.ServiceStatus{Name: n, Status: st})
		}
	}

	return out
}

func (f *fakeServices) Activity() []poller.ActivityLine {
	return []poller.ActivityLine{{Text: "Services loaded: 2"}}
}

func (*fakeServices) Mode() poller.Mode { return poller.ModeRPC }

func (*fakeServices) LastCheck() time.Time { return time.Time{} }

func (f *fakeServices) SetVisible(v bool) {
	f.mu.Lock()
	f.visible = append(f.visible, v)
	f.mu.Unlock()
}

func (f *fakeServices) visibility() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]bool(nil), f.visible...)
}

func (f *fakeServices) SetDebug(v bool) {
	f.mu.Lock()
	f.debug = v
	f.mu.Unlock()
}

func (f *fakeServices) Stopped() bool { return f.stopped }

type fakeDiscoverer struct {
	menu []string
}

func (*fakeDiscoverer) Available(context.Context) []catalog.Entry {
	return []catalog.Entry{
		{Name: "dnsmasq", Installed: true},
		{Name: "firewall", Installed: true},
		{Name: "adblock", Installed: false},
	}
}

func (d *fakeDiscoverer) SetMenu(slugs []string) { d.menu = slugs }

func (d *fakeDiscoverer) Menu() []string { return d.menu }

type fakeTemperature struct {
	mu      sync.Mutex
	visible []bool
}

func (*fakeTemperature) Snapshot() temperature.Snapshot {
	return temperature.Snapshot{
		State:   temperature.StateReady,
		Sensors: []temperature.Reading{{Name: "cpu", Temp: 52, Level: temperature.LevelWarm}},
	}
}

func (f *fakeTemperature) SetVisible(v bool) {
	f.mu.Lock()
	f.visible = append(f.visible, v)
	f.mu.Unlock()
}

type fakeSampler struct {
	err error
}

func (f fakeSampler) Sample(context.Context) ([3]float64, int, error) {
	return [3]float64{0.5, 1.5, 3}, 2, f.err
}

type recordedLoad struct {
	mu      sync.Mutex
	reports []loadavg.Report
}

func (r *recordedLoad) ObserveTemperature(temperature.Snapshot) {}

func (r *recordedLoad) ObserveSettingsSync(bool, error) {}

func (r *recordedLoad) ObserveLoad(report loadavg.Report) {
	r.mu.Lock()
	r.reports = append(r.reports, report)
	r.mu.Unlock()
}

type testEnv struct {
	server   *Server
	hub      *Hub
	services *fakeServices
	disc     *fakeDiscoverer
	temp     *fakeTemperature
	store    *settings.Store
	local    *settings.MemoryStore
	load     *recordedLoad
}

func newTestEnv(t *testing.T, sampler loadavg.Sampler) *testEnv {
	t.Helper()

	env := &testEnv{
		hub:      NewHub(logger.NewTestLogger()),
		services: newFakeServices("dnsmasq", "dropbear"),
		disc:     &fakeDiscoverer{},
		temp:     &fakeTemperature{},
		local:    settings.NewMemoryStore(nil),
		load:     &recordedLoad{},
	}

	store, err := settings.NewStore(&settings.Config{Remote: settings.RemoteNone}, env.local, nil, logger.NewTestLogger())
	require.NoError(t, err)

	env.store = store

	if sampler == nil {
		sampler = fakeSampler{}
	}

	env.server, err = NewServer(&Config{}, env.hub,
		WithServices(env.services),
		WithDiscoverer(env.disc),
		WithTemperature(env.temp),
		WithLoadSampler(sampler),
		WithSettings(store),
		WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("widgetd_up 1\n"))
		}), env.load),
		WithLogger(logger.NewTestLogger()),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Stop(context.Background()) })

	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func TestNewServerRequiresHub(t *testing.T) {
	_, err := NewServer(nil, nil)
	require.ErrorIs(t, err, errNilHub)
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":9140", cfg.ListenAddr)
	assert.Equal(t, models.Duration(10*time.Second), cfg.ReadTimeout)
}

func TestGetServicesBeforeFirstCheck(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/services", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[servicesResponse](t, rec)
	require.Len(t, resp.Services, 2)
	assert.Equal(t, "dnsmasq", resp.Services[0].Name)
	assert.Equal(t, models.StatusChecking, resp.Services[0].Status)
	assert.True(t, resp.Services[0].Watched)
	assert.Equal(t, poller.ModeRPC, resp.Mode)
	assert.Nil(t, resp.LastCheck)
}

func TestServicesAreTranslated(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/services?lang=ru", "")
	resp := decode[servicesResponse](t, rec)

	assert.Equal(t, "DNS и DHCP сервер", resp.Services[0].Description)

	rec = env.do(t, http.MethodGet, "/api/services", "", "Accept-Language", "ru-RU,ru;q=0.9")
	resp = decode[servicesResponse](t, rec)

	assert.Equal(t, "DNS и DHCP сервер", resp.Services[0].Description)
}

func TestAddService(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/services", `{"name":"firewall"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"dnsmasq", "dropbear", "firewall"}, env.services.Watched())

	rec = env.do(t, http.MethodPost, "/api/services", `{"name":"firewall"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/services", `{"name":"bad name!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errInvalidName.Error(), decode[errorResponse](t, rec).Message)

	rec = env.do(t, http.MethodPost, "/api/services", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/services", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveService(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodDelete, "/api/services/dropbear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"dnsmasq"}, env.services.Watched())

	rec = env.do(t, http.MethodDelete, "/api/services/dropbear", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckServices(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/services/check", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[servicesResponse](t, rec)
	assert.Equal(t, models.StatusRunning, resp.Services[1].Status)
	assert.Equal(t, 1, env.services.checks)
}

func TestServiceLog(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := decode[logResponse](t, env.do(t, http.MethodGet, "/api/services/log", ""))
	assert.True(t, resp.Enabled)
	require.Len(t, resp.Lines, 1)

	require.NoError(t, env.store.Set(context.Background(), settings.KeyServicesLog, "false"))

	resp = decode[logResponse](t, env.do(t, http.MethodGet, "/api/services/log", ""))
	assert.False(t, resp.Enabled)
}

func TestAvailableServices(t *testing.T) {
	env := newTestEnv(t, nil)

	groups := decode[[]catalog.Group](t, env.do(t, http.MethodGet, "/api/services/available", ""))
	require.NotEmpty(t, groups)

	var names []string

	for _, g := range groups {
		for _, svc := range g.Services {
			names = append(names, svc.Name)
		}
	}

	assert.Contains(t, names, "adblock")
	assert.Contains(t, names, "dnsmasq")
	assert.Contains(t, names, "dropbear")
	assert.NotContains(t, names, "firewall")

	groups = decode[[]catalog.Group](t, env.do(t, http.MethodGet, "/api/services/available?q=zzzz", ""))
	assert.Empty(t, groups)
}

func TestMenuEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	page := `<html><body><ul id="mainmenu"><li><a href="/cgi-bin/luci/admin/services/adblock">Adblock</a></li></ul></body></html>`

	rec := env.do(t, http.MethodPost, "/api/services/menu", page)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"adblock"}, env.disc.menu)

	menu := decode[[]string](t, env.do(t, http.MethodGet, "/api/services/menu", ""))
	assert.Equal(t, []string{"adblock"}, menu)
}

func TestTemperatureEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	snap := decode[temperature.Snapshot](t, env.do(t, http.MethodGet, "/api/temperature", ""))
	assert.Equal(t, temperature.StateReady, snap.State)
	require.Len(t, snap.Sensors, 1)
	assert.Equal(t, 52, snap.Sensors[0].Temp)
}

func TestLoadEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	report := decode[loadavg.Report](t, env.do(t, http.MethodGet, "/api/load", ""))
	assert.Equal(t, 2, report.Cores)
	assert.Equal(t, loadavg.LevelLow, report.Items[0].Level)
	assert.Equal(t, loadavg.LevelHigh, report.Items[2].Level)

	env.load.mu.Lock()
	assert.Len(t, env.load.reports, 1)
	env.load.mu.Unlock()
}

func TestLoadEndpointFailure(t *testing.T) {
	env := newTestEnv(t, fakeSampler{err: errors.New("no rpc")})

	rec := env.do(t, http.MethodGet, "/api/load", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/api/settings", `{"proton-theme-mode":"dark","proton-services-widget-debug":"true"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	all := decode[map[string]string](t, rec)
	assert.Equal(t, "dark", all[settings.KeyThemeMode])
	assert.True(t, env.services.debug)

	rec = env.do(t, http.MethodPut, "/api/settings", `{"proton-services-widget":"[]"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/settings", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, env.local.Set(context.Background(), settings.KeyWatchList, `["cron"]`))

	all = decode[map[string]string](t, env.do(t, http.MethodGet, "/api/settings", ""))
	assert.NotContains(t, all, settings.KeyWatchList)
}

func TestSettingsSyncWithoutRemote(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := decode[syncResponse](t, env.do(t, http.MethodPost, "/api/settings/sync", ""))
	assert.False(t, resp.Changed)
}

func TestI18nEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := decode[i18nResponse](t, env.do(t, http.MethodGet, "/api/i18n?lang=ru_RU", ""))
	assert.Equal(t, "ru", resp.Language)
	assert.Equal(t, "Добавить", resp.Dictionary["Add"])
	assert.Contains(t, resp.Languages, "en")

	resp = decode[i18nResponse](t, env.do(t, http.MethodGet, "/api/i18n", ""))
	assert.Equal(t, "en", resp.Language)
	assert.Empty(t, resp.Dictionary)
}

func TestPageEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	layout := decode[pages.Layout](t, env.do(t, http.MethodGet, "/api/page?page=admin-status-overview&width=1280", ""))
	assert.True(t, layout.Overview)
	assert.True(t, layout.WidgetsSection)
	assert.True(t, layout.ServicesWidget)

	require.NoError(t, env.store.Set(context.Background(), settings.KeyServicesWidget, "false"))
	require.NoError(t, env.store.Set(context.Background(), settings.KeyTempWidget, "false"))

	layout = decode[pages.Layout](t, env.do(t, http.MethodGet, "/api/page?page=admin-status-overview", ""))
	assert.False(t, layout.WidgetsSection)

	rec := env.do(t, http.MethodGet, "/api/page?width=wide", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := decode[healthResponse](t, env.do(t, http.MethodGet, "/healthz", ""))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Visible)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, "widgetd_up 1\n", rec.Body.String())

	env.services.stopped = true

	rec = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS(t *testing.T) {
	hub := NewHub(nil)

	s, err := NewServer(&Config{AllowedOrigins: []string{"http://router.lan"}}, hub)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/i18n", nil)
	req.Header.Set("Origin", "http://router.lan")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://router.lan", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/i18n", nil)
	req.Header.Set("Origin", "http://evil.example")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnconfiguredRoutesAreAbsent(t *testing.T) {
	s, err := NewServer(nil, NewHub(nil))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
