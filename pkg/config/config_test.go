package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
)

var errFakeKV = errors.New("kv unavailable")

// fakeKVStore implements kv.KVStore for unit tests.
type fakeKVStore struct {
	values map[string][]byte
	getErr error
}

func (f *fakeKVStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}

	val, ok := f.values[key]

	return val, ok, nil
}

func (f *fakeKVStore) Put(_ context.Context, key string, value []byte, _ time.Duration) error {
	if f.values == nil {
		f.values = make(map[string][]byte)
	}

	f.values[key] = value

	return nil
}

func (*fakeKVStore) Delete(context.Context, string) error { return nil }

func (*fakeKVStore) Keys(context.Context, string) ([]string, error) { return nil, nil }

func (*fakeKVStore) Watch(context.Context, string) (<-chan []byte, error) { return nil, nil }

func (*fakeKVStore) Close() error { return nil }

type testUbusConfig struct {
	URL     string          `json:"url"`
	Timeout models.Duration `json:"timeout"`
}

type testConfig struct {
	Listen   string          `json:"listen"`
	Debug    bool            `json:"debug"`
	Watch    []string        `json:"watch"`
	Interval models.Duration `json:"interval"`
	Ubus     testUbusConfig  `json:"ubus"`

	validated bool
}

func (c *testConfig) Validate() error {
	c.validated = true

	if c.Listen == "" {
		c.Listen = ":8090"
	}

	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "widgetd.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidateFromFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeConfig(t, `{"debug": true, "watch": ["dnsmasq"], "interval": "10s", "ubus": {"url": "http://192.168.1.1/ubus"}}`)

	var cfg testConfig

	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.True(t, cfg.validated)
	assert.True(t, cfg.Debug)
	assert.Equal(t, ":8090", cfg.Listen)
	assert.Equal(t, []string{"dnsmasq"}, cfg.Watch)
	assert.Equal(t, models.Duration(10*time.Second), cfg.Interval)
	assert.Equal(t, "http://192.168.1.1/ubus", cfg.Ubus.URL)
}

func TestFileLoaderRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `{"listn": ":1"}`)

	var cfg testConfig

	err := (&FileConfigLoader{}).Load(context.Background(), path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listn")
}

func TestFileLoaderMissingFile(t *testing.T) {
	var cfg testConfig

	err := (&FileConfigLoader{}).Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"), &cfg)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv("WIDGETD_LISTEN", ":9000")
	t.Setenv("WIDGETD_DEBUG", "true")
	t.Setenv("WIDGETD_WATCH", "dnsmasq, dropbear")
	t.Setenv("WIDGETD_INTERVAL", "30s")
	t.Setenv("WIDGETD_UBUS_URL", "http://router/ubus")
	t.Setenv("WIDGETD_UBUS_TIMEOUT", "bogus")

	var cfg testConfig

	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "ignored", &cfg))

	assert.Equal(t, ":9000", cfg.Listen)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"dnsmasq", "dropbear"}, cfg.Watch)
	assert.Equal(t, models.Duration(30*time.Second), cfg.Interval)
	assert.Equal(t, "http://router/ubus", cfg.Ubus.URL)
	assert.Zero(t, cfg.Ubus.Timeout)
}

func TestLoadFromEnvConfigJSON(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "TEST_")
	t.Setenv("TEST_CONFIG_JSON", `{"listen": ":7000"}`)

	var cfg testConfig

	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))
	assert.Equal(t, ":7000", cfg.Listen)
}

func TestLoadFromKV(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	store := &fakeKVStore{values: map[string][]byte{
		"config/widgetd.json": []byte(`{"listen": ":7100"}`),
	}}

	c := NewConfig(logger.NewTestLogger())
	c.SetKVStore(store)

	var cfg testConfig

	require.NoError(t, c.LoadAndValidate(context.Background(), "/etc/proton2025/widgetd.json", &cfg))
	assert.Equal(t, ":7100", cfg.Listen)
}

func TestLoadFromKVFallsBackToFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	path := writeConfig(t, `{"listen": ":7200"}`)

	c := NewConfig(logger.NewTestLogger())
	c.SetKVStore(&fakeKVStore{getErr: errFakeKV})

	var cfg testConfig

	require.NoError(t, c.LoadAndValidate(context.Background(), path, &cfg))
	assert.Equal(t, ":7200", cfg.Listen)
}

func TestLoadFromKVWithoutStore(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var cfg testConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), "x.json", &cfg)
	require.ErrorIs(t, err, errKVStoreNotSet)
}

func TestInvalidConfigSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "consul")

	var cfg testConfig

	err := NewConfig(nil).LoadAndValidate(context.Background(), "x.json", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}
