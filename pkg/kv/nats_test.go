package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/natsutil"
)

func TestConfigValidate(t *testing.T) {
	require.ErrorIs(t, (&Config{Bucket: "widgetd"}).Validate(), errNatsURLRequired)
	require.ErrorIs(t, (&Config{NatsURL: "nats://127.0.0.1:4222"}).Validate(), errBucketRequired)

	cfg := &Config{NatsURL: "nats://127.0.0.1:4222", Bucket: "widgetd"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, models.Duration(defaultConnectTimeout), cfg.Timeout)
}

func TestConfigConnectOptions(t *testing.T) {
	tlsFiles := &natsutil.TLSFiles{ServerName: "nats.lan"}
	cfg := &Config{CredsFile: "/etc/nats/widgetd.creds", Timeout: models.Duration(2 * time.Second), TLS: tlsFiles}

	opts := cfg.ConnectOptions("widgetd-kv")
	assert.Equal(t, "widgetd-kv", opts.Name)
	assert.Equal(t, 2*time.Second, opts.Timeout)
	assert.Equal(t, "/etc/nats/widgetd.creds", opts.CredsFile)
	assert.Same(t, tlsFiles, opts.TLS)
}

func TestNewNatsStoreRejectsInvalidConfig(t *testing.T) {
	_, err := NewNatsStore(context.Background(), &Config{}, logger.NewTestLogger())
	require.ErrorIs(t, err, errNatsURLRequired)
}

func TestWatchRejectsEmptyKey(t *testing.T) {
	n := &NatsStore{logger: logger.NewTestLogger()}

	_, err := n.Watch(context.Background(), "")
	require.ErrorIs(t, err, errInvalidKeyPattern)
}
