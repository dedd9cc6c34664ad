package dashboard

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/poller"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))

	return ev
}

func TestHubHelloAndBroadcast(t *testing.T) {
	env := newTestEnv(t, nil)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	conn := dial(t, srv)

	hello := readEvent(t, conn)
	assert.Equal(t, EventHello, hello.Type)

	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	env.hub.StatusHandler()(poller.StatusChange{Name: "dnsmasq", Previous: models.StatusStopped, Status: models.StatusRunning})

	ev := readEvent(t, conn)
	assert.Equal(t, EventServiceStatus, ev.Type)

	data, ok := ev.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dnsmasq", data["name"])
	assert.Equal(t, "running", data["status"])
}

func TestHubSettingsSyncedEvent(t *testing.T) {
	env := newTestEnv(t, nil)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	_ = readEvent(t, conn)

	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	env.hub.Broadcast(EventSettingsSynced, map[string]string{"proton-theme-mode": "dark"})

	ev := readEvent(t, conn)
	assert.Equal(t, EventSettingsSynced, ev.Type)
}

func TestHubVisibilityDrivesWidgets(t *testing.T) {
	env := newTestEnv(t, nil)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	_ = readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "visibility", "visible": false}))

	require.Eventually(t, func() bool {
		v := env.services.visibility()

		return len(v) == 1 && !v[0]
	}, time.Second, 10*time.Millisecond)

	assert.False(t, env.hub.Visible())

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "visibility", "visible": true}))

	require.Eventually(t, func() bool {
		v := env.services.visibility()

		return len(v) == 2 && v[1]
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		env.temp.mu.Lock()
		defer env.temp.mu.Unlock()

		return len(env.temp.visible) == 2 && !env.temp.visible[0] && env.temp.visible[1]
	}, time.Second, 10*time.Millisecond)
}

func TestHubLastHiddenClientLeaving(t *testing.T) {
	env := newTestEnv(t, nil)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	_ = readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "visibility", "visible": false}))
	require.Eventually(t, func() bool { return len(env.services.visibility()) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		v := env.services.visibility()

		return len(v) == 2 && v[1]
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, env.hub.Clients())
}

func TestHubIgnoresMalformedMessages(t *testing.T) {
	env := newTestEnv(t, nil)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	_ = readEvent(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "visibility"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))

	env.hub.Broadcast(EventTemperature, map[string]int{"temp": 40})

	ev := readEvent(t, conn)
	assert.Equal(t, EventTemperature, ev.Type)
	assert.Empty(t, env.services.visibility())
	assert.Equal(t, 1, env.hub.Clients())
}

func TestHubCloseRefusesClients(t *testing.T) {
	env := newTestEnv(t, nil)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	_ = readEvent(t, conn)

	env.hub.Close()
	assert.Equal(t, 0, env.hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	late := dial(t, srv)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, _, err = late.ReadMessage()
	require.Error(t, err)
}
