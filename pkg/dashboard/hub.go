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

package dashboard

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/poller"
)

// Event types pushed to clients.
const (
	EventHello          = "hello"
	EventServiceStatus  = "service_status"
	EventSettingsSynced = "settings_synced"
	EventTemperature    = "temperature"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
)

// Event is one message sent over the WebSocket.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type clientMessage struct {
	Type    string `json:"type"`
	Visible *bool  `json:"visible,omitempty"`
}

type client struct {
	id      uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
	visible bool

	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Hub fans events out to connected clients and tracks whether any of them is
// showing the widgets.
type Hub struct {
	logger logger.Logger

	mu           sync.Mutex
	clients      map[uuid.UUID]*client
	visible      bool
	closed       bool
	onVisibility func(visible bool)
}

// NewHub creates an empty Hub. With no clients connected the widgets count as visible.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Hub{
		logger:  log,
		clients: make(map[uuid.UUID]*client),
		visible: true,
	}
}

// OnVisibility registers f to be called when the combined visibility changes.
func (h *Hub) OnVisibility(f func(visible bool)) {
	h.mu.Lock()
	h.onVisibility = f
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Visible reports whether any client shows the widgets.
func (h *Hub) Visible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.visible
}

// StatusHandler returns a poller notifier publishing service_status events.
func (h *Hub) StatusHandler() func(poller.StatusChange) {
	return func(change poller.StatusChange) {
		h.Broadcast(EventServiceStatus, change)
	}
}

// Broadcast sends an event to every client. Clients that cannot keep up are dropped.
func (h *Hub) Broadcast(eventType string, data any) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now()})
	if err != nil {
		h.logger.Error().Err(err).Str("type", eventType).Msg("Failed to encode event")

		return
	}

	h.mu.Lock()

	var slow []*client

	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn().Str("client", c.id.String()).Msg("Dropping slow WebSocket client")
		h.unregister(c)
	}
}

// Serve upgrades the request and runs the client until it disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Failed to upgrade to WebSocket")

		return
	}

	c := &client{
		id:      uuid.New(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		visible: true,
		done:    make(chan struct{}),
	}

	if !h.register(c) {
		_ = conn.Close()

		return
	}

	h.logger.Debug().Str("client", c.id.String()).Str("remote_addr", r.RemoteAddr).Msg("WebSocket client connected")

	hello, _ := json.Marshal(Event{Type: EventHello, Data: map[string]string{"id": c.id.String()}, Timestamp: time.Now()})
	c.send <- hello

	go h.writePump(c)

	h.readPump(c)
	h.unregister(c)

	h.logger.Debug().Str("client", c.id.String()).Msg("WebSocket client disconnected")
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()

		return false
	}

	h.clients[c.id] = c
	notify := h.recomputeLocked()
	h.mu.Unlock()

	notify()

	return true
}

func (h *Hub) unregister(c *client) {
	c.close()

	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()

		return
	}

	delete(h.clients, c.id)
	notify := h.recomputeLocked()
	h.mu.Unlock()

	notify()
}

func (h *Hub) setClientVisible(c *client, visible bool) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()

		return
	}

	c.visible = visible
	notify := h.recomputeLocked()
	h.mu.Unlock()

	notify()
}

// recomputeLocked updates the combined visibility and returns the callback to
// run once the lock is released.
func (h *Hub) recomputeLocked() func() {
	visible := len(h.clients) == 0

	for _, c := range h.clients {
		if c.visible {
			visible = true

			break
		}
	}

	if visible == h.visible || h.closed {
		return func() {}
	}

	h.visible = visible
	f := h.onVisibility

	if f == nil {
		return func() {}
	}

	return func() { f(visible) }
}

func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("client", c.id.String()).Msg("WebSocket read failed")
			}

			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug().Err(err).Str("client", c.id.String()).Msg("Ignoring malformed client message")

			continue
		}

		if msg.Type == "visibility" && msg.Visible != nil {
			h.setClientVisible(c, *msg.Visible)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()

				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()

				return
			}
		}
	}
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true

	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}

	h.clients = make(map[uuid.UUID]*client)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		c.close()
	}
}
