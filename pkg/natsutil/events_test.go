package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/poller"
)

type published struct {
	subject string
	payload []byte
}

type fakeStream struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakeStream) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	f.msgs = append(f.msgs, published{subject: subject, payload: payload})

	return &jetstream.PubAck{Stream: DefaultStream, Sequence: uint64(len(f.msgs))}, nil
}

func (f *fakeStream) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.msgs)
}

func TestPublishStatusChange(t *testing.T) {
	js := &fakeStream{}
	p := NewEventPublisher(js, "", "widgetd/router", nil)
	p.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	change := poller.StatusChange{Name: "dnsmasq", Previous: models.StatusRunning, Status: models.StatusStopped}
	require.NoError(t, p.PublishStatusChange(context.Background(), change))

	require.Len(t, js.msgs, 1)
	assert.Equal(t, "widgetd.events.service.dnsmasq", js.msgs[0].subject)

	var event struct {
		SpecVersion string             `json:"specversion"`
		Source      string             `json:"source"`
		Type        string             `json:"type"`
		Time        time.Time          `json:"time"`
		Data        poller.StatusChange `json:"data"`
	}

	require.NoError(t, json.Unmarshal(js.msgs[0].payload, &event))
	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, "widgetd/router", event.Source)
	assert.Equal(t, statusEventType, event.Type)
	assert.Equal(t, change, event.Data)
	assert.Equal(t, []string{"widgetd.events.service.>"}, p.Subjects())
}

func TestPublishStatusChangeError(t *testing.T) {
	errDown := errors.New("no responders")
	p := NewEventPublisher(&fakeStream{err: errDown}, "custom", "", nil)

	err := p.PublishStatusChange(context.Background(), poller.StatusChange{Name: "cron", Status: models.StatusRunning})
	require.ErrorIs(t, err, errDown)
}

func TestNotifyIsPublishedByWorker(t *testing.T) {
	js := &fakeStream{}
	p := NewEventPublisher(js, "", "", nil)

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Start(context.Background()))

	p.Notify(poller.StatusChange{Name: "dnsmasq", Status: models.StatusRunning})
	p.Notify(poller.StatusChange{Name: "dropbear", Status: models.StatusStopped})

	require.Eventually(t, func() bool { return js.count() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, p.Stop(context.Background()))
	require.NoError(t, p.Stop(context.Background()))

	p.Notify(poller.StatusChange{Name: "uhttpd", Status: models.StatusRunning})
	assert.Equal(t, 2, js.count())
}

func TestStopDrainsQueue(t *testing.T) {
	js := &fakeStream{}
	p := NewEventPublisher(js, "", "", nil)

	for i := 0; i < 3; i++ {
		p.Notify(poller.StatusChange{Name: "dnsmasq", Status: models.StatusRunning})
	}

	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, 3, js.count())
}

func TestNotifyDropsWhenFull(t *testing.T) {
	js := &fakeStream{}
	p := NewEventPublisher(js, "", "", nil)

	for i := 0; i < defaultQueueSize+5; i++ {
		p.Notify(poller.StatusChange{Name: "dnsmasq", Status: models.StatusRunning})
	}

	assert.Len(t, p.queue, defaultQueueSize)
}
