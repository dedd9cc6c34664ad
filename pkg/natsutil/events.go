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

package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/poller"
)

const (
	DefaultStream        = "WIDGETD_EVENTS"
	DefaultSubjectPrefix = "widgetd.events"

	statusEventType  = "org.proton2025.widgetd.service.status"
	defaultQueueSize = 64
	publishTimeout   = 5 * time.Second
)

// CloudEvent is the envelope of every published event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject"`
	Time            time.Time   `json:"time"`
	Data            interface{} `json:"data"`
}

// StreamPublisher is the part of jetstream.JetStream used for publishing.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventPublisher publishes service status changes as CloudEvents to JetStream.
// Notify queues changes for a background worker so the poller is never blocked.
type EventPublisher struct {
	js     StreamPublisher
	prefix string
	source string
	logger logger.Logger
	now    func() time.Time

	queue    chan poller.StatusChange
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// NewEventPublisher creates a publisher. Empty prefix and source use defaults.
func NewEventPublisher(js StreamPublisher, prefix, source string, log logger.Logger) *EventPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	if source == "" {
		source = "widgetd"
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &EventPublisher{
		js:     js,
		prefix: prefix,
		source: source,
		logger: log,
		now:    time.Now,
		queue:  make(chan poller.StatusChange, defaultQueueSize),
		done:   make(chan struct{}),
	}
}

// Subjects returns the subjects the publisher writes to, for stream creation.
func (p *EventPublisher) Subjects() []string {
	return []string{p.prefix + ".service.>"}
}

// PublishStatusChange publishes change and waits for the stream acknowledgement.
func (p *EventPublisher) PublishStatusChange(ctx context.Context, change poller.StatusChange) error {
	subject := p.prefix + ".service." + change.Name

	event := CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          p.source,
		Type:            statusEventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            p.now().UTC(),
		Data:            change,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}

	p.logger.Debug().Str("subject", subject).Uint64("seq", ack.Sequence).Msg("Published status event")

	return nil
}

// Notify queues change. It drops the change when the queue is full or the publisher stopped.
func (p *EventPublisher) Notify(change poller.StatusChange) {
	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.queue <- change:
	default:
		p.logger.Warn().Str("service", change.Name).Msg("Event queue full, dropping status event")
	}
}

// Start runs the publishing worker. It does not block.
func (p *EventPublisher) Start(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	p.started = true
	p.wg.Add(1)

	go p.run()

	return nil
}

func (p *EventPublisher) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case change := <-p.queue:
			p.publish(change)
		}
	}
}

func (p *EventPublisher) publish(change poller.StatusChange) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.PublishStatusChange(ctx, change); err != nil {
		p.logger.Warn().Err(err).Str("service", change.Name).Msg("Failed to publish status event")
	}
}

// Stop publishes what is still queued, bounded by ctx, and stops the worker.
func (p *EventPublisher) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		close(p.done)
	})

	p.wg.Wait()

	for {
		select {
		case change := <-p.queue:
			if err := p.PublishStatusChange(ctx, change); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// EnsureStream creates stream for subjects unless it already exists.
func EnsureStream(ctx context.Context, js jetstream.JetStream, stream string, subjects []string) error {
	_, err := js.Stream(ctx, stream)
	if err == nil {
		return nil
	}

	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", stream, err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      stream,
		Subjects:  subjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	}); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", stream, err)
	}

	return nil
}
