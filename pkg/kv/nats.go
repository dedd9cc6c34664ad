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

package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/natsutil"
)

const defaultConnectTimeout = 5 * time.Second

// Config describes how to reach the JetStream key/value bucket.
type Config struct {
	NatsURL   string             `json:"nats_url"`
	Bucket    string             `json:"bucket"`
	CredsFile string             `json:"creds_file,omitempty"`
	Domain    string             `json:"domain,omitempty"`
	Timeout   models.Duration    `json:"timeout,omitempty"`
	TLS       *natsutil.TLSFiles `json:"tls,omitempty"`
}

// ConnectOptions returns the connection settings shared with other NATS clients.
func (c *Config) ConnectOptions(name string) *natsutil.ConnectOptions {
	return &natsutil.ConnectOptions{
		Name:      name,
		Timeout:   time.Duration(c.Timeout),
		CredsFile: c.CredsFile,
		TLS:       c.TLS,
	}
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.NatsURL == "" {
		return errNatsURLRequired
	}

	if c.Bucket == "" {
		return errBucketRequired
	}

	if c.Timeout == 0 {
		c.Timeout = models.Duration(defaultConnectTimeout)
	}

	return nil
}

// NatsStore is a KVStore on top of a JetStream key/value bucket.
type NatsStore struct {
	nc     *nats.Conn
	kv     jetstream.KeyValue
	bucket string
	logger logger.Logger
}

var _ KVStore = (*NatsStore)(nil)

// NewNatsStore connects to NATS and creates (or binds to) the configured bucket.
func NewNatsStore(ctx context.Context, cfg *Config, log logger.Logger) (*NatsStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nc, err := natsutil.Connect(cfg.NatsURL, cfg.ConnectOptions("widgetd-kv"), log)
	if err != nil {
		return nil, err
	}

	var js jetstream.JetStream

	if cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, cfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	createCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeout))
	defer cancel()

	bucket, err := js.CreateOrUpdateKeyValue(createCtx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "proton2025 widget settings",
		History:     1,
	})
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}

	log.Info().Str("bucket", cfg.Bucket).Str("url", cfg.NatsURL).Msg("Connected to NATS key/value bucket")

	return &NatsStore{nc: nc, kv: bucket, bucket: cfg.Bucket, logger: log}, nil
}

func (n *NatsStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := n.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return entry.Value(), true, nil
}

func (n *NatsStore) Put(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if _, err := n.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	lister, err := n.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	var keys []string

	for key := range lister.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (n *NatsStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	if key == "" {
		return nil, errInvalidKeyPattern
	}

	watcher, err := n.kv.Watch(ctx, key, jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to watch key %s: %w", key, err)
	}

	ch := make(chan []byte, 1)

	go func() {
		defer close(ch)

		defer func() {
			if err := watcher.Stop(); err != nil {
				n.logger.Debug().Err(err).Str("key", key).Msg("Failed to stop KV watcher")
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-watcher.Updates():
				if !ok {
					return
				}

				if update == nil {
					continue
				}

				var value []byte
				if op := update.Operation(); op != jetstream.KeyValueDelete && op != jetstream.KeyValuePurge {
					value = update.Value()
				}

				select {
				case ch <- value:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func (n *NatsStore) Close() error {
	n.nc.Close()

	return nil
}
