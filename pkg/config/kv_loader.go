package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/proton2025/widgetd/pkg/kv"
)

// KVConfigLoader loads configuration from a KV store.
type KVConfigLoader struct {
	store kv.KVStore
}

// NewKVConfigLoader creates a new KVConfigLoader with the given KV store.
func NewKVConfigLoader(store kv.KVStore) *KVConfigLoader {
	return &KVConfigLoader{store: store}
}

// Load fetches config/<basename of path> and unmarshals it into dst.
func (k *KVConfigLoader) Load(ctx context.Context, path string, dst interface{}) error {
	key := KVKey(path)

	data, found, err := k.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get key '%s' from KV store: %w", key, err)
	}

	if !found {
		return fmt.Errorf("%w: '%s'", errKVKeyNotFound, key)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal JSON from key '%s': %w", key, err)
	}

	return nil
}
