package config

import (
	"context"
	"path/filepath"

	"github.com/proton2025/widgetd/pkg/kv"
	"github.com/proton2025/widgetd/pkg/logger"
)

// KVKey returns the key KVConfigLoader reads for path.
func KVKey(path string) string {
	return "config/" + filepath.Base(path)
}

// WatchKV calls onChange whenever the configuration stored for path changes.
// Deletes are logged and ignored. It returns once the watch is established;
// the watch ends with ctx.
func WatchKV(ctx context.Context, store kv.KVStore, path string, log logger.Logger, onChange func([]byte)) error {
	key := KVKey(path)

	ch, err := store.Watch(ctx, key)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-ch:
				if !ok {
					return
				}

				if len(data) == 0 {
					log.Info().Str("key", key).Msg("KV config deleted, keeping current configuration")

					continue
				}

				log.Info().Str("key", key).Msg("KV config updated")
				onChange(data)
			}
		}
	}()

	return nil
}
