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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/proton2025/widgetd/pkg/config"
	"github.com/proton2025/widgetd/pkg/kv"
	"github.com/proton2025/widgetd/pkg/lifecycle"
	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/version"
	"github.com/proton2025/widgetd/pkg/widgetd"
)

var errFailedToLoadConfig = errors.New("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/proton2025/widgetd.json", "Path to widgetd config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgLoader := config.NewConfig(nil)

	var bootstrapKV kv.KVStore

	if strings.EqualFold(os.Getenv("CONFIG_SOURCE"), "kv") {
		store, err := kv.NewNatsStore(ctx, &kv.Config{
			NatsURL:   os.Getenv("WIDGETD_NATS_URL"),
			Bucket:    os.Getenv("WIDGETD_KV_BUCKET"),
			CredsFile: os.Getenv("WIDGETD_NATS_CREDS"),
		}, logger.NewTestLogger())
		if err != nil {
			return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
		}

		defer func() { _ = store.Close() }()

		bootstrapKV = store
		cfgLoader.SetKVStore(store)
	}

	var cfg widgetd.Config

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	if err := lifecycle.InitializeLogger(cfg.Logging); err != nil {
		return err
	}

	appLogger, err := lifecycle.CreateComponentLogger("widgetd", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	build := version.Get()

	opts := []widgetd.Option{widgetd.WithVersion(build.Version)}

	// reuse the bootstrap connection when settings live in the same bucket
	if bootstrapKV != nil && cfg.KV != nil && cfg.KV.Bucket == os.Getenv("WIDGETD_KV_BUCKET") {
		opts = append(opts, widgetd.WithKVStore(nopCloser{bootstrapKV}))
	}

	app, err := widgetd.New(ctx, &cfg, appLogger, opts...)
	if err != nil {
		return err
	}

	appLogger.Info().Str("version", build.String()).Str("ubus", cfg.Ubus.URL).Msg("Starting widgetd")

	// procd respawns the daemon, which then loads the new configuration
	if bootstrapKV != nil {
		err := config.WatchKV(ctx, bootstrapKV, *configPath, appLogger, func([]byte) {
			appLogger.Info().Msg("Configuration changed, shutting down for restart")
			cancel()
		})
		if err != nil {
			appLogger.Warn().Err(err).Msg("Failed to watch KV configuration")
		}
	}

	runErr := lifecycle.Run(ctx, &lifecycle.RunOptions{
		Services: app.Services(),
		Logger:   appLogger,
	})

	if err := app.Close(); err != nil {
		appLogger.Warn().Err(err).Msg("Failed to close stores")
	}

	return runErr
}

// nopCloser leaves closing the shared store to its owner.
type nopCloser struct {
	kv.KVStore
}

func (nopCloser) Close() error {
	return nil
}
