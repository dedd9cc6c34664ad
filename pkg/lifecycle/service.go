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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/proton2025/widgetd/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

// Service is a long running component managed by Run.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// NamedService pairs a Service with a name used in logs.
type NamedService struct {
	Name    string
	Service Service
}

// RunOptions configures Run.
type RunOptions struct {
	Services        []NamedService
	ShutdownTimeout time.Duration
	Logger          logger.Logger
}

// Run starts every service, waits for SIGINT/SIGTERM or context cancellation and
// then stops the services in reverse order.
func Run(ctx context.Context, opts *RunOptions) error {
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(opts.Services))

	var wg sync.WaitGroup

	for _, svc := range opts.Services {
		wg.Add(1)

		go func(svc NamedService) {
			defer wg.Done()

			log.Info().Str("service", svc.Name).Msg("Starting service")

			if err := svc.Service.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", svc.Name, err)
			}
		}(svc)
	}

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("Service failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()

	var errs []error

	for i := len(opts.Services) - 1; i >= 0; i-- {
		svc := opts.Services[i]
		if err := svc.Service.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Str("service", svc.Name).Msg("Error stopping service")
			errs = append(errs, err)
		}
	}

	stop()
	wg.Wait()

	if runErr != nil {
		return runErr
	}

	return errors.Join(errs...)
}
