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

package settings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/proton2025/widgetd/pkg/logger"
)

// SyncListener receives the local keys (and new values) changed by a remote sync.
type SyncListener func(changed map[string]string)

// Store is the two-tier settings store: writes land in the local cache at once
// and mapped options are saved remotely after a short debounce.
type Store struct {
	local  LocalStore
	remote RemoteStore
	cfg    *Config
	logger logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pending   map[string]string
	saveTimer *time.Timer
	syncTimer *time.Timer
	listeners []SyncListener
	observer  func(changed bool, err error)
	cron      *cron.Cron

	saveMu  sync.Mutex
	syncing atomic.Bool
	stopped atomic.Bool
}

// NewStore creates a Store. remote may be nil for a local-only store.
func NewStore(cfg *Config, local LocalStore, remote RemoteStore, log logger.Logger) (*Store, error) {
	if local == nil {
		return nil, errNilLocal
	}

	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Store{
		local:   local,
		remote:  remote,
		cfg:     cfg,
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]string),
	}, nil
}

// OnSynced registers a listener for remote syncs that changed something.
func (s *Store) OnSynced(l SyncListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// ObserveSyncs registers f to be told the outcome of every remote sync that ran.
func (s *Store) ObserveSyncs(f func(changed bool, err error)) {
	s.mu.Lock()
	s.observer = f
	s.mu.Unlock()
}

// Get reads a local option.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	return s.local.Get(ctx, key)
}

// All returns every local option.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	return s.local.All(ctx)
}

// Local exposes the underlying cache for components that keep their own keys.
func (s *Store) Local() LocalStore {
	return s.local
}

// Set writes a local option and, when it is mirrored, queues a remote save.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if s.stopped.Load() {
		return errStoreClosed
	}

	if err := s.local.Set(ctx, key, value); err != nil {
		return err
	}

	remoteKey, remoteValue, ok := ToRemote(key, value)
	if !ok || s.remote == nil {
		return nil
	}

	s.mu.Lock()
	s.pending[remoteKey] = remoteValue
	s.mu.Unlock()

	s.scheduleSave()

	return nil
}

// Pending returns the remote options waiting to be saved.
func (s *Store) Pending() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.pending)
}

func (s *Store) scheduleSave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}

	s.saveTimer = time.AfterFunc(time.Duration(s.cfg.Debounce), func() {
		if err := s.save(s.ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to save settings")
		}
	})
}

// Flush saves pending options immediately.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.mu.Unlock()

	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()

		return nil
	}

	changes := s.pending
	s.pending = make(map[string]string)
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.CallTimeout))
	defer cancel()

	err := s.remote.Save(callCtx, changes)
	if err == nil {
		s.logger.Debug().Int("count", len(changes)).Msg("Settings saved")

		return nil
	}

	if errors.Is(err, ErrSaveRejected) {
		return err
	}

	// Newer values queued while the save ran take precedence.
	s.mu.Lock()
	for k, v := range changes {
		if _, newer := s.pending[k]; !newer {
			s.pending[k] = v
		}
	}
	s.mu.Unlock()

	return fmt.Errorf("failed to save settings: %w", err)
}

// SyncFromRemote copies remote options into the local cache. Remote values win.
// It returns whether anything changed; an overlapping call returns false at once.
func (s *Store) SyncFromRemote(ctx context.Context) (changed bool, err error) {
	if s.remote == nil || s.stopped.Load() {
		return false, nil
	}

	if !s.syncing.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("Settings sync already in progress")

		return false, nil
	}
	defer s.syncing.Store(false)

	defer func() {
		s.mu.Lock()
		observe := s.observer
		s.mu.Unlock()

		if observe != nil {
			observe(changed, err)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.CallTimeout))
	defer cancel()

	options, err := s.remote.Fetch(callCtx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch settings: %w", err)
	}

	if options == nil {
		return false, nil
	}

	updated := make(map[string]string)

	for remoteKey, remoteValue := range options {
		localKey, localValue, ok := ToLocal(remoteKey, remoteValue)
		if !ok {
			continue
		}

		current, found, err := s.local.Get(ctx, localKey)
		if err != nil {
			return false, err
		}

		if found && current == localValue {
			continue
		}

		// Written to the cache directly so nothing is queued back to the remote.
		if err := s.local.Set(ctx, localKey, localValue); err != nil {
			return false, err
		}

		updated[localKey] = localValue
	}

	if len(updated) == 0 {
		return false, nil
	}

	s.logger.Info().Int("count", len(updated)).Msg("Settings synced from remote")

	s.mu.Lock()
	listeners := append([]SyncListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(maps.Clone(updated))
	}

	return true, nil
}

func (s *Store) syncInBackground(reason string) {
	if _, err := s.SyncFromRemote(s.ctx); err != nil {
		s.logger.Warn().Err(err).Str("reason", reason).Msg("Failed to sync settings")
	}
}

// RequestSync starts a background sync, e.g. when a client becomes visible.
func (s *Store) RequestSync() {
	if s.stopped.Load() {
		return
	}

	go s.syncInBackground("visible")
}

// Start schedules the first sync after the start-up delay and the periodic
// resync. It does not block.
func (s *Store) Start(context.Context) error {
	if s.remote == nil {
		s.logger.Info().Msg("Settings store running without remote")

		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncTimer = time.AfterFunc(time.Duration(s.cfg.StartupDelay), func() {
		s.syncInBackground("startup")
	})

	if s.cfg.Schedule == "-" {
		return nil
	}

	s.cron = cron.New()

	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if err := s.save(s.ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to save pending settings")
		}

		s.syncInBackground("schedule")
	}); err != nil {
		return fmt.Errorf("invalid settings schedule %q: %w", s.cfg.Schedule, err)
	}

	s.cron.Start()

	return nil
}

// Stop cancels the schedules and flushes pending options. It is idempotent.
func (s *Store) Stop(ctx context.Context) error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	if s.syncTimer != nil {
		s.syncTimer.Stop()
	}

	c := s.cron
	s.mu.Unlock()

	s.cancel()

	if c != nil {
		<-c.Stop().Done()
	}

	return s.Flush(ctx)
}
