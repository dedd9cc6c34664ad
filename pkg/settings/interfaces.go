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

//go:generate mockgen -destination=mock_settings.go -package=settings github.com/proton2025/widgetd/pkg/settings RemoteStore,Caller

// Package settings keeps the widget settings in a fast local cache and mirrors
// them to a remote persisted store.
package settings

import "context"

// LocalStore is the local cache. It is authoritative until a remote fetch
// proves otherwise.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	All(ctx context.Context) (map[string]string, error)
	Close() error
}

// RemoteStore persists options under their remote names.
type RemoteStore interface {
	// Fetch returns every remote option. A nil map means the store has nothing.
	Fetch(ctx context.Context) (map[string]string, error)
	// Save writes the given options.
	Save(ctx context.Context, options map[string]string) error
}

// Caller performs a ubus call. *ubus.Client implements it.
type Caller interface {
	Call(ctx context.Context, object, method string, args, out interface{}) error
}
