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

// Package dashboard serves the JSON API and WebSocket events consumed by the
// console's widget presentation layer.
package dashboard

import (
	"context"
	"time"

	"github.com/proton2025/widgetd/pkg/catalog"
	"github.com/proton2025/widgetd/pkg/poller"
	"github.com/proton2025/widgetd/pkg/settings"
	"github.com/proton2025/widgetd/pkg/temperature"
)

// Services is the service status poller as seen by the API.
type Services interface {
	Watched() []string
	AddWatched(name string) bool
	RemoveWatched(name string) bool
	CheckAll(ctx context.Context)
	Snapshot() []poller.ServiceStatus
	Activity() []poller.ActivityLine
	Mode() poller.Mode
	LastCheck() time.Time
	SetVisible(visible bool)
	SetDebug(enabled bool)
	Stopped() bool
}

// Discoverer lists the services that can be added to the watch list.
type Discoverer interface {
	Available(ctx context.Context) []catalog.Entry
	SetMenu(slugs []string)
	Menu() []string
}

// Temperature is the temperature widget data source.
type Temperature interface {
	Snapshot() temperature.Snapshot
	SetVisible(visible bool)
}

// Settings is the two-tier settings store.
type Settings interface {
	Get(ctx context.Context, key string) (string, bool, error)
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	SyncFromRemote(ctx context.Context) (bool, error)
	RequestSync()
	OnSynced(l settings.SyncListener)
}
