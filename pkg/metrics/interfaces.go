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

// Package metrics exposes widgetd instrumentation in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/proton2025/widgetd/pkg/loadavg"
	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/poller"
	"github.com/proton2025/widgetd/pkg/temperature"
)

// PollerRecorder receives service poller instrumentation.
type PollerRecorder interface {
	ObserveCycle(mode poller.Mode, elapsed time.Duration)
	StatusChanged(status models.Status)
	RetryScheduled(attempt int)
}

// WidgetRecorder receives the data produced by the widget monitors.
type WidgetRecorder interface {
	ObserveTemperature(snap temperature.Snapshot)
	ObserveLoad(report loadavg.Report)
	ObserveSettingsSync(changed bool, err error)
}

// Collector is everything the daemon records plus the scrape handler.
type Collector interface {
	PollerRecorder
	WidgetRecorder
	Handler() http.Handler
}
