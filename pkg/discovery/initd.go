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

package discovery

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
)

const (
	// DefaultInitdTTL is how long a non-empty init.d listing is reused.
	DefaultInitdTTL = 5 * time.Minute

	initdDir = "/etc/init.d"
)

// InitdCache remembers the installed init scripts. Empty results are never
// cached so the next call asks the router again.
type InitdCache struct {
	source InitdSource
	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger

	mu    sync.RWMutex
	names []string
	at    time.Time

	group singleflight.Group
}

// NewInitdCache creates a cache over source. A ttl <= 0 uses DefaultInitdTTL.
func NewInitdCache(source InitdSource, ttl time.Duration, log logger.Logger) (*InitdCache, error) {
	if source == nil {
		return nil, errNilSource
	}

	if ttl <= 0 {
		ttl = DefaultInitdTTL
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &InitdCache{source: source, ttl: ttl, now: time.Now, logger: log}, nil
}

func (c *InitdCache) cached() ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.names) == 0 || c.now().Sub(c.at) >= c.ttl {
		return nil, false
	}

	return append([]string(nil), c.names...), true
}

// Names returns the installed init script names, sorted. Failures of both
// sources yield an empty list.
func (c *InitdCache) Names(ctx context.Context) []string {
	if names, ok := c.cached(); ok {
		c.logger.Debug().Int("count", len(names)).Msg("Using cached init.d list")

		return names
	}

	v, _, _ := c.group.Do("initd", func() (interface{}, error) {
		names := c.discover(ctx)
		if len(names) == 0 {
			c.logger.Debug().Msg("No services discovered, not caching")

			return names, nil
		}

		c.mu.Lock()
		c.names = names
		c.at = c.now()
		c.mu.Unlock()

		return names, nil
	})

	names, _ := v.([]string)

	return append([]string(nil), names...)
}

// Invalidate drops the cached listing.
func (c *InitdCache) Invalidate() {
	c.mu.Lock()
	c.names = nil
	c.at = time.Time{}
	c.mu.Unlock()
}

func (c *InitdCache) discover(ctx context.Context) []string {
	all, err := c.source.RCList(ctx, "")
	if err != nil {
		c.logger.Debug().Err(err).Msg("rc list failed")
	}

	if len(all) > 0 {
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}

		names = sortedValid(names)
		c.logger.Debug().Int("count", len(names)).Msg("Discovered services via rc list")

		return names
	}

	files, err := c.source.FileList(ctx, initdDir)
	if err != nil {
		c.logger.Debug().Err(err).Msg("init.d file list failed")

		return nil
	}

	names := make([]string, 0, len(files))

	for _, f := range files {
		if f.IsRegular() && !f.IsHidden() {
			names = append(names, f.Name)
		}
	}

	names = sortedValid(names)
	c.logger.Debug().Int("count", len(names)).Msg("Discovered init.d services via file list")

	return names
}

func sortedValid(names []string) []string {
	out := models.NormalizeServiceList(names)
	sort.Strings(out)

	return out
}
