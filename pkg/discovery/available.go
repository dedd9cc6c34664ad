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
	"fmt"
	"sync"

	"github.com/proton2025/widgetd/pkg/catalog"
	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
)

// Discoverer merges the catalog, menu entries and installed init scripts into
// the list of services a user can pick from.
type Discoverer struct {
	initd     *InitdCache
	logger    logger.Logger
	note      func(string)
	translate func(string) string

	mu   sync.RWMutex
	menu []string
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithNotes sends progress lines (already translated) to f.
func WithNotes(f func(string)) Option {
	return func(d *Discoverer) {
		if f != nil {
			d.note = f
		}
	}
}

// WithTranslator sets the function used to translate progress lines.
func WithTranslator(t func(string) string) Option {
	return func(d *Discoverer) {
		if t != nil {
			d.translate = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDiscoverer creates a Discoverer reading installed services from initd.
func NewDiscoverer(initd *InitdCache, opts ...Option) (*Discoverer, error) {
	if initd == nil {
		return nil, errNilSource
	}

	d := &Discoverer{
		initd:     initd,
		logger:    logger.NewTestLogger(),
		note:      func(string) {},
		translate: func(s string) string { return s },
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// SetMenu replaces the service slugs found in the console menu.
func (d *Discoverer) SetMenu(slugs []string) {
	normalized := models.NormalizeServiceList(slugs)

	d.mu.Lock()
	d.menu = normalized
	d.mu.Unlock()

	d.logger.Debug().Int("count", len(normalized)).Msg("Menu services updated")
}

// Menu returns the current menu slugs.
func (d *Discoverer) Menu() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]string(nil), d.menu...)
}

// Available returns known services first, then menu entries, then any other
// installed init script. Each entry is flagged installed when init.d has it.
func (d *Discoverer) Available(ctx context.Context) []catalog.Entry {
	d.note(d.translate("Loading services..."))

	initd := d.initd.Names(ctx)

	installed := make(map[string]bool, len(initd))
	for _, name := range initd {
		installed[name] = true
	}

	if len(installed) == 0 {
		d.note(d.translate("Warning: init.d list empty"))
	} else {
		d.note(fmt.Sprintf("%s: %d", d.translate("init.d services"), len(installed)))
	}

	var (
		out  []catalog.Entry
		seen = make(map[string]struct{})
	)

	add := func(name string) {
		if _, dup := seen[name]; dup || !models.IsValidServiceName(name) {
			return
		}

		seen[name] = struct{}{}

		out = append(out, catalog.Entry{Name: name, Installed: installed[name]})
	}

	for _, name := range catalog.KnownNames() {
		add(name)
	}

	for _, name := range d.Menu() {
		add(name)
	}

	for _, name := range initd {
		add(name)
	}

	d.note(fmt.Sprintf("%s: %d", d.translate("Services loaded"), len(out)))

	return out
}
