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

// Package widgetd assembles the widget daemon from its components.
package widgetd

import (
	"os"

	"github.com/proton2025/widgetd/pkg/dashboard"
	"github.com/proton2025/widgetd/pkg/kv"
	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/natsutil"
	"github.com/proton2025/widgetd/pkg/poller"
	"github.com/proton2025/widgetd/pkg/settings"
	"github.com/proton2025/widgetd/pkg/temperature"
	"github.com/proton2025/widgetd/pkg/ubus"
)

const (
	LoadSourceUbus = "ubus"
	LoadSourceHost = "host"
)

// DiscoveryConfig configures the add-service dialog sources.
type DiscoveryConfig struct {
	InitdTTL models.Duration `json:"initd_ttl,omitempty"`
	// MenuURL is a console page whose main menu lists installed service apps.
	MenuURL string `json:"menu_url,omitempty"`
}

// EventsConfig enables publishing service status changes to JetStream.
// It reuses the connection settings of the kv section.
type EventsConfig struct {
	Stream        string `json:"stream,omitempty"`
	SubjectPrefix string `json:"subject_prefix,omitempty"`
	// Source is the CloudEvents source; defaults to the host name.
	Source string `json:"source,omitempty"`
}

// Validate fills defaults.
func (e *EventsConfig) Validate() error {
	if e.Stream == "" {
		e.Stream = natsutil.DefaultStream
	}

	if e.SubjectPrefix == "" {
		e.SubjectPrefix = natsutil.DefaultSubjectPrefix
	}

	if e.Source == "" {
		if host, err := os.Hostname(); err == nil && host != "" {
			e.Source = host
		} else {
			e.Source = "widgetd"
		}
	}

	return nil
}

// LoadConfig selects where load averages come from.
type LoadConfig struct {
	Source string `json:"source,omitempty"`
}

// Config is the widgetd configuration file.
type Config struct {
	Logging     *logger.Config     `json:"logging,omitempty"`
	Language    string             `json:"language,omitempty"`
	Ubus        ubus.Config        `json:"ubus"`
	Poller      poller.Config      `json:"poller"`
	Discovery   DiscoveryConfig    `json:"discovery"`
	Settings    settings.Config    `json:"settings"`
	KV          *kv.Config         `json:"kv,omitempty"`
	Events      *EventsConfig      `json:"events,omitempty"`
	Temperature temperature.Config `json:"temperature"`
	Load        LoadConfig         `json:"load"`
	Dashboard   dashboard.Config   `json:"dashboard"`
}

// Validate implements config.Validator and fills defaults of every section.
func (c *Config) Validate() error {
	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	validators := []interface{ Validate() error }{
		&c.Ubus, &c.Poller, &c.Settings, &c.Temperature, &c.Dashboard,
	}

	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	if c.Settings.Remote == settings.RemoteKV && c.KV == nil {
		return errKVRequired
	}

	if c.KV != nil {
		if err := c.KV.Validate(); err != nil {
			return err
		}
	}

	if c.Events != nil {
		if c.KV == nil {
			return errEventsNeedKV
		}

		if err := c.Events.Validate(); err != nil {
			return err
		}
	}

	switch c.Load.Source {
	case "":
		c.Load.Source = LoadSourceUbus
	case LoadSourceUbus, LoadSourceHost:
	default:
		return errInvalidLoadSource
	}

	return nil
}
