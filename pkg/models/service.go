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

package models

import (
	"fmt"
	"regexp"
)

const (
	// MaxServiceNameLength bounds init.d/rc service names.
	MaxServiceNameLength = 64
)

var (
	// validServiceName only allows names that cannot be turned into a path.
	validServiceName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	// DefaultWatchList is used when nothing has been persisted yet.
	DefaultWatchList = []string{"dnsmasq", "dropbear"}
)

// Status is the last known run state of a watched service.
type Status string

const (
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
	StatusUnknown  Status = "unknown"
	StatusChecking Status = "checking"
)

// ServiceState is one entry of an rc list response.
type ServiceState struct {
	Running bool `json:"running"`
	Enabled bool `json:"enabled"`
}

// IsValidServiceName reports whether name matches [A-Za-z0-9_-]{1,64}.
func IsValidServiceName(name string) bool {
	if len(name) < 1 || len(name) > MaxServiceNameLength {
		return false
	}

	return validServiceName.MatchString(name)
}

// ValidateServiceName is IsValidServiceName with an error explaining the rejection.
func ValidateServiceName(name string) error {
	if len(name) > MaxServiceNameLength {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidServiceName, MaxServiceNameLength)
	}

	if !IsValidServiceName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidServiceName, name)
	}

	return nil
}

// NormalizeServiceList drops invalid and duplicate names, keeping first-seen order.
func NormalizeServiceList(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, name := range names {
		if !IsValidServiceName(name) {
			continue
		}

		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}

		out = append(out, name)
	}

	return out
}
