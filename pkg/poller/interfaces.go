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

package poller

//go:generate mockgen -destination=mock_poller.go -package=poller github.com/proton2025/widgetd/pkg/poller Backend,WatchStore

import (
	"context"
	"time"

	"github.com/proton2025/widgetd/pkg/models"
)

// Capability is a bit set of the backend mechanisms usable for a check cycle.
type Capability uint8

const (
	// CapBulkList is a single call returning the state of every service.
	CapBulkList Capability = 1 << iota
	// CapServiceQuery is the per-name variant of the bulk list.
	CapServiceQuery
	// CapExec runs an executable and reports its exit code.
	CapExec
)

// Has reports whether every bit of o is set in c.
func (c Capability) Has(o Capability) bool {
	return c&o == o
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}

	var s string

	for _, p := range []struct {
		bit  Capability
		name string
	}{{CapBulkList, "bulk"}, {CapServiceQuery, "query"}, {CapExec, "exec"}} {
		if c.Has(p.bit) {
			if s != "" {
				s += "|"
			}

			s += p.name
		}
	}

	return s
}

// ExecResult is the outcome of Backend.Exec. Exited is false when the backend
// ran the call but could not report an exit code.
type ExecResult struct {
	Code   int
	Exited bool
	Stdout string
}

// Backend is the router admin backend the poller checks services through.
type Backend interface {
	// Capabilities reports which mechanisms are currently usable.
	Capabilities(ctx context.Context) Capability
	// ListServices returns the state of every known service.
	ListServices(ctx context.Context) (map[string]models.ServiceState, error)
	// QueryService returns the state of one service; found is false when the
	// backend does not know the name.
	QueryService(ctx context.Context, name string) (state models.ServiceState, found bool, err error)
	// Exec runs path with args.
	Exec(ctx context.Context, path string, args []string) (ExecResult, error)
}

// WatchStore persists the watch list.
type WatchStore interface {
	LoadWatchList(ctx context.Context) (names []string, found bool, err error)
	SaveWatchList(ctx context.Context, names []string) error
}

// Recorder receives poller instrumentation.
type Recorder interface {
	ObserveCycle(mode Mode, elapsed time.Duration)
	StatusChanged(status models.Status)
	RetryScheduled(attempt int)
}

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	Stop() bool
}
