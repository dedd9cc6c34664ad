package poller

import (
	"errors"
)

var (
	// ErrStopped is returned by Start once the poller has been stopped.
	ErrStopped = errors.New("poller stopped")
	// ErrBackendUnavailable means neither the bulk list nor command execution is usable.
	ErrBackendUnavailable = errors.New("backend unavailable")

	errNilBackend   = errors.New("backend is required")
	errNilStore     = errors.New("watch store is required")
	errInvalidDelay = errors.New("retry delays must be positive")
)
