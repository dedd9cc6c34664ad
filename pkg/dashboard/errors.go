package dashboard

import "errors"

var (
	errNilHub        = errors.New("dashboard: hub is required")
	errNameRequired  = errors.New("service name is required")
	errInvalidName   = errors.New("invalid service name")
	errWatchListKey  = errors.New("the watch list is changed through /api/services")
	errEmptySettings = errors.New("no settings given")
)
