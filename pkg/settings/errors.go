package settings

import "errors"

var (
	// ErrSaveRejected is returned when the remote store refused the options.
	// Rejected options are not retried.
	ErrSaveRejected = errors.New("remote store rejected settings")

	errNilLocal      = errors.New("local store is required")
	errStoreClosed   = errors.New("settings store closed")
	errPathRequired  = errors.New("database path is required")
	errInvalidRemote = errors.New("remote must be one of ubus, kv, none")
)
