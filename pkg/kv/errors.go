package kv

import (
	"errors"
)

var (
	errNatsURLRequired   = errors.New("nats_url is required")
	errBucketRequired    = errors.New("bucket is required")
	errInvalidKeyPattern = errors.New("invalid key pattern")
)
