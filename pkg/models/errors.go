package models

import "errors"

var (
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidServiceName = errors.New("invalid service name")
)
