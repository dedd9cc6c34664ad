package discovery

import "errors"

var (
	errNilSource       = errors.New("init.d source is required")
	errMenuStatus      = errors.New("unexpected menu response status")
	errMenuURLRequired = errors.New("menu url is required")
)
