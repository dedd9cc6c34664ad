package widgetd

import "errors"

var (
	errKVRequired        = errors.New("settings.remote is kv but no kv section is configured")
	errEventsNeedKV      = errors.New("events requires the kv section for its NATS connection")
	errInvalidLoadSource = errors.New("load.source must be ubus or host")
)
