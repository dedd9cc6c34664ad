package ubus

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied     = errors.New("ubus access denied")
	ErrNotFound         = errors.New("ubus object or method not found")
	ErrPermissionDenied = errors.New("ubus permission denied")
	ErrNoData           = errors.New("ubus call returned no data")

	errHTTPStatus      = errors.New("unexpected HTTP status")
	errMalformedResult = errors.New("malformed ubus result")
	errLoginFailed     = errors.New("ubus session login failed")
)

// ubus status codes returned as the first element of a call result.
const (
	StatusOK               = 0
	StatusInvalidCommand   = 1
	StatusInvalidArgument  = 2
	StatusMethodNotFound   = 3
	StatusNotFound         = 4
	StatusNoData           = 5
	StatusPermissionDenied = 6
	StatusTimeout          = 7
	StatusNotSupported     = 8
	StatusUnknownError     = 9
	StatusConnectionFailed = 10
)

// JSON-RPC error code rpcd uses for an expired or unknown session.
const rpcAccessDenied = -32002

// RPCError is a JSON-RPC level error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("ubus rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Is(target error) bool {
	return target == ErrAccessDenied && e.Code == rpcAccessDenied
}

// StatusError is a non-zero ubus status for a call.
type StatusError struct {
	Object string
	Method string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ubus %s.%s failed with status %d", e.Object, e.Method, e.Code)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == StatusNotFound || e.Code == StatusMethodNotFound
	case ErrPermissionDenied:
		return e.Code == StatusPermissionDenied
	case ErrNoData:
		return e.Code == StatusNoData
	}

	return false
}
