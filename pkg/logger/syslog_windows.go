package logger

import (
	"errors"
	"io"
)

var errSyslogUnsupported = errors.New("syslog output is not supported on windows")

func syslogWriter(string) (io.Writer, error) {
	return nil, errSyslogUnsupported
}
