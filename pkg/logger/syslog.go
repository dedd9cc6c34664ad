//go:build !windows

package logger

import (
	"fmt"
	"io"
	"log/syslog"

	"github.com/rs/zerolog"
)

func syslogWriter(tag string) (io.Writer, error) {
	if tag == "" {
		tag = defaultSyslogTag
	}

	w, err := syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to syslog: %w", err)
	}

	return zerolog.SyslogLevelWriter(w), nil
}
