/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrUnknownOutput is returned for an unsupported Config.Output.
var ErrUnknownOutput = errors.New("unknown log output")

var globalLogger zerolog.Logger

func init() {
	globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.TimeFieldFormat = time.RFC3339
}

// Init replaces the global logger. A nil config means DefaultConfig().
func Init(config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}

	zl, err := build(config)
	if err != nil {
		return err
	}

	globalLogger = zl
	log.Logger = globalLogger

	return nil
}

// build turns a Config into a zerolog logger without touching global state.
func build(config *Config) (zerolog.Logger, error) {
	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return zerolog.Nop(), err
		}
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	output, err := openOutput(config)
	if err != nil {
		return zerolog.Nop(), err
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func openOutput(config *Config) (io.Writer, error) {
	var output io.Writer

	switch config.Output {
	case "", OutputStdout:
		output = os.Stdout
	case OutputStderr:
		output = os.Stderr
	case OutputSyslog:
		// logd on the router keeps the JSON line; severity comes from the event level
		return syslogWriter(config.SyslogTag)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, config.Output)
	}

	if config.Format == FormatConsole {
		return zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen, NoColor: true}, nil
	}

	return output, nil
}

// NewFromConfig builds an injectable Logger from config.
func NewFromConfig(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	zl, err := build(config)
	if err != nil {
		return nil, err
	}

	return New(zl), nil
}

func SetLevel(level zerolog.Level) {
	globalLogger = globalLogger.Level(level)
	log.Logger = globalLogger
}

func SetDebug(debug bool) {
	if debug {
		SetLevel(zerolog.DebugLevel)
	} else {
		SetLevel(zerolog.InfoLevel)
	}
}

func GetLogger() zerolog.Logger {
	return globalLogger
}

func Debug() *zerolog.Event {
	return globalLogger.Debug()
}

func Info() *zerolog.Event {
	return globalLogger.Info()
}

func Warn() *zerolog.Event {
	return globalLogger.Warn()
}

func Error() *zerolog.Event {
	return globalLogger.Error()
}

func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}
