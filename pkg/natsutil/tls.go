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

// Package natsutil holds NATS connection helpers and the JetStream event publisher.
package natsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/proton2025/widgetd/pkg/logger"
)

var (
	// ErrTLSIncomplete is returned when only part of a client key pair is configured.
	ErrTLSIncomplete = errors.New("tls cert_file and key_file must be set together")
	// ErrCAParsingFailed is returned when CA certificate cannot be parsed
	ErrCAParsingFailed = errors.New("failed to parse CA certificate")
)

// TLSFiles points at the PEM files used to reach a TLS-enabled NATS server.
type TLSFiles struct {
	CAFile     string `json:"ca_file,omitempty"`
	CertFile   string `json:"cert_file,omitempty"`
	KeyFile    string `json:"key_file,omitempty"`
	ServerName string `json:"server_name,omitempty"`
}

// TLSConfig builds a tls.Config from files. A client certificate is optional.
func TLSConfig(files *TLSFiles) (*tls.Config, error) {
	if (files.CertFile == "") != (files.KeyFile == "") {
		return nil, ErrTLSIncomplete
	}

	conf := &tls.Config{
		ServerName: files.ServerName,
		MinVersion: tls.VersionTLS12,
	}

	if files.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		conf.Certificates = []tls.Certificate{cert}
	}

	if files.CAFile != "" {
		caCert, err := os.ReadFile(files.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, ErrCAParsingFailed
		}

		conf.RootCAs = caPool
	}

	return conf, nil
}

// ConnectOptions describes a NATS connection.
type ConnectOptions struct {
	Name      string
	Timeout   time.Duration
	CredsFile string
	TLS       *TLSFiles
}

// Options turns o into nats options with logging connection handlers.
func Options(o *ConnectOptions, log logger.Logger) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.Name(o.Name),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Warn().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if o.Timeout > 0 {
		opts = append(opts, nats.Timeout(o.Timeout))
	}

	if o.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(o.CredsFile))
	}

	if o.TLS != nil {
		tlsConf, err := TLSConfig(o.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	return opts, nil
}

// Connect dials url with the options built from o.
func Connect(url string, o *ConnectOptions, log logger.Logger) (*nats.Conn, error) {
	opts, err := Options(o, log)
	if err != nil {
		return nil, err
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}
