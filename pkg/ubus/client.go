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

// Package ubus is a client for the OpenWrt ubus JSON-RPC endpoint exposed by rpcd/uhttpd.
package ubus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/uuid"

	"github.com/proton2025/widgetd/pkg/logger"
)

// AnonymousSession is the session id rpcd accepts for unauthenticated calls.
const AnonymousSession = "00000000000000000000000000000000"

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Client performs ubus calls over HTTP. Transport failures are retried with
// backoff and guarded by a circuit breaker; ubus status codes are not retried.
type Client struct {
	cfg      *Config
	http     *http.Client
	executor failsafe.Executor[*rpcResponse]
	breaker  circuitbreaker.CircuitBreaker[*rpcResponse]
	logger   logger.Logger

	mu      sync.Mutex
	session string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient builds a Client for cfg.
func NewClient(cfg *Config, log logger.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.Timeout)},
		logger: log,
	}

	for _, opt := range opts {
		opt(c)
	}

	retry := retrypolicy.NewBuilder[*rpcResponse]().
		HandleIf(func(_ *rpcResponse, err error) bool {
			return isTransportError(err)
		}).
		WithBackoff(time.Duration(cfg.RetryBaseDelay), defaultRetryMaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		ReturnLastFailure().
		Build()

	c.breaker = circuitbreaker.NewBuilder[*rpcResponse]().
		HandleIf(func(_ *rpcResponse, err error) bool {
			return isTransportError(err)
		}).
		WithFailureThresholdRatio(defaultBreakerMinReqs/2, defaultBreakerMinReqs).
		WithDelay(time.Duration(cfg.BreakerDelay)).
		WithSuccessThreshold(1).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			log.Warn().
				Str("from_state", stateName(event.OldState)).
				Str("to_state", stateName(event.NewState)).
				Msg("ubus circuit breaker state change")
		}).
		Build()

	// retry wraps the breaker so an open circuit ends the attempt immediately
	c.executor = failsafe.With[*rpcResponse](retry, c.breaker)

	return c, nil
}

func stateName(state circuitbreaker.State) string {
	switch state {
	case circuitbreaker.ClosedState:
		return "closed"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	case circuitbreaker.OpenState:
		return "open"
	default:
		return "unknown"
	}
}

// BreakerOpen reports whether the circuit breaker currently rejects calls.
func (c *Client) BreakerOpen() bool {
	return c.breaker.IsOpen()
}

// isTransportError reports whether err came from the HTTP layer rather than ubus itself.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}

	var rpcErr *RPCError

	var statusErr *StatusError

	if errors.As(err, &rpcErr) || errors.As(err, &statusErr) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, errMalformedResult) {
		return false
	}

	return true
}

func (c *Client) do(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	resp, err := c.executor.WithContext(ctx).Get(func() (*rpcResponse, error) {
		return c.post(ctx, method, params)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, fmt.Errorf("ubus %s: %w", method, err)
		}

		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

func (c *Client) post(ctx context.Context, method string, params []interface{}) (*rpcResponse, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ubus request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create ubus request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ubus request failed: %w", err)
	}

	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)

		return nil, fmt.Errorf("%w: %d", errHTTPStatus, res.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedResult, err)
	}

	return &out, nil
}

func (c *Client) sessionID(ctx context.Context) (string, error) {
	if c.cfg.Username == "" {
		return AnonymousSession, nil
	}

	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session != "" {
		return session, nil
	}

	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) (string, error) {
	var out struct {
		Session string `json:"ubus_rpc_session"`
	}

	args := map[string]string{"username": c.cfg.Username, "password": c.cfg.Password}

	if err := c.callWithSession(ctx, AnonymousSession, "session", "login", args, &out); err != nil {
		return "", fmt.Errorf("%w: %w", errLoginFailed, err)
	}

	if out.Session == "" {
		return "", errLoginFailed
	}

	c.mu.Lock()
	c.session = out.Session
	c.mu.Unlock()

	c.logger.Debug().Str("user", c.cfg.Username).Msg("Obtained ubus session")

	return out.Session, nil
}

func (c *Client) resetSession(stale string) {
	c.mu.Lock()
	if c.session == stale {
		c.session = ""
	}
	c.mu.Unlock()
}

// Call invokes object.method with args and decodes the returned data into out (if non-nil).
// An expired session is renewed once.
func (c *Client) Call(ctx context.Context, object, method string, args, out interface{}) error {
	session, err := c.sessionID(ctx)
	if err != nil {
		return err
	}

	err = c.callWithSession(ctx, session, object, method, args, out)
	if !errors.Is(err, ErrAccessDenied) || session == AnonymousSession {
		return err
	}

	c.resetSession(session)

	if session, err = c.login(ctx); err != nil {
		return err
	}

	return c.callWithSession(ctx, session, object, method, args, out)
}

func (c *Client) callWithSession(ctx context.Context, session, object, method string, args, out interface{}) error {
	if args == nil {
		args = struct{}{}
	}

	raw, err := c.do(ctx, "call", []interface{}{session, object, method, args})
	if err != nil {
		return err
	}

	var result []json.RawMessage
	if err := json.Unmarshal(raw, &result); err != nil || len(result) == 0 {
		return fmt.Errorf("%w for %s.%s", errMalformedResult, object, method)
	}

	var code int
	if err := json.Unmarshal(result[0], &code); err != nil {
		return fmt.Errorf("%w for %s.%s: %w", errMalformedResult, object, method, err)
	}

	if code != StatusOK {
		return &StatusError{Object: object, Method: method, Code: code}
	}

	if out == nil || len(result) < 2 {
		return nil
	}

	if err := json.Unmarshal(result[1], out); err != nil {
		return fmt.Errorf("%w for %s.%s: %w", errMalformedResult, object, method, err)
	}

	return nil
}

// Signature maps method names of an object to their argument types.
type Signature map[string]map[string]interface{}

// List returns the published objects matching the given names ("*" wildcards allowed)
// with their method signatures.
func (c *Client) List(ctx context.Context, objects ...string) (map[string]Signature, error) {
	if len(objects) == 0 {
		objects = []string{"*"}
	}

	params := make([]interface{}, len(objects))
	for i, o := range objects {
		params[i] = o
	}

	raw, err := c.do(ctx, "list", params)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Signature)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w for list: %w", errMalformedResult, err)
	}

	return out, nil
}

// HasMethod reports whether object exposes method.
func (c *Client) HasMethod(ctx context.Context, object, method string) (bool, error) {
	objects, err := c.List(ctx, object)
	if err != nil {
		return false, err
	}

	_, ok := objects[object][method]

	return ok, nil
}
