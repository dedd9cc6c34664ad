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

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/proton2025/widgetd/pkg/i18n"
	"github.com/proton2025/widgetd/pkg/loadavg"
	"github.com/proton2025/widgetd/pkg/logger"
	"github.com/proton2025/widgetd/pkg/metrics"
)

const maxBodyBytes = 4 << 20

// Server is the dashboard HTTP server.
type Server struct {
	cfg    *Config
	router *mux.Router
	hub    *Hub
	srv    *http.Server
	logger logger.Logger

	services    Services
	discoverer  Discoverer
	temperature Temperature
	load        loadavg.Sampler
	settings    Settings
	catalog     *i18n.Catalog
	metrics     http.Handler
	recorder    metrics.WidgetRecorder

	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

func WithServices(p Services) Option {
	return func(s *Server) { s.services = p }
}

func WithDiscoverer(d Discoverer) Option {
	return func(s *Server) { s.discoverer = d }
}

func WithTemperature(t Temperature) Option {
	return func(s *Server) { s.temperature = t }
}

func WithLoadSampler(l loadavg.Sampler) Option {
	return func(s *Server) { s.load = l }
}

func WithSettings(st Settings) Option {
	return func(s *Server) { s.settings = st }
}

// WithCatalog sets the translations; the embedded default is used otherwise.
func WithCatalog(c *i18n.Catalog) Option {
	return func(s *Server) { s.catalog = c }
}

// WithMetrics serves h on /metrics and records widget data into r.
func WithMetrics(h http.Handler, r metrics.WidgetRecorder) Option {
	return func(s *Server) {
		s.metrics = h
		s.recorder = r
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer builds the router. Routes of components that were not given are not registered.
func NewServer(cfg *Config, hub *Hub, opts ...Option) (*Server, error) {
	if hub == nil {
		return nil, errNilHub
	}

	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		hub:    hub,
	}

	for _, o := range opts {
		o(s)
	}

	if s.logger == nil {
		s.logger = logger.NewTestLogger()
	}

	if s.catalog == nil {
		s.catalog = i18n.Default()
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	hub.OnVisibility(s.setVisible)

	if s.settings != nil {
		s.settings.OnSynced(func(changed map[string]string) {
			hub.Broadcast(EventSettingsSynced, changed)
		})
	}

	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout),
		WriteTimeout: time.Duration(cfg.WriteTimeout),
		IdleTimeout:  time.Duration(cfg.IdleTimeout),
	}

	return s, nil
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware, s.corsMiddleware)

	s.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/i18n", s.handleI18n).Methods(http.MethodGet)
	api.HandleFunc("/page", s.handlePage).Methods(http.MethodGet)

	if s.services != nil {
		api.HandleFunc("/services", s.getServices).Methods(http.MethodGet)
		api.HandleFunc("/services", s.addService).Methods(http.MethodPost)
		api.HandleFunc("/services/check", s.checkServices).Methods(http.MethodPost)
		api.HandleFunc("/services/log", s.getServiceLog).Methods(http.MethodGet)

		if s.discoverer != nil {
			api.HandleFunc("/services/available", s.getAvailable).Methods(http.MethodGet)
			api.HandleFunc("/services/menu", s.getMenu).Methods(http.MethodGet)
			api.HandleFunc("/services/menu", s.setMenu).Methods(http.MethodPost)
		}

		api.HandleFunc("/services/{name}", s.removeService).Methods(http.MethodDelete)
	}

	if s.temperature != nil {
		api.HandleFunc("/temperature", s.getTemperature).Methods(http.MethodGet)
	}

	if s.load != nil {
		api.HandleFunc("/load", s.getLoad).Methods(http.MethodGet)
	}

	if s.settings != nil {
		api.HandleFunc("/settings", s.getSettings).Methods(http.MethodGet)
		api.HandleFunc("/settings", s.putSettings).Methods(http.MethodPut)
		api.HandleFunc("/settings/sync", s.syncSettings).Methods(http.MethodPost)
	}
}

// Start serves until Stop is called.
func (s *Server) Start(context.Context) error {
	s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("Dashboard API listening")

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Serve serves on an existing listener until Stop is called.
func (s *Server) Serve(l net.Listener) error {
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop disconnects WebSocket clients and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Close()

	return s.srv.Shutdown(ctx)
}

func (s *Server) setVisible(visible bool) {
	s.logger.Debug().Bool("visible", visible).Msg("Widget visibility changed")

	if s.services != nil {
		s.services.SetVisible(visible)
	}

	if s.temperature != nil {
		s.temperature.SetVisible(visible)
	}

	if visible && s.settings != nil {
		s.settings.RequestSync()
	}
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.originAllowed(origin) {
		return true
	}

	return sameHost(r, origin)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept-Language")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("Handled request")
	})
}

// translator picks the language from ?lang= or Accept-Language.
func (s *Server) translator(r *http.Request) (string, func(string) string) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}

	lang = s.catalog.Match(lang)

	return lang, s.catalog.Func(lang)
}

func sameHost(r *http.Request, origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return strings.EqualFold(u.Host, r.Host)
}

type errorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, errorResponse{Message: message, Status: status})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	return json.NewDecoder(r.Body).Decode(v)
}
