package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/proton2025/widgetd/pkg/catalog"
	"github.com/proton2025/widgetd/pkg/discovery"
	"github.com/proton2025/widgetd/pkg/loadavg"
	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/pages"
	"github.com/proton2025/widgetd/pkg/poller"
	"github.com/proton2025/widgetd/pkg/settings"
	"github.com/proton2025/widgetd/pkg/temperature"
)

const sampleTimeout = 5 * time.Second

type serviceView struct {
	catalog.Info
	Status models.Status `json:"status"`
}

type servicesResponse struct {
	Services  []serviceView `json:"services"`
	Mode      poller.Mode   `json:"mode"`
	LastCheck *time.Time    `json:"last_check,omitempty"`
}

func (s *Server) servicesView(t func(string) string) servicesResponse {
	statuses := make(map[string]models.Status)
	for _, st := range s.services.Snapshot() {
		statuses[st.Name] = st.Status
	}

	watched := s.services.Watched()
	resp := servicesResponse{Services: make([]serviceView, 0, len(watched)), Mode: s.services.Mode()}

	for _, name := range watched {
		status, ok := statuses[name]
		if !ok {
			status = models.StatusChecking
		}

		info := catalog.Lookup(name, t)
		info.Watched = true

		resp.Services = append(resp.Services, serviceView{Info: info, Status: status})
	}

	if last := s.services.LastCheck(); !last.IsZero() {
		resp.LastCheck = &last
	}

	return resp
}

func (s *Server) getServices(w http.ResponseWriter, r *http.Request) {
	_, t := s.translator(r)

	writeJSON(w, http.StatusOK, s.servicesView(t))
}

type addServiceRequest struct {
	Name string `json:"name"`
}

func (s *Server) addService(w http.ResponseWriter, r *http.Request) {
	var req addServiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)

		return
	}

	req.Name = strings.TrimSpace(req.Name)

	switch {
	case req.Name == "":
		writeError(w, errNameRequired.Error(), http.StatusBadRequest)

		return
	case !models.IsValidServiceName(req.Name):
		writeError(w, errInvalidName.Error(), http.StatusBadRequest)

		return
	}

	added := s.services.AddWatched(req.Name)

	_, t := s.translator(r)

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}

	writeJSON(w, status, s.servicesView(t))
}

func (s *Server) removeService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if !s.services.RemoveWatched(name) {
		writeError(w, "service is not watched", http.StatusNotFound)

		return
	}

	_, t := s.translator(r)

	writeJSON(w, http.StatusOK, s.servicesView(t))
}

func (s *Server) checkServices(w http.ResponseWriter, r *http.Request) {
	s.services.CheckAll(r.Context())

	_, t := s.translator(r)

	writeJSON(w, http.StatusOK, s.servicesView(t))
}

type logResponse struct {
	Enabled bool                  `json:"enabled"`
	Lines   []poller.ActivityLine `json:"lines"`
}

func (s *Server) getServiceLog(w http.ResponseWriter, r *http.Request) {
	resp := logResponse{Enabled: s.settingEnabled(r.Context(), settings.KeyServicesLog), Lines: s.services.Activity()}
	if resp.Lines == nil {
		resp.Lines = []poller.ActivityLine{}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getAvailable(w http.ResponseWriter, r *http.Request) {
	_, t := s.translator(r)

	available := s.discoverer.Available(r.Context())
	groups := catalog.Browse(available, s.services.Watched(), r.URL.Query().Get("q"), t)

	if groups == nil {
		groups = []catalog.Group{}
	}

	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) getMenu(w http.ResponseWriter, _ *http.Request) {
	menu := s.discoverer.Menu()
	if menu == nil {
		menu = []string{}
	}

	writeJSON(w, http.StatusOK, menu)
}

// setMenu accepts the console page HTML and keeps the service slugs of its menu.
func (s *Server) setMenu(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	slugs, err := discovery.MenuSlugs(r.Body)
	if err != nil {
		writeError(w, "failed to parse menu", http.StatusBadRequest)

		return
	}

	s.discoverer.SetMenu(slugs)

	writeJSON(w, http.StatusOK, s.discoverer.Menu())
}

func (s *Server) getTemperature(w http.ResponseWriter, _ *http.Request) {
	snap := s.temperature.Snapshot()
	if snap.Sensors == nil {
		snap.Sensors = []temperature.Reading{}
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) getLoad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), sampleTimeout)
	defer cancel()

	loads, cores, err := s.load.Sample(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to sample load average")
		writeError(w, "load average unavailable", http.StatusServiceUnavailable)

		return
	}

	_, t := s.translator(r)
	report := loadavg.Build(loads, cores, t)

	if s.recorder != nil {
		s.recorder.ObserveLoad(report)
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.settings.All(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read settings")
		writeError(w, "failed to read settings", http.StatusInternalServerError)

		return
	}

	delete(all, settings.KeyWatchList)

	writeJSON(w, http.StatusOK, all)
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := decodeJSON(w, r, &values); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if len(values) == 0 {
		writeError(w, errEmptySettings.Error(), http.StatusBadRequest)

		return
	}

	if _, ok := values[settings.KeyWatchList]; ok {
		writeError(w, errWatchListKey.Error(), http.StatusBadRequest)

		return
	}

	for key, value := range values {
		if err := s.settings.Set(r.Context(), key, value); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Failed to store setting")
			writeError(w, "failed to store "+key, http.StatusInternalServerError)

			return
		}
	}

	if v, ok := values[settings.KeyServicesDebug]; ok && s.services != nil {
		s.services.SetDebug(settings.Enabled(v, true))
	}

	s.getSettings(w, r)
}

type syncResponse struct {
	Changed bool `json:"changed"`
}

func (s *Server) syncSettings(w http.ResponseWriter, r *http.Request) {
	changed, err := s.settings.SyncFromRemote(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Manual settings sync failed")
		writeError(w, "settings sync failed", http.StatusBadGateway)

		return
	}

	writeJSON(w, http.StatusOK, syncResponse{Changed: changed})
}

type i18nResponse struct {
	Language   string            `json:"language"`
	Languages  []string          `json:"languages"`
	Dictionary map[string]string `json:"dictionary"`
}

func (s *Server) handleI18n(w http.ResponseWriter, r *http.Request) {
	lang, _ := s.translator(r)

	dict := s.catalog.Dictionary(lang)
	if dict == nil {
		dict = map[string]string{}
	}

	writeJSON(w, http.StatusOK, i18nResponse{Language: lang, Languages: s.catalog.Languages(), Dictionary: dict})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	p := pages.Page{
		DataPage: q.Get("page"),
		Path:     q.Get("path"),
	}

	if dispatch := q.Get("dispatch"); dispatch != "" {
		p.DispatchPath = strings.Split(dispatch, "/")
	}

	if width := q.Get("width"); width != "" {
		n, err := strconv.Atoi(width)
		if err != nil || n < 0 {
			writeError(w, "invalid width", http.StatusBadRequest)

			return
		}

		p.Width = n
	}

	widgets := pages.Widgets{
		Services:    s.services != nil && s.settingEnabled(r.Context(), settings.KeyServicesWidget),
		Temperature: s.temperature != nil && s.settingEnabled(r.Context(), settings.KeyTempWidget),
	}

	writeJSON(w, http.StatusOK, pages.Describe(p, widgets))
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Visible bool   `json:"visible"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Clients: s.hub.Clients(), Visible: s.hub.Visible()}

	if s.services != nil && s.services.Stopped() {
		resp.Status = "stopped"
		writeJSON(w, http.StatusServiceUnavailable, resp)

		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, &s.upgrader)
}

// settingEnabled reads a boolean option; missing options and a missing store count as enabled.
func (s *Server) settingEnabled(ctx context.Context, key string) bool {
	if s.settings == nil {
		return true
	}

	v, found, err := s.settings.Get(ctx, key)
	if err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("Failed to read setting")

		return true
	}

	return settings.Enabled(v, found)
}
