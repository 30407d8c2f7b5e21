package server

import (
	"net/http"
	"sort"
	"time"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
	"github.com/patchbay-sh/patchbay/internal/version"
)

func (s *APIServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIServer) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotFound, "metrics disabled")
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(s.exporter.Export())
}

func (s *APIServer) handleDaemonStatus(w http.ResponseWriter, r *http.Request) {
	insts, err := s.instances.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apihttp.DaemonStatus{
		Version:   version.String(),
		Home:      s.opts.Home,
		Templates: len(s.catalog.List()),
		Instances: len(insts),
		StartedAt: s.startTime.UTC().Format(time.RFC3339),
	})
}

func (s *APIServer) handleDaemonShutdown(w http.ResponseWriter, _ *http.Request) {
	if s.onShutdown == nil {
		writeError(w, http.StatusNotImplemented, "shutdown not supported")
		return
	}
	w.WriteHeader(http.StatusAccepted)
	go s.onShutdown()
}

func (s *APIServer) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	overview := apihttp.CapabilitiesOverview{Capabilities: []apihttp.CapabilityEntry{}}
	for _, cap := range s.registry.List() {
		overview.Capabilities = append(overview.Capabilities, apihttp.CapabilityEntry{
			Name:  cap.Name,
			Label: cap.Label,
		})
	}
	sort.Slice(overview.Capabilities, func(i, j int) bool {
		return overview.Capabilities[i].Name < overview.Capabilities[j].Name
	})
	writeJSON(w, http.StatusOK, overview)
}

func (s *APIServer) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	overview := apihttp.TemplatesOverview{Templates: []apihttp.TemplateEntry{}}
	for _, tmpl := range s.catalog.List() {
		overview.Templates = append(overview.Templates, templateEntry(tmpl))
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *APIServer) handleTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := s.catalog.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "template "+r.PathValue("id")+" not found")
		return
	}
	writeJSON(w, http.StatusOK, templateEntry(tmpl))
}
