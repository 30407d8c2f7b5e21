package server

import (
	"net/http"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

func (s *APIServer) handleOutputsList(w http.ResponseWriter, r *http.Request) {
	wires, err := s.outputs.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	overview := apihttp.OutputWiresOverview{Wires: []apihttp.OutputWireEntry{}}
	for _, wire := range wires {
		overview.Wires = append(overview.Wires, outputWireEntry(wire))
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *APIServer) handleOutputConnect(w http.ResponseWriter, r *http.Request) {
	var req apihttp.OutputWireConnectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	wire, err := s.outputs.Connect(r.Context(),
		req.SourceInstanceID, req.SourceOutputKey, req.TargetInstanceID, req.TargetEnvVar)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apihttp.OutputWireResult{Wire: outputWireEntry(wire)})
}

func (s *APIServer) handleOutputDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.outputs.Disconnect(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) handleInputs(w http.ResponseWriter, r *http.Request) {
	inputs, err := s.outputs.ResolveAt(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	overview := apihttp.ResolvedInputsOverview{Inputs: []apihttp.ResolvedInputEntry{}}
	for _, input := range inputs {
		overview.Inputs = append(overview.Inputs, resolvedInputEntry(input))
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *APIServer) handleEffectiveConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.resolution.EffectiveConfig(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	reveal := r.URL.Query().Get("reveal") == "1"
	writeJSON(w, http.StatusOK, effectiveConfigEntry(cfg, reveal))
}

func (s *APIServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	report, err := s.resolution.Validate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validationReportEntry(report))
}
