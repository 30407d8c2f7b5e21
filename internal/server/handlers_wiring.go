package server

import (
	"net/http"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
)

func (s *APIServer) handleWiringList(w http.ResponseWriter, r *http.Request) {
	edges, err := s.wiring.AllEdges(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	overview := apihttp.WiringOverview{Edges: []apihttp.WiringEdgeEntry{}}
	for _, edge := range edges {
		overview.Edges = append(overview.Edges, wiringEdgeEntry(edge))
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *APIServer) handleWiringOrphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := s.wiring.DetectOrphans(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	overview := apihttp.OrphansOverview{Orphans: []apihttp.OrphanEntry{}}
	for _, orphan := range orphans {
		overview.Orphans = append(overview.Orphans, orphanEntry(orphan))
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *APIServer) handleConsumerWiring(w http.ResponseWriter, r *http.Request) {
	edges, err := s.wiring.Edges(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	overview := apihttp.WiringOverview{Edges: []apihttp.WiringEdgeEntry{}}
	for _, edge := range edges {
		overview.Edges = append(overview.Edges, wiringEdgeEntry(edge))
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *APIServer) handleWiringResolve(w http.ResponseWriter, r *http.Request) {
	capabilityName := r.PathValue("capability")
	res, err := s.wiring.ResolveProvider(r.Context(), r.PathValue("id"), capabilityName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	entry := apihttp.ProviderResolution{
		Capability: capabilityName,
		State:      string(res.State),
	}
	if !res.Provider.IsZero() {
		ref := providerRef(res.Provider)
		entry.Provider = &ref
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *APIServer) handleWiringConnect(w http.ResponseWriter, r *http.Request) {
	var req apihttp.WiringConnectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	provider := configstore.ProviderRef{
		Kind: configstore.ProviderKind(req.Provider.Kind),
		ID:   req.Provider.ID,
	}
	if err := s.wiring.Connect(r.Context(), r.PathValue("id"), r.PathValue("capability"), provider); err != nil {
		writeDomainError(w, err)
		return
	}
	edge, err := s.store.GetWiringEdge(r.Context(), r.PathValue("id"), r.PathValue("capability"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wiringEdgeEntry(edge))
}

func (s *APIServer) handleWiringDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.wiring.Disconnect(r.Context(), r.PathValue("id"), r.PathValue("capability")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
