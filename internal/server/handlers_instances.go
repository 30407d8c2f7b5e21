package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
	"github.com/patchbay-sh/patchbay/internal/instances"
)

const maxRequestBody = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is required")
		} else {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
		return false
	}
	return true
}

func fieldInputs(fields map[string]apihttp.FieldValue) map[string]instances.FieldInput {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]instances.FieldInput, len(fields))
	for key, fv := range fields {
		out[key] = instances.FieldInput{
			Source: instances.FieldInputSource(fv.Source),
			Value:  fv.Value,
			Path:   fv.Path,
		}
	}
	return out
}

func (s *APIServer) handleInstancesList(w http.ResponseWriter, r *http.Request) {
	insts, err := s.instances.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	overview := apihttp.InstancesOverview{Instances: []apihttp.InstanceEntry{}}
	for _, inst := range insts {
		overview.Instances = append(overview.Instances, instanceEntry(inst))
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *APIServer) handleInstanceCreate(w http.ResponseWriter, r *http.Request) {
	var req apihttp.InstanceCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inst, err := s.instances.Create(r.Context(), instances.CreateParams{
		TemplateID: req.TemplateID,
		Name:       req.Name,
		Fields:     fieldInputs(req.Fields),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apihttp.InstanceResult{Instance: instanceEntry(inst)})
}

func (s *APIServer) handleInstanceGet(w http.ResponseWriter, r *http.Request) {
	inst, err := s.instances.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, instanceEntry(inst))
}

func (s *APIServer) handleInstanceUpdate(w http.ResponseWriter, r *http.Request) {
	var req apihttp.InstanceUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inst, err := s.instances.Update(r.Context(), r.PathValue("id"), instances.UpdateParams{
		Name:   req.Name,
		Fields: fieldInputs(req.Fields),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apihttp.InstanceResult{Instance: instanceEntry(inst)})
}

func (s *APIServer) handleInstanceDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.instances.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
