package server

import (
	"net/http"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/eventbus"
	"github.com/patchbay-sh/patchbay/internal/validate"
)

func (s *APIServer) handleSettingsList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListSettings(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	overview := apihttp.SettingsOverview{Settings: []apihttp.SettingEntry{}}
	for _, entry := range entries {
		out := apihttp.SettingEntry{
			Path:      entry.Path,
			Value:     entry.Value,
			Secret:    entry.Secret,
			UpdatedAt: entry.UpdatedAt,
		}
		if entry.Secret {
			out.Value = redactedValue
		}
		overview.Settings = append(overview.Settings, out)
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *APIServer) handleSettingPut(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if err := validate.SettingPath(path); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req apihttp.SettingWriteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.store.SaveSetting(r.Context(), configstore.SettingWrite{
		Path:   path,
		Value:  req.Value,
		Secret: req.Secret,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.publishSettingEvent(r, eventbus.ActionUpdated, path)
	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) handleSettingDelete(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if err := validate.SettingPath(path); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.DeleteSetting(r.Context(), path); err != nil {
		writeDomainError(w, err)
		return
	}
	s.publishSettingEvent(r, eventbus.ActionDeleted, path)
	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) publishSettingEvent(r *http.Request, action, path string) {
	s.bus.Publish(r.Context(), eventbus.Envelope{
		Topic:   eventbus.TopicSettingsChanged,
		Source:  eventbus.SourceSettings,
		Payload: eventbus.SettingEvent{Action: action, Path: path},
	})
}
