package http

// SettingEntry describes one settings-store entry. Secret values are
// redacted in listings.
type SettingEntry struct {
	Path      string `json:"path"`
	Value     string `json:"value,omitempty"`
	Secret    bool   `json:"secret,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// SettingsOverview is returned by GET /settings.
type SettingsOverview struct {
	Settings []SettingEntry `json:"settings"`
}

// SettingWriteRequest is accepted by PUT /settings/{path}.
type SettingWriteRequest struct {
	Value  string `json:"value"`
	Secret bool   `json:"secret,omitempty"`
}

// DaemonStatus is returned by GET /daemon/status.
type DaemonStatus struct {
	Version   string `json:"version"`
	Home      string `json:"home"`
	Templates int    `json:"templates"`
	Instances int    `json:"instances"`
	StartedAt string `json:"started_at"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
