// Package http defines the JSON shapes shared by the daemon's HTTP API
// and its clients.
package http

// TemplateField describes one entry of a template's config schema.
type TemplateField struct {
	Key         string `json:"key"`
	Type        string `json:"type,omitempty"`
	Default     string `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Secret      bool   `json:"secret,omitempty"`
	EnvVar      string `json:"env_var"`
	SettingPath string `json:"setting_path,omitempty"`
}

// TemplateEntry describes one immutable template blueprint.
type TemplateEntry struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Mode     string          `json:"mode,omitempty"`
	Version  string          `json:"version,omitempty"`
	Provides string          `json:"provides,omitempty"`
	Requires []string        `json:"requires,omitempty"`
	Schema   []TemplateField `json:"config_schema,omitempty"`
}

// TemplatesOverview is returned by GET /templates.
type TemplatesOverview struct {
	Templates []TemplateEntry `json:"templates"`
}

// CapabilityEntry describes one registered capability.
type CapabilityEntry struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
}

// CapabilitiesOverview is returned by GET /capabilities.
type CapabilitiesOverview struct {
	Capabilities []CapabilityEntry `json:"capabilities"`
}
