package http

// ResolvedField is one concretely resolved config field. Secret values
// are redacted unless the caller asked to reveal them.
type ResolvedField struct {
	Key      string `json:"key"`
	EnvVar   string `json:"env_var,omitempty"`
	Value    string `json:"value,omitempty"`
	Resolved bool   `json:"resolved"`
	Secret   bool   `json:"secret,omitempty"`
	Required bool   `json:"required,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CapabilitySlotEntry is one required capability with its resolved
// provider and effective config.
type CapabilitySlotEntry struct {
	Capability string          `json:"capability"`
	State      string          `json:"state"`
	Provider   *ProviderRef    `json:"provider,omitempty"`
	Fields     []ResolvedField `json:"fields,omitempty"`
}

// EffectiveConfig is returned by GET /instances/{id}/config. Env is the
// flattened deploy environment; variables backed by secret fields are
// redacted unless the caller asked to reveal them.
type EffectiveConfig struct {
	ConsumerID   string                `json:"consumer_id"`
	ConsumerName string                `json:"consumer_name"`
	TemplateID   string                `json:"template_id"`
	Fields       []ResolvedField       `json:"fields,omitempty"`
	Capabilities []CapabilitySlotEntry `json:"capabilities,omitempty"`
	Inputs       []ResolvedInputEntry  `json:"inputs,omitempty"`
	Env          map[string]string     `json:"env,omitempty"`
}

// ValidationFinding is one actionable problem found during validation.
type ValidationFinding struct {
	Severity   string `json:"severity"`
	Capability string `json:"capability,omitempty"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
}

// ValidationReport is returned by GET /instances/{id}/validate. Status
// is "ready", "needs_setup", or "error".
type ValidationReport struct {
	ConsumerID string              `json:"consumer_id"`
	Status     string              `json:"status"`
	Findings   []ValidationFinding `json:"findings,omitempty"`
}
