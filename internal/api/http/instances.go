package http

// FieldValue is one stored field override in wire form. Source is one of
// "default", "literal", or "setting"; requests may additionally use
// "new_setting" to promote a value into the settings store and reference
// it in the same mutation.
type FieldValue struct {
	Source string `json:"source"`
	Value  string `json:"value,omitempty"`
	Path   string `json:"path,omitempty"`
}

// InstanceEntry describes one saved instance.
type InstanceEntry struct {
	ID          string                `json:"id"`
	TemplateID  string                `json:"template_id"`
	Name        string                `json:"name"`
	FieldValues map[string]FieldValue `json:"field_values,omitempty"`
	CreatedAt   string                `json:"created_at"`
	UpdatedAt   string                `json:"updated_at"`
}

// InstancesOverview is returned by GET /instances.
type InstancesOverview struct {
	Instances []InstanceEntry `json:"instances"`
}

// InstanceCreateRequest is accepted by POST /instances.
type InstanceCreateRequest struct {
	TemplateID string                `json:"template_id"`
	Name       string                `json:"name"`
	Fields     map[string]FieldValue `json:"fields,omitempty"`
}

// InstanceUpdateRequest is accepted by PATCH /instances/{id}. A nil Name
// keeps the current name; fields absent from Fields keep their values.
type InstanceUpdateRequest struct {
	Name   *string               `json:"name,omitempty"`
	Fields map[string]FieldValue `json:"fields,omitempty"`
}

// InstanceResult wraps a single instance returned by write endpoints.
type InstanceResult struct {
	Instance InstanceEntry `json:"instance"`
}
