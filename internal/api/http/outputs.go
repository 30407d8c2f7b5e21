package http

// OutputWireEntry describes one output-to-input wire.
type OutputWireEntry struct {
	ID               string `json:"id"`
	SourceInstanceID string `json:"source_instance_id"`
	SourceOutputKey  string `json:"source_output_key"`
	TargetInstanceID string `json:"target_instance_id"`
	TargetEnvVar     string `json:"target_env_var"`
	CreatedAt        string `json:"created_at"`
}

// OutputWiresOverview is returned by GET /outputs.
type OutputWiresOverview struct {
	Wires []OutputWireEntry `json:"wires"`
}

// OutputWireConnectRequest is accepted by POST /outputs.
type OutputWireConnectRequest struct {
	SourceInstanceID string `json:"source_instance_id"`
	SourceOutputKey  string `json:"source_output_key"`
	TargetInstanceID string `json:"target_instance_id"`
	TargetEnvVar     string `json:"target_env_var"`
}

// OutputWireResult wraps the wire returned by POST /outputs.
type OutputWireResult struct {
	Wire OutputWireEntry `json:"wire"`
}

// ResolvedInputEntry is one inbound wire's value at resolution time.
type ResolvedInputEntry struct {
	EnvVar           string `json:"env_var"`
	Value            string `json:"value,omitempty"`
	Pending          bool   `json:"pending"`
	Required         bool   `json:"required,omitempty"`
	SourceInstanceID string `json:"source_instance_id"`
	SourceOutputKey  string `json:"source_output_key"`
	Error            string `json:"error,omitempty"`
}

// ResolvedInputsOverview is returned by GET /instances/{id}/inputs.
type ResolvedInputsOverview struct {
	Inputs []ResolvedInputEntry `json:"inputs"`
}
