// Package deploy talks to the external deployment service. The engine
// never tracks container state itself; status and outputs are pulled on
// demand and treated as opaque strings keyed by name.
package deploy

import (
	"context"
	"strings"

	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
)

// State is the deployment service's coarse lifecycle state for an instance.
type State string

const (
	StateNotDeployed State = "not_deployed"
	StateStarting    State = "starting"
	StateRunning     State = "running"
	StateStopped     State = "stopped"
	StateFailed      State = "failed"
)

// Outputs is the bundle a running deployment produces.
type Outputs struct {
	AccessURL        string            `json:"access_url,omitempty"`
	EnvVars          map[string]string `json:"env_vars,omitempty"`
	CapabilityValues map[string]string `json:"capability_values,omitempty"`
}

// Lookup resolves an output key ("access_url", "env_vars.<k>",
// "capability_values.<k>") against the bundle.
func (o Outputs) Lookup(key string) (string, bool) {
	switch {
	case key == configstore.OutputKeyAccessURL:
		return o.AccessURL, o.AccessURL != ""
	case strings.HasPrefix(key, configstore.OutputKeyEnvVarPrefix):
		v, ok := o.EnvVars[strings.TrimPrefix(key, configstore.OutputKeyEnvVarPrefix)]
		return v, ok
	case strings.HasPrefix(key, configstore.OutputKeyCapabilityValuePrefix):
		v, ok := o.CapabilityValues[strings.TrimPrefix(key, configstore.OutputKeyCapabilityValuePrefix)]
		return v, ok
	default:
		return "", false
	}
}

// ValidOutputKey reports whether key names a recognized output slot.
func ValidOutputKey(key string) bool {
	switch {
	case key == configstore.OutputKeyAccessURL:
		return true
	case strings.HasPrefix(key, configstore.OutputKeyEnvVarPrefix):
		return len(key) > len(configstore.OutputKeyEnvVarPrefix)
	case strings.HasPrefix(key, configstore.OutputKeyCapabilityValuePrefix):
		return len(key) > len(configstore.OutputKeyCapabilityValuePrefix)
	default:
		return false
	}
}

// Status is one instance's reported deployment state. Outputs is only
// meaningful when State is StateRunning.
type Status struct {
	State   State   `json:"state"`
	Outputs Outputs `json:"outputs"`
}

// Running reports whether outputs can be read from the deployment.
func (s Status) Running() bool {
	return s.State == StateRunning
}

// Service is the deployment collaborator contract. An instance the
// service has never seen reports StateNotDeployed, not an error.
type Service interface {
	Status(ctx context.Context, instanceID string) (Status, error)
}
