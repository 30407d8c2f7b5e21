// Package capability maintains the set of capability names templates may
// provide or require. Connecting a provider to a consumer slot is only
// meaningful when both sides agree on the capability name, so every name
// crossing an engine boundary is checked against this registry.
package capability

import (
	"fmt"
	"sort"
	"sync"

	"github.com/patchbay-sh/patchbay/internal/validate"
)

// Builtin capability names known to every installation. Template manifests
// can register additional names at catalog load time.
const (
	LLM           = "llm"
	Transcription = "transcription"
	Speech        = "speech"
	Storage       = "storage"
	Embeddings    = "embeddings"
)

// Capability describes a named contract between providers and consumers.
type Capability struct {
	Name  string
	Label string
}

// Registry is the authoritative set of valid capability names.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

// NewRegistry returns a registry pre-populated with the builtin capabilities.
func NewRegistry() *Registry {
	r := &Registry{caps: make(map[string]Capability)}
	for name, label := range map[string]string{
		LLM:           "Language model",
		Transcription: "Speech to text",
		Speech:        "Text to speech",
		Storage:       "Object storage",
		Embeddings:    "Vector embeddings",
	} {
		r.caps[name] = Capability{Name: name, Label: label}
	}
	return r
}

// Register adds a capability name. Registering an existing name updates its
// label when a non-empty one is given.
func (r *Registry) Register(name, label string) error {
	if !validate.Ident(name) {
		return fmt.Errorf("capability: invalid name %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.caps[name]
	if ok && label == "" {
		return nil
	}
	if ok {
		existing.Label = label
		r.caps[name] = existing
		return nil
	}
	r.caps[name] = Capability{Name: name, Label: label}
	return nil
}

// Known reports whether the capability name is registered.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.caps[name]
	return ok
}

// Get returns the capability for name.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[name]
	return c, ok
}

// List returns all registered capabilities sorted by name.
func (r *Registry) List() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Capability, 0, len(r.caps))
	for _, c := range r.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
