// Package catalog holds the immutable template blueprints instances are
// created from. The catalog is assembled once at daemon start from builtin
// templates plus user manifests and never mutated afterwards.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/patchbay-sh/patchbay/internal/capability"
	"github.com/patchbay-sh/patchbay/internal/validate"
)

// Template modes.
const (
	ModeCloud = "cloud"
	ModeLocal = "local"
)

// Field value types supported by template config schemas.
const (
	FieldTypeString  = "string"
	FieldTypeNumber  = "number"
	FieldTypeBoolean = "boolean"
	FieldTypeURL     = "url"
)

// Field describes one entry of a template's config schema. SettingPath
// optionally maps the field to a shared settings-store entry consulted
// when an instance carries no explicit override.
type Field struct {
	Key         string `yaml:"key"`
	Type        string `yaml:"type"`
	Default     string `yaml:"default"`
	Required    bool   `yaml:"required"`
	Secret      bool   `yaml:"secret"`
	EnvVar      string `yaml:"env_var"`
	SettingPath string `yaml:"setting_path"`
}

// EnvName returns the environment variable the field maps to, deriving
// SNAKE_CASE from the key when the manifest does not name one explicitly.
func (f Field) EnvName() string {
	if f.EnvVar != "" {
		return f.EnvVar
	}
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(f.Key))
}

// Template is an immutable blueprint for a provider or consumer role.
type Template struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Mode     string   `yaml:"mode"`
	Version  string   `yaml:"version"`
	Provides string   `yaml:"provides"`
	Requires []string `yaml:"requires"`
	Schema   []Field  `yaml:"config_schema"`
}

// FieldByKey returns the schema field with the given key.
func (t Template) FieldByKey(key string) (Field, bool) {
	for _, f := range t.Schema {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByEnvVar returns the schema field mapped to the given environment
// variable name.
func (t Template) FieldByEnvVar(envVar string) (Field, bool) {
	for _, f := range t.Schema {
		if f.EnvName() == envVar {
			return f, true
		}
	}
	return Field{}, false
}

// RequiresCapability reports whether the template declares the capability
// in its requires set.
func (t Template) RequiresCapability(name string) bool {
	for _, c := range t.Requires {
		if c == name {
			return true
		}
	}
	return false
}

// Validate checks structural template invariants.
func (t Template) Validate() error {
	if !validate.Ident(t.ID) {
		return fmt.Errorf("catalog: template id %q is not a valid identifier", t.ID)
	}
	if t.Provides != "" && !validate.Ident(t.Provides) {
		return fmt.Errorf("catalog: template %s: invalid provides capability %q", t.ID, t.Provides)
	}
	seen := make(map[string]struct{}, len(t.Requires))
	for _, c := range t.Requires {
		if !validate.Ident(c) {
			return fmt.Errorf("catalog: template %s: invalid required capability %q", t.ID, c)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("catalog: template %s: duplicate required capability %q", t.ID, c)
		}
		seen[c] = struct{}{}
	}
	keys := make(map[string]struct{}, len(t.Schema))
	for _, f := range t.Schema {
		if f.Key == "" {
			return fmt.Errorf("catalog: template %s: schema field with empty key", t.ID)
		}
		if _, dup := keys[f.Key]; dup {
			return fmt.Errorf("catalog: template %s: duplicate schema key %q", t.ID, f.Key)
		}
		keys[f.Key] = struct{}{}
		switch f.Type {
		case FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeURL, "":
		default:
			return fmt.Errorf("catalog: template %s: field %s has unknown type %q", t.ID, f.Key, f.Type)
		}
		if !validate.EnvVar(f.EnvName()) {
			return fmt.Errorf("catalog: template %s: field %s maps to invalid env var %q", t.ID, f.Key, f.EnvName())
		}
		if f.SettingPath != "" {
			if err := validate.SettingPath(f.SettingPath); err != nil {
				return fmt.Errorf("catalog: template %s: field %s: %w", t.ID, f.Key, err)
			}
		}
	}
	return nil
}

// Catalog is the read-only set of loaded templates.
type Catalog struct {
	templates map[string]Template
	ordered   []string
}

// Load assembles a catalog from the given templates and registers every
// capability they mention with the registry. Later duplicates of the same
// template id must be resolved before Load (see MergeManifests).
func Load(registry *capability.Registry, templates []Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]Template, len(templates))}

	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.templates[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate template id %q", t.ID)
		}
		c.templates[t.ID] = t
		c.ordered = append(c.ordered, t.ID)

		if registry != nil {
			if t.Provides != "" {
				if err := registry.Register(t.Provides, ""); err != nil {
					return nil, err
				}
			}
			for _, cap := range t.Requires {
				if err := registry.Register(cap, ""); err != nil {
					return nil, err
				}
			}
		}
	}

	sort.Strings(c.ordered)
	return c, nil
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// List returns all templates sorted by id.
func (c *Catalog) List() []Template {
	out := make([]Template, 0, len(c.ordered))
	for _, id := range c.ordered {
		out = append(out, c.templates[id])
	}
	return out
}

// ProvidersOf returns all templates providing the capability, sorted by id.
func (c *Catalog) ProvidersOf(cap string) []Template {
	var out []Template
	for _, id := range c.ordered {
		if t := c.templates[id]; t.Provides == cap {
			out = append(out, t)
		}
	}
	return out
}

// DefaultProviderFor returns the implicit default provider for a capability:
// the sole template providing it. When zero or several templates provide the
// capability there is no default.
func (c *Catalog) DefaultProviderFor(cap string) (Template, bool) {
	providers := c.ProvidersOf(cap)
	if len(providers) != 1 {
		return Template{}, false
	}
	return providers[0], true
}
