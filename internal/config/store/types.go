package store

import "fmt"

// FieldValueSource discriminates how an instance field obtains its value.
type FieldValueSource string

const (
	// FieldSourceDefault inherits the template's default.
	FieldSourceDefault FieldValueSource = "default"
	// FieldSourceLiteral carries the value inline.
	FieldSourceLiteral FieldValueSource = "literal"
	// FieldSourceSetting points at a settings-store path.
	FieldSourceSetting FieldValueSource = "setting"
)

// FieldValue is one instance field override: a literal value, a settings
// reference, or an explicit fall-back to the template default.
type FieldValue struct {
	Source FieldValueSource `json:"source"`
	Value  string           `json:"value,omitempty"` // literal only
	Path   string           `json:"path,omitempty"`  // setting only
}

// LiteralValue builds a literal field value.
func LiteralValue(v string) FieldValue {
	return FieldValue{Source: FieldSourceLiteral, Value: v}
}

// SettingReference builds an indirect field value resolved through the
// settings store.
func SettingReference(path string) FieldValue {
	return FieldValue{Source: FieldSourceSetting, Path: path}
}

// DefaultValue builds an explicit inherit-template-default marker.
func DefaultValue() FieldValue {
	return FieldValue{Source: FieldSourceDefault}
}

// Validate checks internal consistency of the tagged value.
func (fv FieldValue) Validate() error {
	switch fv.Source {
	case FieldSourceDefault:
		if fv.Value != "" || fv.Path != "" {
			return Validationf("default field value must not carry value or path")
		}
	case FieldSourceLiteral:
		if fv.Path != "" {
			return Validationf("literal field value must not carry a settings path")
		}
	case FieldSourceSetting:
		if fv.Path == "" {
			return Validationf("setting field value requires a path")
		}
		if fv.Value != "" {
			return Validationf("setting field value must not carry an inline value")
		}
	default:
		return Validationf("unknown field value source %q", fv.Source)
	}
	return nil
}

// Instance is a saved, named configuration derived from a template.
type Instance struct {
	ID          string
	TemplateID  string
	Name        string
	FieldValues map[string]FieldValue
	CreatedAt   string
	UpdatedAt   string
}

// ProviderKind discriminates the two halves of a ProviderRef.
type ProviderKind string

const (
	ProviderTemplate ProviderKind = "template"
	ProviderInstance ProviderKind = "instance"
)

// ProviderRef identifies what satisfies a capability slot: a bare template
// (implicit defaults) or a saved instance.
type ProviderRef struct {
	Kind ProviderKind
	ID   string
}

// TemplateRef builds a template provider reference.
func TemplateRef(id string) ProviderRef {
	return ProviderRef{Kind: ProviderTemplate, ID: id}
}

// InstanceRef builds an instance provider reference.
func InstanceRef(id string) ProviderRef {
	return ProviderRef{Kind: ProviderInstance, ID: id}
}

// IsZero reports whether the reference is unset.
func (r ProviderRef) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

func (r ProviderRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// Validate checks the reference is well-formed.
func (r ProviderRef) Validate() error {
	switch r.Kind {
	case ProviderTemplate, ProviderInstance:
	default:
		return Validationf("unknown provider kind %q", r.Kind)
	}
	if r.ID == "" {
		return Validationf("provider reference requires an id")
	}
	return nil
}

// WiringEdge assigns a provider to one (consumer, capability) slot.
type WiringEdge struct {
	ConsumerID string
	Capability string
	Provider   ProviderRef
	UpdatedAt  string
}

// Output key prefixes for output wires. A source output key is either the
// literal "access_url" or a prefixed name such as "env_vars.PORT" or
// "capability_values.model".
const (
	OutputKeyAccessURL             = "access_url"
	OutputKeyEnvVarPrefix          = "env_vars."
	OutputKeyCapabilityValuePrefix = "capability_values."
)

// OutputWire connects one deployed instance's produced value to another
// instance's input environment variable.
type OutputWire struct {
	ID               string
	SourceInstanceID string
	SourceOutputKey  string
	TargetInstanceID string
	TargetEnvVar     string
	CreatedAt        string
}

// SettingWrite is one pending settings-store upsert, carried alongside an
// instance mutation so both commit in the same transaction.
type SettingWrite struct {
	Path   string
	Value  string
	Secret bool
}

// Setting is a stored settings entry. Secret values are reported decrypted.
type Setting struct {
	Path      string
	Value     string
	Secret    bool
	UpdatedAt string
}
