// Package resolution composes the catalog, wiring graph, settings
// resolver, and output graph into the two read-only queries most callers
// need: the effective configuration of a consumer and its readiness
// report.
package resolution

import (
	"context"
	"fmt"

	"github.com/patchbay-sh/patchbay/internal/catalog"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/outputs"
	"github.com/patchbay-sh/patchbay/internal/settings"
	"github.com/patchbay-sh/patchbay/internal/wiring"
)

// Status is the coarse per-consumer readiness state. It is the surface
// external callers observe; the underlying error taxonomy collapses
// into it.
type Status string

const (
	StatusReady      Status = "ready"
	StatusNeedsSetup Status = "needs_setup"
	StatusError      Status = "error"
)

// Severity classifies a finding. Error findings force StatusError;
// warnings force StatusNeedsSetup.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one actionable problem discovered during validation.
type Finding struct {
	Severity   Severity `json:"severity"`
	Capability string   `json:"capability,omitempty"`
	Field      string   `json:"field,omitempty"`
	Message    string   `json:"message"`
}

// Report is the validation outcome for one consumer.
type Report struct {
	ConsumerID string    `json:"consumer_id"`
	Status     Status    `json:"status"`
	Findings   []Finding `json:"findings,omitempty"`
}

// FieldValue is one concretely resolved field. Resolved=false marks a
// degraded or unconfigured value; Err carries a collaborator failure.
type FieldValue struct {
	Key      string
	EnvName  string
	Value    string
	Resolved bool
	Secret   bool
	Required bool
	Err      error
}

// CapabilitySlot is the resolved provider and its effective config for
// one required capability.
type CapabilitySlot struct {
	Capability string
	State      wiring.ProviderState
	Provider   configstore.ProviderRef
	Fields     []FieldValue
}

// Config is a consumer's fully resolved configuration. Env is the
// flattened environment the consumer deploys with: every resolved
// schema field under its env var name, with resolved output wires
// layered on top. Unresolved fields and pending wires leave their
// variables unset.
type Config struct {
	ConsumerID   string
	ConsumerName string
	TemplateID   string
	Fields       []FieldValue
	Capabilities []CapabilitySlot
	Inputs       []outputs.ResolvedInput
	Env          map[string]string
}

// Service is the resolution facade.
type Service struct {
	catalog  *catalog.Catalog
	store    *configstore.Store
	wiring   *wiring.Service
	resolver *settings.Resolver
	outputs  *outputs.Service
}

func New(cat *catalog.Catalog, store *configstore.Store, wiringSvc *wiring.Service, resolver *settings.Resolver, outputsSvc *outputs.Service) *Service {
	return &Service{
		catalog:  cat,
		store:    store,
		wiring:   wiringSvc,
		resolver: resolver,
		outputs:  outputsSvc,
	}
}

// EffectiveConfig resolves the consumer's own fields, every required
// capability's provider config, and its inbound output wires. Field
// precedence is literal override, then explicit reference, then mapped
// setting, then template default. A provider wired as a bare template
// resolves through defaults only. Collaborator failures degrade the
// affected field rather than failing the call.
func (s *Service) EffectiveConfig(ctx context.Context, consumerID string) (Config, error) {
	consumer, err := s.store.GetInstance(ctx, consumerID)
	if err != nil {
		return Config{}, err
	}
	tmpl, ok := s.catalog.Get(consumer.TemplateID)
	if !ok {
		return Config{}, configstore.NotFoundError{Entity: "template", Key: consumer.TemplateID}
	}

	cfg := Config{
		ConsumerID:   consumer.ID,
		ConsumerName: consumer.Name,
		TemplateID:   tmpl.ID,
		Fields:       s.resolveFields(ctx, tmpl, consumer.FieldValues),
	}

	for _, cap := range tmpl.Requires {
		slot := CapabilitySlot{Capability: cap}
		res, err := s.wiring.ResolveProvider(ctx, consumerID, cap)
		if err != nil {
			return Config{}, err
		}
		slot.State = res.State
		slot.Provider = res.Provider

		switch res.State {
		case wiring.StateWired:
			fields, err := s.providerFields(ctx, res.Provider)
			if err != nil {
				return Config{}, err
			}
			slot.Fields = fields
		case wiring.StateDefault:
			providerTmpl, _ := s.catalog.Get(res.Provider.ID)
			slot.Fields = s.resolveFields(ctx, providerTmpl, nil)
		}
		cfg.Capabilities = append(cfg.Capabilities, slot)
	}

	inputs, err := s.outputs.ResolveAt(ctx, consumerID)
	if err != nil {
		return Config{}, err
	}
	cfg.Inputs = inputs
	cfg.Env = flattenEnv(cfg)
	return cfg, nil
}

// flattenEnv assembles the deploy environment from the consumer's own
// resolved fields and its inbound output wires. A wire targeting the
// same variable as a schema field wins: the edge is an explicit
// dataflow assignment.
func flattenEnv(cfg Config) map[string]string {
	env := make(map[string]string)
	for _, field := range cfg.Fields {
		if field.Resolved && field.EnvName != "" {
			env[field.EnvName] = field.Value
		}
	}
	for _, input := range cfg.Inputs {
		if !input.Pending && input.Err == nil {
			env[input.EnvVar] = input.Value
		}
	}
	return env
}

// Validate folds the effective configuration and the orphan scan into
// one coarse status with per-problem findings.
func (s *Service) Validate(ctx context.Context, consumerID string) (Report, error) {
	cfg, err := s.EffectiveConfig(ctx, consumerID)
	if err != nil {
		return Report{}, err
	}

	report := Report{ConsumerID: consumerID, Status: StatusReady}
	add := func(f Finding) {
		report.Findings = append(report.Findings, f)
		if f.Severity == SeverityError {
			report.Status = StatusError
		} else if report.Status != StatusError {
			report.Status = StatusNeedsSetup
		}
	}

	for _, field := range cfg.Fields {
		reportField(add, "", field)
	}

	for _, slot := range cfg.Capabilities {
		switch slot.State {
		case wiring.StateOrphaned:
			add(Finding{
				Severity:   SeverityError,
				Capability: slot.Capability,
				Message:    fmt.Sprintf("wired provider %s no longer exists", slot.Provider),
			})
		case wiring.StateUnresolved:
			add(Finding{
				Severity:   SeverityWarning,
				Capability: slot.Capability,
				Message:    fmt.Sprintf("no provider wired for %q and no single template provides it", slot.Capability),
			})
		default:
			for _, field := range slot.Fields {
				reportField(add, slot.Capability, field)
			}
		}
	}

	for _, input := range cfg.Inputs {
		switch {
		case input.Err != nil:
			add(Finding{
				Severity: SeverityWarning,
				Field:    input.EnvVar,
				Message:  fmt.Sprintf("input %s: %v", input.EnvVar, input.Err),
			})
		case input.Pending && input.Required:
			add(Finding{
				Severity: SeverityWarning,
				Field:    input.EnvVar,
				Message: fmt.Sprintf("input %s waits on %s output %q",
					input.EnvVar, input.SourceInstanceID, input.SourceOutputKey),
			})
		}
	}

	return report, nil
}

func reportField(add func(Finding), cap string, field FieldValue) {
	switch {
	case field.Err != nil:
		add(Finding{
			Severity:   SeverityWarning,
			Capability: cap,
			Field:      field.Key,
			Message:    fmt.Sprintf("field %s: %v", field.Key, field.Err),
		})
	case !field.Resolved && field.Required:
		add(Finding{
			Severity:   SeverityWarning,
			Capability: cap,
			Field:      field.Key,
			Message:    fmt.Sprintf("required field %s is not configured", field.Key),
		})
	}
}

// providerFields resolves a wired provider's schema. Instance providers
// apply their stored overrides; the wiring layer guarantees the
// provider exists when the slot state is wired.
func (s *Service) providerFields(ctx context.Context, ref configstore.ProviderRef) ([]FieldValue, error) {
	switch ref.Kind {
	case configstore.ProviderTemplate:
		tmpl, ok := s.catalog.Get(ref.ID)
		if !ok {
			return nil, configstore.NotFoundError{Entity: "template", Key: ref.ID}
		}
		return s.resolveFields(ctx, tmpl, nil), nil
	case configstore.ProviderInstance:
		inst, err := s.store.GetInstance(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		tmpl, ok := s.catalog.Get(inst.TemplateID)
		if !ok {
			return nil, configstore.NotFoundError{Entity: "template", Key: inst.TemplateID}
		}
		return s.resolveFields(ctx, tmpl, inst.FieldValues), nil
	default:
		return nil, configstore.Validationf("unknown provider kind %q", ref.Kind)
	}
}

func (s *Service) resolveFields(ctx context.Context, tmpl catalog.Template, overrides map[string]configstore.FieldValue) []FieldValue {
	fields := make([]FieldValue, 0, len(tmpl.Schema))
	for _, field := range tmpl.Schema {
		fv, has := overrides[field.Key]
		resolved := s.resolver.Resolve(ctx, field, fv, has)
		fields = append(fields, FieldValue{
			Key:      field.Key,
			EnvName:  field.EnvName(),
			Value:    resolved.Value,
			Resolved: resolved.Resolved,
			Secret:   field.Secret,
			Required: field.Required,
			Err:      resolved.Err,
		})
	}
	return fields
}
