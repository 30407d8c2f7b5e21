package server

import (
	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
	"github.com/patchbay-sh/patchbay/internal/catalog"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/outputs"
	"github.com/patchbay-sh/patchbay/internal/resolution"
	"github.com/patchbay-sh/patchbay/internal/wiring"
)

const redactedValue = "<redacted>"

func templateEntry(t catalog.Template) apihttp.TemplateEntry {
	entry := apihttp.TemplateEntry{
		ID:       t.ID,
		Name:     t.Name,
		Mode:     t.Mode,
		Version:  t.Version,
		Provides: t.Provides,
		Requires: t.Requires,
	}
	for _, f := range t.Schema {
		entry.Schema = append(entry.Schema, apihttp.TemplateField{
			Key:         f.Key,
			Type:        f.Type,
			Default:     f.Default,
			Required:    f.Required,
			Secret:      f.Secret,
			EnvVar:      f.EnvName(),
			SettingPath: f.SettingPath,
		})
	}
	return entry
}

func instanceEntry(inst configstore.Instance) apihttp.InstanceEntry {
	entry := apihttp.InstanceEntry{
		ID:         inst.ID,
		TemplateID: inst.TemplateID,
		Name:       inst.Name,
		CreatedAt:  inst.CreatedAt,
		UpdatedAt:  inst.UpdatedAt,
	}
	if len(inst.FieldValues) > 0 {
		entry.FieldValues = make(map[string]apihttp.FieldValue, len(inst.FieldValues))
		for key, fv := range inst.FieldValues {
			entry.FieldValues[key] = apihttp.FieldValue{
				Source: string(fv.Source),
				Value:  fv.Value,
				Path:   fv.Path,
			}
		}
	}
	return entry
}

func providerRef(ref configstore.ProviderRef) apihttp.ProviderRef {
	return apihttp.ProviderRef{Kind: string(ref.Kind), ID: ref.ID}
}

func wiringEdgeEntry(edge configstore.WiringEdge) apihttp.WiringEdgeEntry {
	return apihttp.WiringEdgeEntry{
		ConsumerID: edge.ConsumerID,
		Capability: edge.Capability,
		Provider:   providerRef(edge.Provider),
		UpdatedAt:  edge.UpdatedAt,
	}
}

func outputWireEntry(wire configstore.OutputWire) apihttp.OutputWireEntry {
	return apihttp.OutputWireEntry{
		ID:               wire.ID,
		SourceInstanceID: wire.SourceInstanceID,
		SourceOutputKey:  wire.SourceOutputKey,
		TargetInstanceID: wire.TargetInstanceID,
		TargetEnvVar:     wire.TargetEnvVar,
		CreatedAt:        wire.CreatedAt,
	}
}

func resolvedInputEntry(input outputs.ResolvedInput) apihttp.ResolvedInputEntry {
	entry := apihttp.ResolvedInputEntry{
		EnvVar:           input.EnvVar,
		Value:            input.Value,
		Pending:          input.Pending,
		Required:         input.Required,
		SourceInstanceID: input.SourceInstanceID,
		SourceOutputKey:  input.SourceOutputKey,
	}
	if input.Err != nil {
		entry.Error = input.Err.Error()
	}
	return entry
}

func resolvedField(field resolution.FieldValue, reveal bool) apihttp.ResolvedField {
	entry := apihttp.ResolvedField{
		Key:      field.Key,
		EnvVar:   field.EnvName,
		Value:    field.Value,
		Resolved: field.Resolved,
		Secret:   field.Secret,
		Required: field.Required,
	}
	if field.Secret && !reveal && entry.Value != "" {
		entry.Value = redactedValue
	}
	if field.Err != nil {
		entry.Error = field.Err.Error()
	}
	return entry
}

func effectiveConfigEntry(cfg resolution.Config, reveal bool) apihttp.EffectiveConfig {
	out := apihttp.EffectiveConfig{
		ConsumerID:   cfg.ConsumerID,
		ConsumerName: cfg.ConsumerName,
		TemplateID:   cfg.TemplateID,
	}
	for _, field := range cfg.Fields {
		out.Fields = append(out.Fields, resolvedField(field, reveal))
	}
	for _, slot := range cfg.Capabilities {
		entry := apihttp.CapabilitySlotEntry{
			Capability: slot.Capability,
			State:      string(slot.State),
		}
		if !slot.Provider.IsZero() {
			ref := providerRef(slot.Provider)
			entry.Provider = &ref
		}
		for _, field := range slot.Fields {
			entry.Fields = append(entry.Fields, resolvedField(field, reveal))
		}
		out.Capabilities = append(out.Capabilities, entry)
	}
	for _, input := range cfg.Inputs {
		out.Inputs = append(out.Inputs, resolvedInputEntry(input))
	}
	if len(cfg.Env) > 0 {
		out.Env = make(map[string]string, len(cfg.Env))
		secretVars := make(map[string]bool)
		for _, field := range cfg.Fields {
			if field.Secret && field.EnvName != "" {
				secretVars[field.EnvName] = true
			}
		}
		for name, value := range cfg.Env {
			if secretVars[name] && !reveal && value != "" {
				value = redactedValue
			}
			out.Env[name] = value
		}
	}
	return out
}

func validationReportEntry(report resolution.Report) apihttp.ValidationReport {
	out := apihttp.ValidationReport{
		ConsumerID: report.ConsumerID,
		Status:     string(report.Status),
	}
	for _, finding := range report.Findings {
		out.Findings = append(out.Findings, apihttp.ValidationFinding{
			Severity:   string(finding.Severity),
			Capability: finding.Capability,
			Field:      finding.Field,
			Message:    finding.Message,
		})
	}
	return out
}

func orphanEntry(orphan wiring.Orphan) apihttp.OrphanEntry {
	return apihttp.OrphanEntry{
		Edge:   wiringEdgeEntry(orphan.Edge),
		Reason: orphan.Reason,
	}
}
