// Package instances provides the lifecycle service for saved provider
// configurations. It validates field inputs against the owning template's
// schema, promotes newly entered secrets into the settings store, and
// publishes change events for every mutation.
package instances

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/patchbay-sh/patchbay/internal/catalog"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/eventbus"
	"github.com/patchbay-sh/patchbay/internal/util/locks"
	maputil "github.com/patchbay-sh/patchbay/internal/util/maps"
	"github.com/patchbay-sh/patchbay/internal/validate"
)

// FieldInputSource selects how a caller supplies a field value.
type FieldInputSource string

const (
	// InputDefault resets the field to the template default.
	InputDefault FieldInputSource = "default"
	// InputLiteral stores the value inline on the instance.
	InputLiteral FieldInputSource = "literal"
	// InputSetting references an existing settings-store path.
	InputSetting FieldInputSource = "setting"
	// InputNewSetting writes the value to the settings store and stores
	// a reference to it. The write and the instance mutation commit in
	// the same transaction.
	InputNewSetting FieldInputSource = "new_setting"
)

// FieldInput is one caller-supplied field assignment.
type FieldInput struct {
	Source FieldInputSource `json:"source"`
	Value  string           `json:"value,omitempty"`
	Path   string           `json:"path,omitempty"`
}

// CreateParams describes a new instance.
type CreateParams struct {
	TemplateID string
	Name       string
	Fields     map[string]FieldInput
}

// UpdateParams is a partial patch. Nil Name leaves the name unchanged;
// fields absent from Fields retain their prior values.
type UpdateParams struct {
	Name   *string
	Fields map[string]FieldInput
}

// Service manages instance CRUD on top of the config store. Mutations of
// an existing instance are serialized per instance id: a partial patch
// reads the prior field map before merging, and two unserialized patches
// could both read the same prior state and the later commit would erase
// the earlier one.
type Service struct {
	store   *configstore.Store
	catalog *catalog.Catalog
	bus     *eventbus.Bus
	locks   *locks.KeyedMutex
}

func New(store *configstore.Store, cat *catalog.Catalog, bus *eventbus.Bus) *Service {
	return &Service{store: store, catalog: cat, bus: bus, locks: locks.NewKeyedMutex()}
}

// Create validates params against the template schema and persists a new
// instance. Secret promotions requested via InputNewSetting commit
// atomically with the instance row.
func (s *Service) Create(ctx context.Context, params CreateParams) (configstore.Instance, error) {
	tmpl, ok := s.catalog.Get(params.TemplateID)
	if !ok {
		return configstore.Instance{}, configstore.NotFoundError{Entity: "template", Key: params.TemplateID}
	}
	if !validate.Ident(params.Name) {
		return configstore.Instance{}, configstore.Validationf("invalid instance name %q", params.Name)
	}

	fieldValues, writes, err := buildFieldValues(tmpl, nil, params.Fields)
	if err != nil {
		return configstore.Instance{}, err
	}
	if err := checkRequired(tmpl, fieldValues); err != nil {
		return configstore.Instance{}, err
	}

	inst := configstore.Instance{
		ID:          uuid.NewString(),
		TemplateID:  tmpl.ID,
		Name:        params.Name,
		FieldValues: fieldValues,
	}
	if err := s.store.InsertInstance(ctx, inst, writes); err != nil {
		return configstore.Instance{}, err
	}
	inst, err = s.store.GetInstance(ctx, inst.ID)
	if err != nil {
		return configstore.Instance{}, err
	}

	s.publish(ctx, eventbus.ActionCreated, inst)
	return inst, nil
}

// Update applies a partial patch. A field patched with InputDefault drops
// its override; unspecified fields keep their prior values. The per-id
// lock covers the read-merge-write so concurrent patches to different
// fields both survive.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (configstore.Instance, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	inst, err := s.store.GetInstance(ctx, id)
	if err != nil {
		return configstore.Instance{}, err
	}
	tmpl, ok := s.catalog.Get(inst.TemplateID)
	if !ok {
		return configstore.Instance{}, configstore.NotFoundError{Entity: "template", Key: inst.TemplateID}
	}

	if params.Name != nil {
		if !validate.Ident(*params.Name) {
			return configstore.Instance{}, configstore.Validationf("invalid instance name %q", *params.Name)
		}
		inst.Name = *params.Name
	}

	fieldValues, writes, err := buildFieldValues(tmpl, inst.FieldValues, params.Fields)
	if err != nil {
		return configstore.Instance{}, err
	}
	if err := checkRequired(tmpl, fieldValues); err != nil {
		return configstore.Instance{}, err
	}
	inst.FieldValues = fieldValues

	if err := s.store.UpdateInstance(ctx, id, params.Name, fieldValues, writes); err != nil {
		return configstore.Instance{}, err
	}
	inst, err = s.store.GetInstance(ctx, id)
	if err != nil {
		return configstore.Instance{}, err
	}

	s.publish(ctx, eventbus.ActionUpdated, inst)
	return inst, nil
}

// Delete removes the instance row only. Wiring edges and output wires
// that reference it stay in place and surface as orphaned until the
// operator repairs or clears them.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	inst, err := s.store.GetInstance(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteInstance(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, eventbus.ActionDeleted, inst)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (configstore.Instance, error) {
	return s.store.GetInstance(ctx, id)
}

func (s *Service) GetByName(ctx context.Context, name string) (configstore.Instance, error) {
	return s.store.GetInstanceByName(ctx, name)
}

func (s *Service) List(ctx context.Context) ([]configstore.Instance, error) {
	return s.store.ListInstances(ctx)
}

func (s *Service) publish(ctx context.Context, action string, inst configstore.Instance) {
	s.bus.Publish(ctx, eventbus.Envelope{
		Topic:  eventbus.TopicInstancesChanged,
		Source: eventbus.SourceInstances,
		Payload: eventbus.InstanceEvent{
			Action:     action,
			InstanceID: inst.ID,
			TemplateID: inst.TemplateID,
			Name:       inst.Name,
		},
	})
}

// buildFieldValues merges inputs over prior values and collects the
// settings writes implied by InputNewSetting fields. prior may be nil on
// create.
func buildFieldValues(tmpl catalog.Template, prior map[string]configstore.FieldValue, inputs map[string]FieldInput) (map[string]configstore.FieldValue, []configstore.SettingWrite, error) {
	merged := maputil.Clone(prior)
	if merged == nil {
		merged = make(map[string]configstore.FieldValue, len(inputs))
	}

	var writes []configstore.SettingWrite
	for key, input := range inputs {
		field, ok := tmpl.FieldByKey(key)
		if !ok {
			return nil, nil, configstore.Validationf("template %q has no field %q", tmpl.ID, key)
		}
		switch input.Source {
		case InputDefault:
			delete(merged, key)
		case InputLiteral:
			merged[key] = configstore.LiteralValue(input.Value)
		case InputSetting:
			if err := validate.SettingPath(input.Path); err != nil {
				return nil, nil, configstore.Validationf("field %q: %v", key, err)
			}
			merged[key] = configstore.SettingReference(input.Path)
		case InputNewSetting:
			if err := validate.SettingPath(input.Path); err != nil {
				return nil, nil, configstore.Validationf("field %q: %v", key, err)
			}
			writes = append(writes, configstore.SettingWrite{
				Path:   input.Path,
				Value:  input.Value,
				Secret: field.Secret,
			})
			merged[key] = configstore.SettingReference(input.Path)
		default:
			return nil, nil, configstore.Validationf("field %q: unknown input source %q", key, input.Source)
		}
	}
	return merged, writes, nil
}

// checkRequired rejects instances whose required fields have neither an
// override nor a template default.
func checkRequired(tmpl catalog.Template, fieldValues map[string]configstore.FieldValue) error {
	for _, field := range tmpl.Schema {
		if !field.Required {
			continue
		}
		if fv, ok := fieldValues[field.Key]; ok {
			switch fv.Source {
			case configstore.FieldSourceLiteral:
				if fv.Value != "" {
					continue
				}
			case configstore.FieldSourceSetting:
				// References are accepted as configured even when the
				// path resolves empty later; validate() reports that.
				continue
			}
		} else if field.Default != "" || field.SettingPath != "" {
			// A mapped setting path may satisfy the field at resolution
			// time; validate() reports it when the path turns out empty.
			continue
		}
		return configstore.Validationf("required field %q has no value and no default", field.Key)
	}
	return nil
}

// Describe returns a printable one-line summary used by CLI listings.
func Describe(inst configstore.Instance) string {
	return fmt.Sprintf("%s (%s, template %s)", inst.Name, inst.ID, inst.TemplateID)
}
