// Package settings resolves indirect field values against the settings
// store. The store is injected rather than reached through a global so
// tests and the read-only CLI path can swap it out.
package settings

import (
	"context"
	"time"

	"github.com/patchbay-sh/patchbay/internal/catalog"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
)

// Store is the slice of the settings store the resolver needs.
type Store interface {
	GetSetting(ctx context.Context, path string) (string, bool, error)
	SaveSetting(ctx context.Context, write configstore.SettingWrite) error
}

// DefaultLookupTimeout bounds a single settings lookup.
const DefaultLookupTimeout = 5 * time.Second

// Resolved is the outcome of resolving one field value. Resolved=false
// means the field degraded to empty: a missing reference path or an
// unreachable store. Err is set only for the latter.
type Resolved struct {
	Value    string
	Resolved bool
	Err      error
}

// Resolver turns FieldValues into concrete strings.
type Resolver struct {
	store   Store
	timeout time.Duration
}

type Option func(*Resolver)

// WithLookupTimeout overrides the per-lookup timeout.
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{store: store, timeout: DefaultLookupTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve produces the concrete value for one field, applying the
// precedence explicit override > mapped setting path > template default.
// An explicit reference whose path is absent resolves to empty with
// Resolved=false, which is a normal "unconfigured" state rather than an
// error; a store failure also degrades to empty but carries the
// underlying error. A mapped path that is absent falls through to the
// template default instead.
func (r *Resolver) Resolve(ctx context.Context, field catalog.Field, fv configstore.FieldValue, hasOverride bool) Resolved {
	if !hasOverride || fv.Source == configstore.FieldSourceDefault {
		if field.SettingPath != "" {
			mapped := r.lookup(ctx, field, field.SettingPath)
			if mapped.Err != nil || mapped.Resolved {
				return mapped
			}
		}
		return Resolved{Value: field.Default, Resolved: field.Default != "" || !field.Required}
	}

	switch fv.Source {
	case configstore.FieldSourceLiteral:
		return Resolved{Value: fv.Value, Resolved: fv.Value != "" || !field.Required}
	case configstore.FieldSourceSetting:
		return r.lookup(ctx, field, fv.Path)
	default:
		return Resolved{Err: configstore.Validationf("unknown field value source %q", fv.Source)}
	}
}

func (r *Resolver) lookup(ctx context.Context, field catalog.Field, path string) Resolved {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	value, ok, err := r.store.GetSetting(ctx, path)
	if err != nil {
		return Resolved{Err: configstore.ExternalResolutionError{Collaborator: "settings store", Err: err}}
	}
	if !ok {
		return Resolved{}
	}
	return Resolved{Value: value, Resolved: value != "" || !field.Required}
}

// WriteAndReference promotes a literal into the shared store and returns
// the reference to put on the owning instance. Callers mutating an
// instance in the same breath should instead pass the write through the
// store's transactional instance APIs; this standalone form serves flows
// that only touch settings.
func (r *Resolver) WriteAndReference(ctx context.Context, path, value string, secret bool) (configstore.FieldValue, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.store.SaveSetting(ctx, configstore.SettingWrite{Path: path, Value: value, Secret: secret})
	if err != nil {
		return configstore.FieldValue{}, configstore.ExternalResolutionError{Collaborator: "settings store", Err: err}
	}
	return configstore.SettingReference(path), nil
}
