// Package wiring maintains the capability graph: the assignment of a
// provider (template or saved instance) to each capability a consumer
// requires. At most one edge exists per slot; re-connecting overwrites.
package wiring

import (
	"context"

	"github.com/patchbay-sh/patchbay/internal/catalog"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/eventbus"
	"github.com/patchbay-sh/patchbay/internal/util/locks"
)

// ProviderState classifies the outcome of resolving one capability slot.
type ProviderState string

const (
	// StateWired means an explicit edge points at a live provider.
	StateWired ProviderState = "wired"
	// StateDefault means no edge exists but exactly one template provides
	// the capability and serves as the implicit default.
	StateDefault ProviderState = "default"
	// StateOrphaned means an edge exists but its provider is gone. The
	// edge is kept so the operator can see and repair it.
	StateOrphaned ProviderState = "orphaned"
	// StateUnresolved means no edge exists and no implicit default applies.
	StateUnresolved ProviderState = "unresolved"
)

// Resolution is the answer to "what provides this capability for this
// consumer right now". Provider is set for wired, default, and orphaned
// states; for orphaned it carries the stale reference.
type Resolution struct {
	State    ProviderState
	Provider configstore.ProviderRef
}

// Orphan is one wiring edge whose referenced provider no longer exists.
type Orphan struct {
	Edge   configstore.WiringEdge
	Reason string
}

// Service owns wiring graph mutations and resolution. Slot mutations are
// serialized per (consumer, capability) so a connect and a disconnect
// racing on the same slot cannot interleave their validate and commit
// steps.
type Service struct {
	store   *configstore.Store
	catalog *catalog.Catalog
	bus     *eventbus.Bus
	locks   *locks.KeyedMutex
}

func New(store *configstore.Store, cat *catalog.Catalog, bus *eventbus.Bus) *Service {
	return &Service{store: store, catalog: cat, bus: bus, locks: locks.NewKeyedMutex()}
}

func slotKey(consumerID, capability string) string {
	return consumerID + "\x00" + capability
}

// Connect assigns a provider to the consumer's capability slot,
// overwriting any previous assignment. Validation reads happen before the
// slot lock is taken; the store re-checks instance existence inside the
// commit transaction, so a connect racing an instance delete fails with
// NotFoundError rather than committing a torn edge.
func (s *Service) Connect(ctx context.Context, consumerID, capability string, provider configstore.ProviderRef) error {
	if err := provider.Validate(); err != nil {
		return err
	}

	consumer, err := s.store.GetInstance(ctx, consumerID)
	if err != nil {
		return err
	}
	consumerTmpl, ok := s.catalog.Get(consumer.TemplateID)
	if !ok {
		return configstore.NotFoundError{Entity: "template", Key: consumer.TemplateID}
	}
	if !consumerTmpl.RequiresCapability(capability) {
		return configstore.Validationf("instance %q (template %s) does not require capability %q",
			consumer.Name, consumerTmpl.ID, capability)
	}

	provides, err := s.providedCapability(ctx, provider)
	if err != nil {
		return err
	}
	if provides != capability {
		return configstore.Validationf("provider %s provides %q, not %q", provider, provides, capability)
	}

	unlock := s.locks.Lock(slotKey(consumerID, capability))
	defer unlock()

	if err := s.store.UpsertWiringEdge(ctx, configstore.WiringEdge{
		ConsumerID: consumerID,
		Capability: capability,
		Provider:   provider,
	}); err != nil {
		return err
	}

	s.publish(ctx, eventbus.ActionConnected, consumerID, capability, provider)
	return nil
}

// Disconnect clears the slot. Clearing an empty slot is a no-op.
func (s *Service) Disconnect(ctx context.Context, consumerID, capability string) error {
	unlock := s.locks.Lock(slotKey(consumerID, capability))
	defer unlock()

	deleted, err := s.store.DeleteWiringEdge(ctx, consumerID, capability)
	if err != nil {
		return err
	}
	if deleted {
		s.publish(ctx, eventbus.ActionDisconnected, consumerID, capability, configstore.ProviderRef{})
	}
	return nil
}

// ResolveProvider returns the provider for a slot: the explicit edge when
// present and live, the stale edge marked orphaned when its provider is
// gone, the sole providing template as an implicit default when no edge
// exists, and unresolved otherwise. Absence of an edge is a normal state.
func (s *Service) ResolveProvider(ctx context.Context, consumerID, capability string) (Resolution, error) {
	edge, err := s.store.GetWiringEdge(ctx, consumerID, capability)
	switch {
	case err == nil:
		live, err := s.providerExists(ctx, edge.Provider)
		if err != nil {
			return Resolution{}, err
		}
		if !live {
			return Resolution{State: StateOrphaned, Provider: edge.Provider}, nil
		}
		return Resolution{State: StateWired, Provider: edge.Provider}, nil
	case configstore.IsNotFound(err):
		if tmpl, ok := s.catalog.DefaultProviderFor(capability); ok {
			return Resolution{State: StateDefault, Provider: configstore.TemplateRef(tmpl.ID)}, nil
		}
		return Resolution{State: StateUnresolved}, nil
	default:
		return Resolution{}, err
	}
}

// DetectOrphans scans every edge for dead references: a deleted provider
// instance, a template removed from the catalog, or a deleted consumer.
// Orphans are reported, never removed.
func (s *Service) DetectOrphans(ctx context.Context) ([]Orphan, error) {
	edges, err := s.store.ListWiringEdges(ctx)
	if err != nil {
		return nil, err
	}

	var orphans []Orphan
	for _, edge := range edges {
		if live, err := s.providerExists(ctx, edge.Provider); err != nil {
			return nil, err
		} else if !live {
			orphans = append(orphans, Orphan{Edge: edge, Reason: "provider " + edge.Provider.String() + " no longer exists"})
			continue
		}
		if exists, err := s.store.InstanceExists(ctx, edge.ConsumerID); err != nil {
			return nil, err
		} else if !exists {
			orphans = append(orphans, Orphan{Edge: edge, Reason: "consumer instance " + edge.ConsumerID + " no longer exists"})
		}
	}
	return orphans, nil
}

// Edges returns the consumer's explicit edges.
func (s *Service) Edges(ctx context.Context, consumerID string) ([]configstore.WiringEdge, error) {
	return s.store.ListWiringEdgesForConsumer(ctx, consumerID)
}

// AllEdges returns every edge in the graph.
func (s *Service) AllEdges(ctx context.Context) ([]configstore.WiringEdge, error) {
	return s.store.ListWiringEdges(ctx)
}

// providedCapability resolves what capability the referenced provider
// offers, failing with NotFoundError when the provider does not exist.
func (s *Service) providedCapability(ctx context.Context, ref configstore.ProviderRef) (string, error) {
	switch ref.Kind {
	case configstore.ProviderTemplate:
		tmpl, ok := s.catalog.Get(ref.ID)
		if !ok {
			return "", configstore.NotFoundError{Entity: "template", Key: ref.ID}
		}
		return tmpl.Provides, nil
	case configstore.ProviderInstance:
		inst, err := s.store.GetInstance(ctx, ref.ID)
		if err != nil {
			return "", err
		}
		tmpl, ok := s.catalog.Get(inst.TemplateID)
		if !ok {
			return "", configstore.NotFoundError{Entity: "template", Key: inst.TemplateID}
		}
		return tmpl.Provides, nil
	default:
		return "", configstore.Validationf("unknown provider kind %q", ref.Kind)
	}
}

func (s *Service) providerExists(ctx context.Context, ref configstore.ProviderRef) (bool, error) {
	switch ref.Kind {
	case configstore.ProviderTemplate:
		_, ok := s.catalog.Get(ref.ID)
		return ok, nil
	case configstore.ProviderInstance:
		return s.store.InstanceExists(ctx, ref.ID)
	default:
		return false, nil
	}
}

func (s *Service) publish(ctx context.Context, action, consumerID, capability string, provider configstore.ProviderRef) {
	s.bus.Publish(ctx, eventbus.Envelope{
		Topic:  eventbus.TopicWiringChanged,
		Source: eventbus.SourceWiring,
		Payload: eventbus.WiringEvent{
			Action:       action,
			ConsumerID:   consumerID,
			Capability:   capability,
			ProviderKind: string(provider.Kind),
			ProviderID:   provider.ID,
		},
	})
}
