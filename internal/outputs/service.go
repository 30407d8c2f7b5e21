// Package outputs maintains the dataflow graph between deployed
// instances: one instance's produced value (access URL, env var,
// capability value) feeding another instance's input environment
// variable. The edge set must stay acyclic.
package outputs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/patchbay-sh/patchbay/internal/catalog"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/deploy"
	"github.com/patchbay-sh/patchbay/internal/eventbus"
	"github.com/patchbay-sh/patchbay/internal/validate"
)

const (
	statusCacheSize = 128
	statusCacheTTL  = 5 * time.Second
)

// ResolvedInput is one inbound wire's value at resolution time. Pending
// means the source is not running yet or does not expose the output key.
// Err carries a deployment service failure; the value stays pending.
type ResolvedInput struct {
	EnvVar           string
	Value            string
	Pending          bool
	Required         bool
	SourceInstanceID string
	SourceOutputKey  string
	Err              error
}

// Service owns output wire mutations and on-demand resolution.
type Service struct {
	store    *configstore.Store
	catalog  *catalog.Catalog
	deployer deploy.Service
	bus      *eventbus.Bus

	// graphMu serializes cycle checks with commits so two concurrent
	// connects cannot jointly introduce a cycle neither sees alone.
	graphMu sync.Mutex

	statusCache *lru.LRU[string, deploy.Status]
}

func New(store *configstore.Store, cat *catalog.Catalog, deployer deploy.Service, bus *eventbus.Bus) *Service {
	return &Service{
		store:       store,
		catalog:     cat,
		deployer:    deployer,
		bus:         bus,
		statusCache: lru.NewLRU[string, deploy.Status](statusCacheSize, nil, statusCacheTTL),
	}
}

// Connect wires a source output to a target env var. The target template
// must declare the env var as an input, the env var must not already be
// wired, and the resulting graph must stay acyclic. The cycle check and
// the commit run under one lock over a consistent edge snapshot.
func (s *Service) Connect(ctx context.Context, sourceInstanceID, outputKey, targetInstanceID, targetEnvVar string) (configstore.OutputWire, error) {
	if !deploy.ValidOutputKey(outputKey) {
		return configstore.OutputWire{}, configstore.Validationf("invalid output key %q", outputKey)
	}
	if !validate.EnvVar(targetEnvVar) {
		return configstore.OutputWire{}, configstore.Validationf("invalid environment variable name %q", targetEnvVar)
	}
	if sourceInstanceID == targetInstanceID {
		return configstore.OutputWire{}, configstore.Conflictf("instance %s cannot feed its own inputs", sourceInstanceID)
	}

	target, err := s.store.GetInstance(ctx, targetInstanceID)
	if err != nil {
		return configstore.OutputWire{}, err
	}
	targetTmpl, ok := s.catalog.Get(target.TemplateID)
	if !ok {
		return configstore.OutputWire{}, configstore.NotFoundError{Entity: "template", Key: target.TemplateID}
	}
	if _, ok := targetTmpl.FieldByEnvVar(targetEnvVar); !ok {
		return configstore.OutputWire{}, configstore.Validationf("instance %q (template %s) has no input %q",
			target.Name, targetTmpl.ID, targetEnvVar)
	}
	if _, err := s.store.GetInstance(ctx, sourceInstanceID); err != nil {
		return configstore.OutputWire{}, err
	}

	wire := configstore.OutputWire{
		ID:               uuid.NewString(),
		SourceInstanceID: sourceInstanceID,
		SourceOutputKey:  outputKey,
		TargetInstanceID: targetInstanceID,
		TargetEnvVar:     targetEnvVar,
	}

	s.graphMu.Lock()
	defer s.graphMu.Unlock()

	existing, err := s.store.ListOutputWires(ctx)
	if err != nil {
		return configstore.OutputWire{}, err
	}
	if wouldCycle(existing, wire) {
		return configstore.OutputWire{}, configstore.Conflictf(
			"wiring %s -> %s would create a cycle", sourceInstanceID, targetInstanceID)
	}
	if err := s.store.InsertOutputWire(ctx, wire); err != nil {
		return configstore.OutputWire{}, err
	}

	s.publish(ctx, eventbus.ActionConnected, wire)
	return s.store.GetOutputWire(ctx, wire.ID)
}

// Disconnect removes a wire by id.
func (s *Service) Disconnect(ctx context.Context, wireID string) error {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()

	wire, err := s.store.GetOutputWire(ctx, wireID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteOutputWire(ctx, wireID); err != nil {
		return err
	}
	s.publish(ctx, eventbus.ActionDisconnected, wire)
	return nil
}

// List returns every wire in the graph.
func (s *Service) List(ctx context.Context) ([]configstore.OutputWire, error) {
	return s.store.ListOutputWires(ctx)
}

// InboundWires returns the wires feeding one instance.
func (s *Service) InboundWires(ctx context.Context, targetInstanceID string) ([]configstore.OutputWire, error) {
	return s.store.ListOutputWiresForTarget(ctx, targetInstanceID)
}

// ResolveAt evaluates every inbound wire of the target against live
// deployment state. Sources that are not running or lack the output key
// yield Pending values; a deployment service failure degrades that
// wire to Pending with the error attached instead of failing the whole
// resolution. Statuses are cached briefly so resolving many wires from
// the same source costs one upstream call.
func (s *Service) ResolveAt(ctx context.Context, targetInstanceID string) ([]ResolvedInput, error) {
	target, err := s.store.GetInstance(ctx, targetInstanceID)
	if err != nil {
		return nil, err
	}
	targetTmpl, _ := s.catalog.Get(target.TemplateID)

	wires, err := s.store.ListOutputWiresForTarget(ctx, targetInstanceID)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedInput, 0, len(wires))
	for _, wire := range wires {
		input := ResolvedInput{
			EnvVar:           wire.TargetEnvVar,
			Pending:          true,
			SourceInstanceID: wire.SourceInstanceID,
			SourceOutputKey:  wire.SourceOutputKey,
		}
		if field, ok := targetTmpl.FieldByEnvVar(wire.TargetEnvVar); ok {
			input.Required = field.Required
		}

		status, err := s.sourceStatus(ctx, wire.SourceInstanceID)
		switch {
		case err != nil:
			input.Err = err
		case status.Running():
			if value, ok := status.Outputs.Lookup(wire.SourceOutputKey); ok {
				input.Value = value
				input.Pending = false
			}
		}
		resolved = append(resolved, input)
	}
	return resolved, nil
}

func (s *Service) sourceStatus(ctx context.Context, instanceID string) (deploy.Status, error) {
	if status, ok := s.statusCache.Get(instanceID); ok {
		return status, nil
	}
	status, err := s.deployer.Status(ctx, instanceID)
	if err != nil {
		return deploy.Status{}, err
	}
	s.statusCache.Add(instanceID, status)
	return status, nil
}

// InvalidateStatus drops the cached deployment status for an instance.
func (s *Service) InvalidateStatus(instanceID string) {
	s.statusCache.Remove(instanceID)
}

// wouldCycle reports whether adding candidate to the edge set closes a
// cycle: true when the candidate's source is already reachable from its
// target by following source -> target edges.
func wouldCycle(edges []configstore.OutputWire, candidate configstore.OutputWire) bool {
	next := make(map[string][]string, len(edges))
	for _, e := range edges {
		next[e.SourceInstanceID] = append(next[e.SourceInstanceID], e.TargetInstanceID)
	}

	seen := map[string]bool{}
	stack := []string{candidate.TargetInstanceID}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == candidate.SourceInstanceID {
			return true
		}
		if seen[node] {
			continue
		}
		seen[node] = true
		stack = append(stack, next[node]...)
	}
	return false
}

func (s *Service) publish(ctx context.Context, action string, wire configstore.OutputWire) {
	s.bus.Publish(ctx, eventbus.Envelope{
		Topic:  eventbus.TopicOutputsChanged,
		Source: eventbus.SourceOutputs,
		Payload: eventbus.OutputWireEvent{
			Action:           action,
			WireID:           wire.ID,
			SourceInstanceID: wire.SourceInstanceID,
			TargetInstanceID: wire.TargetInstanceID,
			TargetEnvVar:     wire.TargetEnvVar,
		},
	})
}
