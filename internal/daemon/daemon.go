// Package daemon assembles the engine services and runs them behind the
// HTTP API until shutdown.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/patchbay-sh/patchbay/internal/capability"
	"github.com/patchbay-sh/patchbay/internal/catalog"
	"github.com/patchbay-sh/patchbay/internal/config"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/deploy"
	"github.com/patchbay-sh/patchbay/internal/eventbus"
	"github.com/patchbay-sh/patchbay/internal/instances"
	"github.com/patchbay-sh/patchbay/internal/observability"
	"github.com/patchbay-sh/patchbay/internal/outputs"
	"github.com/patchbay-sh/patchbay/internal/resolution"
	"github.com/patchbay-sh/patchbay/internal/server"
	"github.com/patchbay-sh/patchbay/internal/settings"
	"github.com/patchbay-sh/patchbay/internal/wiring"
)

const (
	// storeQueryTimeout bounds context deadlines for store lookups made
	// outside a request, such as metrics snapshots.
	storeQueryTimeout = 5 * time.Second

	// shutdownTimeout bounds draining of in-flight API requests.
	shutdownTimeout = 5 * time.Second
)

// Options configures a daemon instance.
type Options struct {
	Binding string // API listen address, defaults to 127.0.0.1
	Port    int    // 0 picks an ephemeral port
	Token   string // optional bearer token for the API

	// DeploymentURL points at the deployment service consulted for live
	// instance outputs. Empty leaves every instance undeployed.
	DeploymentURL   string
	DeploymentToken string
}

// Daemon owns the engine store, the service graph, and the API server.
type Daemon struct {
	opts      Options
	paths     config.Paths
	store     *configstore.Store
	bus       *eventbus.Bus
	apiServer *server.APIServer
	lifecycle *Lifecycle

	errMu  sync.Mutex
	runErr error
}

// New loads the catalog, opens the engine store, and wires the service
// graph. The daemon does not listen until Start.
func New(opts Options) (*Daemon, error) {
	paths, err := config.EnsureDirs()
	if err != nil {
		return nil, fmt.Errorf("daemon: prepare state directories: %w", err)
	}

	store, err := configstore.Open(configstore.Options{DBPath: paths.EngineDB})
	if err != nil {
		return nil, fmt.Errorf("daemon: open engine store: %w", err)
	}

	registry := capability.NewRegistry()
	discovered, err := catalog.DiscoverManifests(paths.TemplatesDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("daemon: discover template manifests: %w", err)
	}
	cat, err := catalog.Load(registry, catalog.MergeManifests(catalog.Builtin(), discovered))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("daemon: load catalog: %w", err)
	}
	log.Printf("[Daemon] catalog loaded: %d templates (%d from manifests)", len(cat.List()), len(discovered))

	bus := eventbus.New()

	var deployer deploy.Service
	if opts.DeploymentURL != "" {
		deployer = deploy.NewHTTPClient(opts.DeploymentURL, opts.DeploymentToken, nil)
		log.Printf("[Daemon] deployment service: %s", opts.DeploymentURL)
	} else {
		deployer = deploy.NewFake()
	}

	instancesSvc := instances.New(store, cat, bus)
	wiringSvc := wiring.New(store, cat, bus)
	outputsSvc := outputs.New(store, cat, deployer, bus)
	resolutionSvc := resolution.New(cat, store, wiringSvc, settings.NewResolver(store), outputsSvc)

	counter := observability.NewEventCounter()
	bus.AddObserver(counter)
	exporter := observability.NewPrometheusExporter(counter)
	exporter.WithGraphStats(graphStatsProvider(store, cat, wiringSvc))

	apiServer := server.New(registry, cat, store, instancesSvc, wiringSvc, outputsSvc, resolutionSvc, bus, exporter, server.Options{
		Binding: opts.Binding,
		Port:    opts.Port,
		Token:   opts.Token,
		Home:    paths.Home,
	})

	d := &Daemon{
		opts:      opts,
		paths:     paths,
		store:     store,
		bus:       bus,
		apiServer: apiServer,
		lifecycle: NewLifecycle(),
	}
	apiServer.SetShutdownFunc(d.Shutdown)
	return d, nil
}

func graphStatsProvider(store *configstore.Store, cat *catalog.Catalog, wiringSvc *wiring.Service) func() observability.GraphStatsSnapshot {
	return func() observability.GraphStatsSnapshot {
		ctx, cancel := context.WithTimeout(context.Background(), storeQueryTimeout)
		defer cancel()

		snapshot := observability.GraphStatsSnapshot{Templates: len(cat.List())}
		if insts, err := store.ListInstances(ctx); err == nil {
			snapshot.Instances = len(insts)
		}
		if edges, err := store.ListWiringEdges(ctx); err == nil {
			snapshot.WiringEdges = len(edges)
		}
		if orphans, err := wiringSvc.DetectOrphans(ctx); err == nil {
			snapshot.WiringOrphans = len(orphans)
		}
		if wires, err := store.ListOutputWires(ctx); err == nil {
			snapshot.OutputWires = len(wires)
		}
		return snapshot
	}
}

// Start binds the API listener and blocks until Shutdown is called.
func (d *Daemon) Start() error {
	if err := writePIDFile(d.paths.Lock, os.Getpid()); err != nil {
		return err
	}
	defer removePIDFile(d.paths.Lock)

	if err := d.apiServer.Start(); err != nil {
		return err
	}
	if err := d.writeRuntimeFile(); err != nil {
		log.Printf("[Daemon] write runtime file: %v", err)
	}
	defer os.Remove(d.paths.Runtime)

	<-d.lifecycle.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.apiServer.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		d.setRunError(fmt.Errorf("daemon: api shutdown: %w", err))
	}

	d.bus.Shutdown()
	if err := d.store.Close(); err != nil {
		d.setRunError(fmt.Errorf("daemon: close store: %w", err))
	}
	return d.getRunError()
}

// Shutdown signals the daemon to stop. It is safe to call more than once
// and from any goroutine.
func (d *Daemon) Shutdown() {
	d.lifecycle.Shutdown()
}

// Port returns the bound API port, valid once Start has run.
func (d *Daemon) Port() int {
	return d.apiServer.Port()
}

// writeRuntimeFile records the bound address for client discovery.
func (d *Daemon) writeRuntimeFile() error {
	binding := d.opts.Binding
	if binding == "" {
		binding = "127.0.0.1"
	}
	info := struct {
		PID       int    `json:"pid"`
		Binding   string `json:"binding"`
		Port      int    `json:"port"`
		StartedAt string `json:"started_at"`
	}{
		PID:       os.Getpid(),
		Binding:   binding,
		Port:      d.apiServer.Port(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(d.paths.Runtime, raw, 0o600)
}

func (d *Daemon) setRunError(err error) {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	if d.runErr == nil {
		d.runErr = err
	}
}

func (d *Daemon) getRunError() error {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.runErr
}
