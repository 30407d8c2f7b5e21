package outputs

import (
	"context"
	"errors"
	"testing"

	"github.com/patchbay-sh/patchbay/internal/capability"
	"github.com/patchbay-sh/patchbay/internal/catalog"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/deploy"
	"github.com/patchbay-sh/patchbay/internal/eventbus"
	"github.com/patchbay-sh/patchbay/internal/testutil"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	templates := []catalog.Template{
		{ID: "postgres", Provides: "storage", Schema: []catalog.Field{
			{Key: "password", Secret: true},
		}},
		{ID: "chronicle", Requires: []string{"storage"}, Schema: []catalog.Field{
			{Key: "database_url", Required: true, EnvVar: "DATABASE_URL"},
			{Key: "log_level", Default: "info", EnvVar: "LOG_LEVEL"},
		}},
		{ID: "relay", Schema: []catalog.Field{
			{Key: "peer_url", EnvVar: "PEER_URL"},
		}},
	}
	cat, err := catalog.Load(capability.NewRegistry(), templates)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func newTestService(t *testing.T) (*Service, *configstore.Store, *deploy.Fake) {
	t.Helper()
	store, cleanup := testutil.OpenStore(t)
	t.Cleanup(cleanup)
	bus := eventbus.New()
	t.Cleanup(bus.Shutdown)
	fake := deploy.NewFake()
	return New(store, testCatalog(t), fake, bus), store, fake
}

func seedInstance(t *testing.T, store *configstore.Store, id, templateID string) {
	t.Helper()
	err := store.InsertInstance(context.Background(), configstore.Instance{
		ID: id, TemplateID: templateID, Name: id,
	}, nil)
	if err != nil {
		t.Fatalf("seed instance %s: %v", id, err)
	}
}

func TestConnectAndList(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedInstance(t, store, "pg-main", "postgres")
	seedInstance(t, store, "chronicle-main", "chronicle")

	wire, err := svc.Connect(ctx, "pg-main", "access_url", "chronicle-main", "DATABASE_URL")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if wire.ID == "" || wire.CreatedAt == "" {
		t.Errorf("wire = %+v", wire)
	}

	inbound, err := svc.InboundWires(ctx, "chronicle-main")
	if err != nil {
		t.Fatalf("inbound: %v", err)
	}
	if len(inbound) != 1 || inbound[0].SourceOutputKey != "access_url" {
		t.Errorf("inbound = %+v", inbound)
	}
}

func TestConnectValidation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedInstance(t, store, "pg-main", "postgres")
	seedInstance(t, store, "chronicle-main", "chronicle")

	if _, err := svc.Connect(ctx, "pg-main", "bogus_key", "chronicle-main", "DATABASE_URL"); !configstore.IsValidation(err) {
		t.Errorf("bad output key: err = %v, want validation", err)
	}
	if _, err := svc.Connect(ctx, "pg-main", "access_url", "chronicle-main", "NOT_DECLARED"); !configstore.IsValidation(err) {
		t.Errorf("undeclared env var: err = %v, want validation", err)
	}
	if _, err := svc.Connect(ctx, "pg-main", "access_url", "ghost", "DATABASE_URL"); !configstore.IsNotFound(err) {
		t.Errorf("unknown target: err = %v, want not-found", err)
	}
	if _, err := svc.Connect(ctx, "ghost", "access_url", "chronicle-main", "DATABASE_URL"); !configstore.IsNotFound(err) {
		t.Errorf("unknown source: err = %v, want not-found", err)
	}
}

func TestConnectRejectsDoubleWiredEnvVar(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedInstance(t, store, "pg-main", "postgres")
	seedInstance(t, store, "pg-replica", "postgres")
	seedInstance(t, store, "chronicle-main", "chronicle")

	if _, err := svc.Connect(ctx, "pg-main", "access_url", "chronicle-main", "DATABASE_URL"); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	_, err := svc.Connect(ctx, "pg-replica", "access_url", "chronicle-main", "DATABASE_URL")
	if !configstore.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestConnectRejectsCycle(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedInstance(t, store, "relay-a", "relay")
	seedInstance(t, store, "relay-b", "relay")
	seedInstance(t, store, "relay-c", "relay")

	if _, err := svc.Connect(ctx, "relay-a", "access_url", "relay-b", "PEER_URL"); err != nil {
		t.Fatalf("a->b: %v", err)
	}
	if _, err := svc.Connect(ctx, "relay-b", "access_url", "relay-c", "PEER_URL"); err != nil {
		t.Fatalf("b->c: %v", err)
	}

	_, err := svc.Connect(ctx, "relay-c", "access_url", "relay-a", "PEER_URL")
	if !configstore.IsConflict(err) {
		t.Fatalf("closing edge: err = %v, want conflict", err)
	}

	_, err = svc.Connect(ctx, "relay-a", "access_url", "relay-a", "PEER_URL")
	if !configstore.IsConflict(err) {
		t.Fatalf("self loop: err = %v, want conflict", err)
	}
}

func TestDisconnect(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	seedInstance(t, store, "pg-main", "postgres")
	seedInstance(t, store, "chronicle-main", "chronicle")

	wire, err := svc.Connect(ctx, "pg-main", "access_url", "chronicle-main", "DATABASE_URL")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := svc.Disconnect(ctx, wire.ID); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if err := svc.Disconnect(ctx, wire.ID); !configstore.IsNotFound(err) {
		t.Fatalf("second disconnect: err = %v, want not-found", err)
	}
}

func TestResolveAt(t *testing.T) {
	svc, store, fake := newTestService(t)
	ctx := context.Background()
	seedInstance(t, store, "pg-main", "postgres")
	seedInstance(t, store, "chronicle-main", "chronicle")

	if _, err := svc.Connect(ctx, "pg-main", "access_url", "chronicle-main", "DATABASE_URL"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := svc.Connect(ctx, "pg-main", "env_vars.LOG_LEVEL", "chronicle-main", "LOG_LEVEL"); err != nil {
		t.Fatalf("connect optional: %v", err)
	}

	// Source not deployed: everything pending.
	resolved, err := svc.ResolveAt(ctx, "chronicle-main")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("resolved = %+v", resolved)
	}
	for _, input := range resolved {
		if !input.Pending || input.Err != nil {
			t.Errorf("undeployed source should be pending: %+v", input)
		}
	}

	fake.SetStatus("pg-main", deploy.Status{
		State:   deploy.StateRunning,
		Outputs: deploy.Outputs{AccessURL: "http://pg:5432"},
	})
	svc.InvalidateStatus("pg-main")

	resolved, err = svc.ResolveAt(ctx, "chronicle-main")
	if err != nil {
		t.Fatalf("resolve after deploy: %v", err)
	}
	byEnv := map[string]ResolvedInput{}
	for _, input := range resolved {
		byEnv[input.EnvVar] = input
	}
	dbURL := byEnv["DATABASE_URL"]
	if dbURL.Pending || dbURL.Value != "http://pg:5432" || !dbURL.Required {
		t.Errorf("DATABASE_URL = %+v", dbURL)
	}
	// Output key absent from the running source stays pending.
	logLevel := byEnv["LOG_LEVEL"]
	if !logLevel.Pending || logLevel.Required {
		t.Errorf("LOG_LEVEL = %+v", logLevel)
	}
}

func TestResolveAtDeployFailure(t *testing.T) {
	svc, store, fake := newTestService(t)
	ctx := context.Background()
	seedInstance(t, store, "pg-main", "postgres")
	seedInstance(t, store, "chronicle-main", "chronicle")

	if _, err := svc.Connect(ctx, "pg-main", "access_url", "chronicle-main", "DATABASE_URL"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	fake.Fail(errors.New("deployment service down"))

	resolved, err := svc.ResolveAt(ctx, "chronicle-main")
	if err != nil {
		t.Fatalf("resolve must not fail outright: %v", err)
	}
	if len(resolved) != 1 || !resolved[0].Pending || resolved[0].Err == nil {
		t.Errorf("resolved = %+v", resolved)
	}
}

func TestResolveAtCachesStatus(t *testing.T) {
	svc, store, fake := newTestService(t)
	ctx := context.Background()
	seedInstance(t, store, "pg-main", "postgres")
	seedInstance(t, store, "chronicle-main", "chronicle")

	if _, err := svc.Connect(ctx, "pg-main", "access_url", "chronicle-main", "DATABASE_URL"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := svc.ResolveAt(ctx, "chronicle-main"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Within the cache TTL the stale status keeps serving.
	fake.Fail(errors.New("down"))
	resolved, err := svc.ResolveAt(ctx, "chronicle-main")
	if err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
	if resolved[0].Err != nil {
		t.Errorf("cached status should mask the outage: %+v", resolved[0])
	}
}
