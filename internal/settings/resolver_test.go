package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/patchbay-sh/patchbay/internal/catalog"
	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
	"github.com/patchbay-sh/patchbay/internal/testutil"
)

func newTestResolver(t *testing.T) (*Resolver, *configstore.Store) {
	t.Helper()
	store, cleanup := testutil.OpenStore(t)
	t.Cleanup(cleanup)
	return NewResolver(store), store
}

func TestResolveDefault(t *testing.T) {
	r, _ := newTestResolver(t)
	field := catalog.Field{Key: "model", Default: "gpt-4o-mini"}

	got := r.Resolve(context.Background(), field, configstore.FieldValue{}, false)
	if !got.Resolved || got.Value != "gpt-4o-mini" {
		t.Errorf("got %+v", got)
	}

	got = r.Resolve(context.Background(), field, configstore.DefaultValue(), true)
	if !got.Resolved || got.Value != "gpt-4o-mini" {
		t.Errorf("explicit default marker: got %+v", got)
	}
}

func TestResolveRequiredWithoutDefault(t *testing.T) {
	r, _ := newTestResolver(t)
	field := catalog.Field{Key: "api_key", Required: true}

	got := r.Resolve(context.Background(), field, configstore.FieldValue{}, false)
	if got.Resolved {
		t.Errorf("required field with no value resolved: %+v", got)
	}
	if got.Err != nil {
		t.Errorf("unconfigured is not an error, got %v", got.Err)
	}
}

func TestResolveLiteral(t *testing.T) {
	r, _ := newTestResolver(t)
	field := catalog.Field{Key: "model", Default: "gpt-4o-mini"}

	got := r.Resolve(context.Background(), field, configstore.LiteralValue("gpt-4o"), true)
	if !got.Resolved || got.Value != "gpt-4o" {
		t.Errorf("got %+v", got)
	}
}

func TestResolveSettingReference(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	err := store.SaveSetting(ctx, configstore.SettingWrite{
		Path: "api_keys.openai_api_key", Value: "sk-123", Secret: true,
	})
	if err != nil {
		t.Fatalf("save setting: %v", err)
	}

	field := catalog.Field{Key: "api_key", Required: true, Secret: true}
	got := r.Resolve(ctx, field, configstore.SettingReference("api_keys.openai_api_key"), true)
	if !got.Resolved || got.Value != "sk-123" {
		t.Errorf("got %+v", got)
	}
}

func TestResolveMissingPathDegrades(t *testing.T) {
	r, _ := newTestResolver(t)
	field := catalog.Field{Key: "api_key", Required: true}

	got := r.Resolve(context.Background(), field, configstore.SettingReference("api_keys.gone"), true)
	if got.Resolved {
		t.Errorf("missing path should be unresolved, got %+v", got)
	}
	if got.Err != nil {
		t.Errorf("missing path is not an error, got %v", got.Err)
	}
	if got.Value != "" {
		t.Errorf("missing path should resolve empty, got %q", got.Value)
	}
}

func TestPrecedenceLiteralOverMappedOverDefault(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	// Default "X", mapped path resolving "Y", literal override "Z".
	field := catalog.Field{Key: "model", Default: "X", SettingPath: "models.default"}
	err := store.SaveSetting(ctx, configstore.SettingWrite{Path: "models.default", Value: "Y"})
	if err != nil {
		t.Fatalf("save setting: %v", err)
	}

	got := r.Resolve(ctx, field, configstore.LiteralValue("Z"), true)
	if got.Value != "Z" {
		t.Errorf("with override: got %q, want Z", got.Value)
	}

	got = r.Resolve(ctx, field, configstore.FieldValue{}, false)
	if got.Value != "Y" {
		t.Errorf("without override: got %q, want mapped Y", got.Value)
	}

	if err := store.DeleteSetting(ctx, "models.default"); err != nil {
		t.Fatalf("delete setting: %v", err)
	}
	got = r.Resolve(ctx, field, configstore.FieldValue{}, false)
	if got.Value != "X" {
		t.Errorf("without mapped value: got %q, want default X", got.Value)
	}
}

type failingStore struct{ err error }

func (f failingStore) GetSetting(context.Context, string) (string, bool, error) {
	return "", false, f.err
}

func (f failingStore) SaveSetting(context.Context, configstore.SettingWrite) error {
	return f.err
}

func TestResolveStoreFailure(t *testing.T) {
	r := NewResolver(failingStore{err: errors.New("disk on fire")})
	field := catalog.Field{Key: "api_key", Required: true}

	got := r.Resolve(context.Background(), field, configstore.SettingReference("api_keys.x"), true)
	if got.Resolved || got.Value != "" {
		t.Errorf("store failure must degrade to empty, got %+v", got)
	}
	if !configstore.IsExternalResolution(got.Err) {
		t.Errorf("err = %v, want external resolution", got.Err)
	}
}

func TestWriteAndReference(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	ref, err := r.WriteAndReference(ctx, "api_keys.openai_api_key", "sk-123", true)
	if err != nil {
		t.Fatalf("write and reference: %v", err)
	}
	if ref != configstore.SettingReference("api_keys.openai_api_key") {
		t.Errorf("ref = %+v", ref)
	}

	value, ok, err := store.GetSetting(ctx, "api_keys.openai_api_key")
	if err != nil || !ok || value != "sk-123" {
		t.Errorf("stored value = %q ok=%v err=%v", value, ok, err)
	}
}

func TestWriteAndReferenceFailure(t *testing.T) {
	r := NewResolver(failingStore{err: errors.New("read-only")})
	_, err := r.WriteAndReference(context.Background(), "a.b", "v", false)
	if !configstore.IsExternalResolution(err) {
		t.Fatalf("err = %v, want external resolution", err)
	}
}
