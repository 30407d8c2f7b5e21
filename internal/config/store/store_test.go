package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "engine.db")
	s, err := Open(Options{DBPath: dbPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRequiresDBPath(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Error("Open without DBPath should fail")
	}
}

func TestOpenIdempotentSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "engine.db")
	s1, err := Open(Options{DBPath: dbPath})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s1.Close()

	s2, err := Open(Options{DBPath: dbPath})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s2.Close()
}

func TestReadOnlyStoreRejectsWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "engine.db")
	rw, err := Open(Options{DBPath: dbPath})
	if err != nil {
		t.Fatalf("open rw: %v", err)
	}
	rw.Close()

	ro, err := Open(Options{DBPath: dbPath, ReadOnly: true})
	if err != nil {
		t.Fatalf("open ro: %v", err)
	}
	defer ro.Close()

	err = ro.InsertInstance(context.Background(), Instance{ID: "i1", TemplateID: "openai", Name: "x"}, nil)
	if err == nil {
		t.Error("read-only store should reject InsertInstance")
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct", NotFoundError{Entity: "instance", Key: "k"}, true},
		{"wrapped", fmt.Errorf("outer: %w", NotFoundError{Entity: "instance"}), true},
		{"nil", nil, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	vErr := fmt.Errorf("wrap: %w", Validationf("missing required field %q", "api_key"))
	if !IsValidation(vErr) {
		t.Error("IsValidation should see through wrapping")
	}
	if IsValidation(errors.New("x")) {
		t.Error("IsValidation false positive")
	}

	cErr := fmt.Errorf("wrap: %w", Conflictf("cycle via %s", "a"))
	if !IsConflict(cErr) {
		t.Error("IsConflict should see through wrapping")
	}
	if IsConflict(vErr) {
		t.Error("IsConflict must not match ValidationError")
	}

	if (NotFoundError{Entity: "instance", Key: "i1"}).Error() != "instance i1 not found" {
		t.Error("unexpected NotFoundError message")
	}
	if (NotFoundError{Entity: "instance"}).Error() != "instance not found" {
		t.Error("unexpected keyless NotFoundError message")
	}
}

func TestFieldValueValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fv   FieldValue
		ok   bool
	}{
		{"default", DefaultValue(), true},
		{"literal", LiteralValue("x"), true},
		{"setting", SettingReference("api_keys.k"), true},
		{"default with value", FieldValue{Source: FieldSourceDefault, Value: "x"}, false},
		{"literal with path", FieldValue{Source: FieldSourceLiteral, Path: "p"}, false},
		{"setting without path", FieldValue{Source: FieldSourceSetting}, false},
		{"setting with inline value", FieldValue{Source: FieldSourceSetting, Path: "p", Value: "v"}, false},
		{"unknown source", FieldValue{Source: "mystery"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fv.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestProviderRefValidate(t *testing.T) {
	t.Parallel()

	if err := TemplateRef("openai").Validate(); err != nil {
		t.Errorf("template ref: %v", err)
	}
	if err := InstanceRef("i1").Validate(); err != nil {
		t.Errorf("instance ref: %v", err)
	}
	if err := (ProviderRef{Kind: "other", ID: "x"}).Validate(); err == nil {
		t.Error("unknown kind should fail")
	}
	if err := (ProviderRef{Kind: ProviderTemplate}).Validate(); err == nil {
		t.Error("empty id should fail")
	}
	if got := TemplateRef("openai").String(); got != "template/openai" {
		t.Errorf("String() = %q", got)
	}
}
