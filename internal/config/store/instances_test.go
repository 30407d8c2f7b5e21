package store

import (
	"context"
	"testing"
)

func TestInstanceCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inst := Instance{
		ID:         "inst-1",
		TemplateID: "openai",
		Name:       "openai-fast",
		FieldValues: map[string]FieldValue{
			"model":   LiteralValue("gpt-4o"),
			"api_key": SettingReference("api_keys.openai_api_key"),
		},
	}
	if err := s.InsertInstance(ctx, inst, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetInstance(ctx, "inst-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "openai-fast" || got.TemplateID != "openai" {
		t.Errorf("got %+v", got)
	}
	if fv := got.FieldValues["api_key"]; fv.Source != FieldSourceSetting || fv.Path != "api_keys.openai_api_key" {
		t.Errorf("api_key field = %+v", fv)
	}

	byName, err := s.GetInstanceByName(ctx, "openai-fast")
	if err != nil || byName.ID != "inst-1" {
		t.Errorf("get by name: %+v, %v", byName, err)
	}

	newName := "openai-primary"
	updated := map[string]FieldValue{"model": LiteralValue("gpt-4.1")}
	if err := s.UpdateInstance(ctx, "inst-1", &newName, updated, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetInstance(ctx, "inst-1")
	if got.Name != "openai-primary" {
		t.Errorf("name not updated: %q", got.Name)
	}
	if fv := got.FieldValues["model"]; fv.Value != "gpt-4.1" {
		t.Errorf("model not updated: %+v", fv)
	}
	if _, present := got.FieldValues["api_key"]; present {
		t.Error("replaced field values should drop old keys")
	}

	if err := s.DeleteInstance(ctx, "inst-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetInstance(ctx, "inst-1"); !IsNotFound(err) {
		t.Errorf("get after delete = %v, want NotFound", err)
	}
}

func TestInsertInstanceRejectsDuplicateName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertInstance(ctx, Instance{ID: "a", TemplateID: "openai", Name: "dup"}, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.InsertInstance(ctx, Instance{ID: "b", TemplateID: "openai", Name: "dup"}, nil)
	if !IsValidation(err) {
		t.Errorf("duplicate name = %v, want ValidationError", err)
	}
}

func TestUpdateInstanceNotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdateInstance(context.Background(), "ghost", nil, nil, nil)
	if !IsNotFound(err) {
		t.Errorf("update missing = %v, want NotFound", err)
	}
}

func TestDeleteInstanceNotFound(t *testing.T) {
	s := openTestStore(t)
	if err := s.DeleteInstance(context.Background(), "ghost"); !IsNotFound(err) {
		t.Error("delete missing should be NotFound")
	}
}

func TestInsertInstanceWithSettingsIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Successful case: both halves commit.
	writes := []SettingWrite{{Path: "api_keys.openai_api_key", Value: "sk-123", Secret: true}}
	inst := Instance{
		ID:         "inst-1",
		TemplateID: "openai",
		Name:       "openai-fast",
		FieldValues: map[string]FieldValue{
			"api_key": SettingReference("api_keys.openai_api_key"),
		},
	}
	if err := s.InsertInstance(ctx, inst, writes); err != nil {
		t.Fatalf("insert: %v", err)
	}
	value, ok, err := s.GetSetting(ctx, "api_keys.openai_api_key")
	if err != nil || !ok || value != "sk-123" {
		t.Fatalf("setting after insert = %q, %v, %v", value, ok, err)
	}

	// Failing case: the instance insert fails on a duplicate name, so the
	// settings write must roll back too.
	writes = []SettingWrite{{Path: "api_keys.other_key", Value: "sk-456", Secret: true}}
	dup := Instance{ID: "inst-2", TemplateID: "openai", Name: "openai-fast"}
	if err := s.InsertInstance(ctx, dup, writes); err == nil {
		t.Fatal("duplicate insert should fail")
	}
	if _, ok, _ := s.GetSetting(ctx, "api_keys.other_key"); ok {
		t.Error("settings write should roll back with the failed instance insert")
	}
}

func TestListInstancesOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.InsertInstance(ctx, Instance{ID: "id-" + name, TemplateID: "openai", Name: name}, nil); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	list, err := s.ListInstances(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Name != "alpha" || list[2].Name != "zeta" {
		t.Errorf("unexpected order: %+v", list)
	}
}

func TestInstanceExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.InstanceExists(ctx, "nope")
	if err != nil || ok {
		t.Errorf("exists(nope) = %v, %v", ok, err)
	}
	if err := s.InsertInstance(ctx, Instance{ID: "i", TemplateID: "t", Name: "n"}, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	ok, err = s.InstanceExists(ctx, "i")
	if err != nil || !ok {
		t.Errorf("exists(i) = %v, %v", ok, err)
	}
}
