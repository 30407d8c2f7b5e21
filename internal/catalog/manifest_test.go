package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root, dir, content string) {
	t.Helper()
	full := filepath.Join(root, dir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(full, "template.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestDiscoverManifests(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "deepgram", `
id: deepgram
name: Deepgram
mode: cloud
version: 0.2.0
provides: transcription
config_schema:
  - key: api_key
    type: string
    required: true
    secret: true
    env_var: DEEPGRAM_API_KEY
`)

	templates, err := DiscoverManifests(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("got %d templates, want 1", len(templates))
	}
	tpl := templates[0]
	if tpl.ID != "deepgram" || tpl.Provides != "transcription" {
		t.Errorf("unexpected template %+v", tpl)
	}
	if f, ok := tpl.FieldByKey("api_key"); !ok || !f.Secret || !f.Required {
		t.Errorf("api_key field not parsed: %+v, %v", f, ok)
	}
}

func TestDiscoverManifestsDefaultsIDFromDir(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "my-provider", `
provides: llm
`)

	templates, err := DiscoverManifests(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(templates) != 1 || templates[0].ID != "my-provider" {
		t.Fatalf("expected id from directory name, got %+v", templates)
	}
}

func TestDiscoverManifestsSkipsMalformed(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "broken", "{{not yaml")
	writeManifest(t, root, "fine", "provides: llm\n")

	templates, err := DiscoverManifests(root)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(templates) != 1 || templates[0].ID != "fine" {
		t.Fatalf("malformed manifest should be skipped, got %+v", templates)
	}
}

func TestDiscoverManifestsMissingRoot(t *testing.T) {
	templates, err := DiscoverManifests(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing root should not error, got %v", err)
	}
	if templates != nil {
		t.Errorf("expected nil, got %+v", templates)
	}
}

func TestMergeManifestsVersionPrecedence(t *testing.T) {
	builtin := []Template{{ID: "openai", Version: "1.0.0", Provides: "llm"}}

	// Higher version replaces the builtin.
	merged := MergeManifests(builtin, []Template{{ID: "openai", Version: "1.2.0", Provides: "llm", Name: "OpenAI v2"}})
	if len(merged) != 1 || merged[0].Name != "OpenAI v2" {
		t.Errorf("higher version should win: %+v", merged)
	}

	// Lower version keeps the builtin.
	merged = MergeManifests(builtin, []Template{{ID: "openai", Version: "0.9.0", Name: "old"}})
	if merged[0].Name == "old" {
		t.Error("lower version should not replace builtin")
	}

	// Unversioned manifest never replaces a versioned one.
	merged = MergeManifests(builtin, []Template{{ID: "openai", Name: "unversioned"}})
	if merged[0].Name == "unversioned" {
		t.Error("unversioned manifest should not replace versioned builtin")
	}

	// Distinct ids are all kept.
	merged = MergeManifests(builtin, []Template{{ID: "deepgram", Provides: "transcription"}})
	if len(merged) != 2 {
		t.Errorf("expected 2 templates, got %d", len(merged))
	}
}
