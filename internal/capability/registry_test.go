package capability

import "testing"

func TestNewRegistryBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{LLM, Transcription, Speech, Storage, Embeddings} {
		if !r.Known(name) {
			t.Errorf("builtin capability %q not registered", name)
		}
	}
	if r.Known("nonexistent") {
		t.Error("unknown capability reported as known")
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("imaging", "Image generation"); err != nil {
		t.Fatalf("register: %v", err)
	}
	c, ok := r.Get("imaging")
	if !ok || c.Label != "Image generation" {
		t.Errorf("Get(imaging) = %+v, %v", c, ok)
	}

	// Re-registering with an empty label keeps the existing one.
	if err := r.Register("imaging", ""); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if c, _ := r.Get("imaging"); c.Label != "Image generation" {
		t.Errorf("label lost on re-register: %q", c.Label)
	}
}

func TestRegisterInvalidName(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"", "has space", "-dash"} {
		if err := r.Register(name, ""); err == nil {
			t.Errorf("Register(%q) = nil, want error", name)
		}
	}
}

func TestListSorted(t *testing.T) {
	r := NewRegistry()
	list := r.List()
	if len(list) == 0 {
		t.Fatal("empty list")
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Name >= list[i].Name {
			t.Errorf("list not sorted at %d: %q >= %q", i, list[i-1].Name, list[i].Name)
		}
	}
}
