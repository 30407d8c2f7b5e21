package deploy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
)

func TestOutputsLookup(t *testing.T) {
	outputs := Outputs{
		AccessURL:        "http://10.0.0.7:8080",
		EnvVars:          map[string]string{"DB_PASSWORD": "hunter2"},
		CapabilityValues: map[string]string{"model": "gpt-4o-mini"},
	}

	cases := []struct {
		key   string
		want  string
		found bool
	}{
		{"access_url", "http://10.0.0.7:8080", true},
		{"env_vars.DB_PASSWORD", "hunter2", true},
		{"env_vars.MISSING", "", false},
		{"capability_values.model", "gpt-4o-mini", true},
		{"capability_values.other", "", false},
		{"bogus", "", false},
	}
	for _, tc := range cases {
		got, ok := outputs.Lookup(tc.key)
		if got != tc.want || ok != tc.found {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tc.key, got, ok, tc.want, tc.found)
		}
	}
}

func TestOutputsLookupEmptyAccessURL(t *testing.T) {
	if _, ok := (Outputs{}).Lookup("access_url"); ok {
		t.Error("empty access_url should report absent")
	}
}

func TestValidOutputKey(t *testing.T) {
	valid := []string{"access_url", "env_vars.PORT", "capability_values.model"}
	invalid := []string{"", "env_vars.", "capability_values.", "urls.access"}
	for _, key := range valid {
		if !ValidOutputKey(key) {
			t.Errorf("ValidOutputKey(%q) = false", key)
		}
	}
	for _, key := range invalid {
		if ValidOutputKey(key) {
			t.Errorf("ValidOutputKey(%q) = true", key)
		}
	}
}

func TestHTTPClientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		switch r.URL.Path {
		case "/v1/deployments/pg-main":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"state":"running","outputs":{"access_url":"http://pg:5432","env_vars":{"PGPASSWORD":"s3cret"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "tok-1", nil)
	ctx := context.Background()

	status, err := client.Status(ctx, "pg-main")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Running() || status.Outputs.AccessURL != "http://pg:5432" {
		t.Errorf("status = %+v", status)
	}

	status, err = client.Status(ctx, "never-deployed")
	if err != nil {
		t.Fatalf("status for undeployed: %v", err)
	}
	if status.State != StateNotDeployed {
		t.Errorf("state = %q, want not_deployed", status.State)
	}
}

func TestHTTPClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"backend down"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "", nil)
	_, err := client.Status(context.Background(), "pg-main")
	if !configstore.IsExternalResolution(err) {
		t.Fatalf("err = %v, want external resolution", err)
	}
}

func TestHTTPClientUnreachable(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1", "", nil)
	_, err := client.Status(context.Background(), "pg-main")
	if !configstore.IsExternalResolution(err) {
		t.Fatalf("err = %v, want external resolution", err)
	}
}

func TestFake(t *testing.T) {
	fake := NewFake()
	ctx := context.Background()

	status, err := fake.Status(ctx, "x")
	if err != nil || status.State != StateNotDeployed {
		t.Fatalf("unknown instance: %+v, %v", status, err)
	}

	fake.SetStatus("x", Status{State: StateRunning, Outputs: Outputs{AccessURL: "http://x"}})
	status, err = fake.Status(ctx, "x")
	if err != nil || !status.Running() {
		t.Fatalf("after set: %+v, %v", status, err)
	}
}
