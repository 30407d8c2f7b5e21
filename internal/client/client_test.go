package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
	"github.com/patchbay-sh/patchbay/internal/config"
)

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(apihttp.TemplatesOverview{})
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "tok-123", nil)
	if _, err := c.Templates(context.Background()); err != nil {
		t.Fatalf("templates: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(apihttp.ErrorResponse{Error: "instance not found: ghost"})
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "", nil)
	_, err := c.Instance(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "instance not found: ghost" {
		t.Fatalf("expected server message, got %q", err)
	}
	if StatusOf(err) != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", StatusOf(err))
	}
}

func TestClientPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "", nil)
	err := c.DeleteSetting(context.Background(), "api_keys.x")
	if err == nil {
		t.Fatal("expected error")
	}
	if StatusOf(err) != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", StatusOf(err))
	}
}

func TestClientConnectionRefused(t *testing.T) {
	c := NewWithBaseURL("http://127.0.0.1:1", "", nil)
	_, err := c.Templates(context.Background())
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestCreateInstanceRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/instances" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req apihttp.InstanceCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(apihttp.InstanceResult{Instance: apihttp.InstanceEntry{
			ID:         "inst-1",
			TemplateID: req.TemplateID,
			Name:       req.Name,
		}})
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL, "", nil)
	inst, err := c.CreateInstance(context.Background(), apihttp.InstanceCreateRequest{
		TemplateID: "openai",
		Name:       "llm",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.ID != "inst-1" || inst.TemplateID != "openai" {
		t.Fatalf("unexpected instance: %+v", inst)
	}
}

func TestReadRuntimeInfo(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)

	if _, err := ReadRuntimeInfo(); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	raw := []byte(`{"pid":42,"binding":"127.0.0.1","port":7733,"started_at":"2026-08-26T10:00:00Z"}`)
	if err := os.WriteFile(filepath.Join(home, "daemon.json"), raw, 0o644); err != nil {
		t.Fatalf("write runtime file: %v", err)
	}

	info, err := ReadRuntimeInfo()
	if err != nil {
		t.Fatalf("read runtime info: %v", err)
	}
	if info.Port != 7733 || info.PID != 42 {
		t.Fatalf("unexpected info: %+v", info)
	}

	c, err := New()
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.BaseURL() != "http://127.0.0.1:7733" {
		t.Fatalf("unexpected base url %q", c.BaseURL())
	}
}

func TestNewHonoursEnvOverride(t *testing.T) {
	t.Setenv(EnvBaseURL, "http://10.0.0.5:9000/")
	t.Setenv(EnvToken, " tok ")

	c, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.BaseURL() != "http://10.0.0.5:9000" {
		t.Fatalf("unexpected base url %q", c.BaseURL())
	}
	if c.Token() != "tok" {
		t.Fatalf("expected trimmed token, got %q", c.Token())
	}
}
