package validate

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Ident
// ---------------------------------------------------------------------------

func TestIdent_Valid(t *testing.T) {
	for _, s := range []string{
		"openai",
		"openai-fast",
		"whisper.cpp",
		"a",
		"Template_1",
	} {
		if !Ident(s) {
			t.Errorf("Ident(%q) = false, want true", s)
		}
	}
}

func TestIdent_Invalid(t *testing.T) {
	for _, s := range []string{
		"",
		"-leading-dash",
		".leading-dot",
		"has space",
		"has/slash",
		strings.Repeat("x", MaxIdentLen+1),
	} {
		if Ident(s) {
			t.Errorf("Ident(%q) = true, want false", s)
		}
	}
}

// ---------------------------------------------------------------------------
// EnvVar
// ---------------------------------------------------------------------------

func TestEnvVar(t *testing.T) {
	valid := []string{"OPENAI_API_KEY", "_PRIVATE", "X1"}
	for _, s := range valid {
		if !EnvVar(s) {
			t.Errorf("EnvVar(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "lowercase", "1LEADING", "WITH-DASH", "WITH SPACE"}
	for _, s := range invalid {
		if EnvVar(s) {
			t.Errorf("EnvVar(%q) = true, want false", s)
		}
	}
}

// ---------------------------------------------------------------------------
// SettingPath
// ---------------------------------------------------------------------------

func TestSettingPath_Valid(t *testing.T) {
	for _, path := range []string{
		"api_keys.openai_api_key",
		"deploy.base_url",
		"single",
	} {
		if err := SettingPath(path); err != nil {
			t.Errorf("SettingPath(%q) = %v, want nil", path, err)
		}
	}
}

func TestSettingPath_Invalid(t *testing.T) {
	for _, path := range []string{
		"",
		".leading",
		"trailing.",
		"double..dot",
		"bad segment.x",
		strings.Repeat("a", MaxSettingPathLen+1),
	} {
		if err := SettingPath(path); err == nil {
			t.Errorf("SettingPath(%q) = nil, want error", path)
		}
	}
}

// ---------------------------------------------------------------------------
// HTTPURL
// ---------------------------------------------------------------------------

func TestHTTPURL(t *testing.T) {
	for _, u := range []string{
		"http://localhost:7411",
		"https://deploy.example.com/api",
	} {
		if err := HTTPURL(u); err != nil {
			t.Errorf("HTTPURL(%q) = %v, want nil", u, err)
		}
	}
	for _, u := range []string{
		"file:///etc/passwd",
		"ftp://example.com",
		"example.com",
		"http://",
	} {
		if err := HTTPURL(u); err == nil {
			t.Errorf("HTTPURL(%q) = nil, want error", u)
		}
	}
}
