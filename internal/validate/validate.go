package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// IdentRe matches valid identifiers used for template ids, instance names,
// and capability names. Must start with alphanumeric, followed by
// alphanumeric, dots, hyphens, or underscores.
var IdentRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// MaxIdentLen is the maximum length for identifiers.
const MaxIdentLen = 128

// Ident validates a string as a valid identifier.
func Ident(s string) bool {
	return len(s) > 0 && len(s) <= MaxIdentLen && IdentRe.MatchString(s)
}

// EnvVarRe matches environment variable names: uppercase letters, digits,
// and underscores, not starting with a digit.
var EnvVarRe = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// EnvVar validates a string as an environment variable name.
func EnvVar(s string) bool {
	return len(s) > 0 && len(s) <= MaxIdentLen && EnvVarRe.MatchString(s)
}

// settingPathSegmentRe matches a single dot-delimited settings path segment.
var settingPathSegmentRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// MaxSettingPathLen is the maximum length for a full settings path.
const MaxSettingPathLen = 256

// SettingPath validates a dot-delimited hierarchical settings key such as
// "api_keys.openai_api_key". Empty segments and leading/trailing dots are
// rejected.
func SettingPath(path string) error {
	if path == "" {
		return fmt.Errorf("settings path is empty")
	}
	if len(path) > MaxSettingPathLen {
		return fmt.Errorf("settings path exceeds %d characters", MaxSettingPathLen)
	}
	for _, segment := range strings.Split(path, ".") {
		if !settingPathSegmentRe.MatchString(segment) {
			return fmt.Errorf("invalid settings path segment %q in %q", segment, path)
		}
	}
	return nil
}

// HTTPURL ensures the URL uses http or https scheme and has a non-empty host
// to prevent SSRF via file://, ftp://, or other dangerous schemes.
func HTTPURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		// OK
	case "":
		return fmt.Errorf("URL missing scheme: %s", rawURL)
	default:
		return fmt.Errorf("URL scheme %q not allowed (only http/https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL missing host: %s", rawURL)
	}
	return nil
}
