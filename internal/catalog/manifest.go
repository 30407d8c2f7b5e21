package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

const (
	manifestYAML = "template.yaml"
	manifestYML  = "template.yml"
)

// DiscoverManifests scans root for template manifests, one directory level
// deep: <root>/<dir>/template.yaml. A missing root is not an error.
func DiscoverManifests(root string) ([]Template, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: read template root: %w", err)
	}

	var templates []Template
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		path := filepath.Join(dir, manifestYAML)
		if _, statErr := os.Stat(path); statErr != nil {
			path = filepath.Join(dir, manifestYML)
			if _, statErr = os.Stat(path); statErr != nil {
				continue
			}
		}

		t, err := parseManifest(path)
		if err != nil {
			// A malformed manifest must not keep the daemon from starting;
			// skip it and let the operator fix the file.
			log.Printf("[Catalog] skipping manifest %s: %v", path, err)
			continue
		}
		templates = append(templates, t)
	}

	return templates, nil
}

func parseManifest(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read manifest: %w", err)
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("parse manifest: %w", err)
	}
	if t.ID == "" {
		t.ID = filepath.Base(filepath.Dir(path))
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}

// MergeManifests combines builtin and discovered templates. When two
// templates share an id the highest semantic version wins; a template
// without a parseable version always loses to one with a version, and the
// later entry wins between two unversioned duplicates.
func MergeManifests(builtin, discovered []Template) []Template {
	byID := make(map[string]Template, len(builtin)+len(discovered))
	var order []string

	consider := func(t Template) {
		existing, ok := byID[t.ID]
		if !ok {
			byID[t.ID] = t
			order = append(order, t.ID)
			return
		}
		if newerVersion(t.Version, existing.Version) {
			byID[t.ID] = t
		}
	}

	for _, t := range builtin {
		consider(t)
	}
	for _, t := range discovered {
		consider(t)
	}

	out := make([]Template, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// newerVersion reports whether candidate should replace current.
func newerVersion(candidate, current string) bool {
	cv, cErr := semver.NewVersion(candidate)
	xv, xErr := semver.NewVersion(current)
	switch {
	case cErr != nil && xErr != nil:
		return true // neither parses: last write wins
	case cErr != nil:
		return false
	case xErr != nil:
		return true
	default:
		return cv.GreaterThan(xv)
	}
}
