// Package config resolves filesystem locations for patchbay state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvHome overrides the patchbay home directory when set.
const EnvHome = "PATCHBAY_HOME"

// Paths contains all filesystem locations used by a patchbay installation.
type Paths struct {
	Home         string // Root state directory (~/.patchbay)
	EngineDB     string // SQLite engine store path
	TemplatesDir string // User-provided template manifests
	Logs         string // Logs directory
	Lock         string // Daemon lock file path
	Runtime      string // Daemon runtime info written on start
	TempDir      string // Temporary files directory
}

// GetPaths returns the filesystem layout rooted at the patchbay home.
func GetPaths() Paths {
	home := GetHome()
	return Paths{
		Home:         home,
		EngineDB:     filepath.Join(home, "engine.db"),
		TemplatesDir: filepath.Join(home, "templates"),
		Logs:         filepath.Join(home, "logs"),
		Lock:         filepath.Join(home, "daemon.lock"),
		Runtime:      filepath.Join(home, "daemon.json"),
		TempDir:      filepath.Join(home, "tmp"),
	}
}

// GetHome returns the patchbay home directory (~/.patchbay), honouring the
// PATCHBAY_HOME override.
func GetHome() string {
	if override := os.Getenv(EnvHome); override != "" {
		return ExpandPath(override)
	}
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, ".patchbay")
}

// ExpandPath expands ~ to the user home directory.
func ExpandPath(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) == 1 {
			return home
		}
		if path[1] == '/' || path[1] == os.PathSeparator {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// EnsureDirs creates the directory structure if it does not exist.
func EnsureDirs() (Paths, error) {
	paths := GetPaths()

	dirs := []string{
		paths.Home,
		paths.TemplatesDir,
		paths.Logs,
		paths.TempDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("config: create directory %s: %w", dir, err)
		}
	}

	return paths, nil
}
