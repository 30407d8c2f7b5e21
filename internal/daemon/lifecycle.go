package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/patchbay-sh/patchbay/internal/config"
	"github.com/patchbay-sh/patchbay/internal/procutil"
)

// Lifecycle coordinates shutdown signalling between the daemon and the
// API server's shutdown endpoint.
type Lifecycle struct {
	shutdownOnce sync.Once
	shutdownChan chan struct{}
}

// NewLifecycle creates a lifecycle controller with its own shutdown channel.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{shutdownChan: make(chan struct{})}
}

// Done returns a channel that is closed when the lifecycle is shutting down.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.shutdownChan
}

// Shutdown signals all listeners that the lifecycle is terminating.
func (l *Lifecycle) Shutdown() {
	l.shutdownOnce.Do(func() { close(l.shutdownChan) })
}

// writePIDFile writes the given PID into the lock file with secure
// permissions.
func writePIDFile(pidFile string, pid int) error {
	if pidFile == "" {
		return fmt.Errorf("daemon: pid file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(pidFile), 0o755); err != nil {
		return fmt.Errorf("daemon: create pid directory: %w", err)
	}
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return fmt.Errorf("daemon: write pid file: %w", err)
	}
	return nil
}

func removePIDFile(pidFile string) {
	if pidFile == "" {
		return
	}
	_ = os.Remove(pidFile)
}

// ReadLockedPID returns the PID recorded in the daemon lock file, or zero
// when no live daemon holds it. Stale lock files are cleaned up.
func ReadLockedPID() int {
	lock := config.GetPaths().Lock
	data, err := os.ReadFile(lock)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		os.Remove(lock)
		return 0
	}
	if !procutil.Alive(pid) {
		os.Remove(lock)
		return 0
	}
	return pid
}

// IsRunning reports whether a daemon process currently holds the lock.
func IsRunning() bool {
	return ReadLockedPID() != 0
}
