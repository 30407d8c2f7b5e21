//go:build !windows

package procutil

import (
	"os"
	"syscall"
)

// Terminate sends SIGTERM to the process identified by pid.
func Terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// Alive checks whether a process with the given pid is still running.
func Alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
