package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patchbay-sh/patchbay/internal/client"
	"github.com/patchbay-sh/patchbay/internal/daemon"
	"github.com/patchbay-sh/patchbay/internal/procutil"
)

func newDaemonCommand() *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:           "daemon",
		Short:         "Daemon management commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	statusCmd := &cobra.Command{
		Use:           "status",
		Short:         "Get daemon status",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          daemonStatus,
	}

	stopCmd := &cobra.Command{
		Use:           "stop",
		Short:         "Stop the daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          daemonStop,
	}

	daemonCmd.AddCommand(statusCmd, stopCmd)
	return daemonCmd
}

func daemonStatus(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	c, err := newClient()
	if err != nil {
		return out.Error("Failed to connect to daemon", err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	status, err := c.DaemonStatus(ctx)
	if err != nil {
		return out.Error("Failed to fetch daemon status", err)
	}

	if out.jsonMode {
		return out.Print(status)
	}

	fmt.Println("Daemon Status:")
	fmt.Printf("  Version: %s\n", status.Version)
	fmt.Printf("  Home: %s\n", status.Home)
	fmt.Printf("  Templates: %d\n", status.Templates)
	fmt.Printf("  Instances: %d\n", status.Instances)
	fmt.Printf("  Started: %s\n", status.StartedAt)
	return nil
}

// daemonStop asks the daemon to shut down over the API, falling back to
// SIGTERM via the lock file when the API is unreachable.
func daemonStop(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	var apiErr error
	if c, err := newClient(); err == nil {
		ctx, cancel := requestContext()
		defer cancel()
		if err := c.ShutdownDaemon(ctx); err == nil {
			return out.Success("Shutdown request sent to daemon", map[string]any{
				"method": "api",
			})
		} else {
			apiErr = err
			if strings.Contains(strings.ToLower(err.Error()), "unauthorized") {
				return out.Error("Daemon shutdown requires the API token", err)
			}
		}
	} else {
		apiErr = err
	}

	pid := daemon.ReadLockedPID()
	if pid == 0 {
		if apiErr != nil && !errors.Is(apiErr, client.ErrDaemonNotRunning) {
			return out.Error("Failed to stop daemon", apiErr)
		}
		return out.Error("Daemon is not running", nil)
	}

	if err := procutil.Terminate(pid); err != nil {
		return out.Error("Failed to signal daemon", err)
	}

	return out.Success("Sent termination signal to daemon", map[string]any{
		"pid":    pid,
		"method": "signal",
	})
}
