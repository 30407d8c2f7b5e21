package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

// ErrShutdownUnavailable indicates the daemon does not expose the
// shutdown endpoint.
var ErrShutdownUnavailable = errors.New("daemon shutdown endpoint unavailable")

// Health probes the daemon's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	return nil
}

// DaemonStatus fetches version and graph counts from the daemon.
func (c *Client) DaemonStatus(ctx context.Context) (apihttp.DaemonStatus, error) {
	var status apihttp.DaemonStatus
	if err := c.getJSON(ctx, "/daemon/status", &status); err != nil {
		return apihttp.DaemonStatus{}, err
	}
	return status, nil
}

// ShutdownDaemon requests a graceful daemon shutdown.
func (c *Client) ShutdownDaemon(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/daemon/shutdown", nil, nil, http.StatusAccepted)
	if err == nil {
		return nil
	}
	switch StatusOf(err) {
	case http.StatusNotFound, http.StatusNotImplemented:
		return fmt.Errorf("shutdown daemon: %w: %w", ErrShutdownUnavailable, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("shutdown daemon unauthorized: %w", err)
	}
	return fmt.Errorf("shutdown daemon: %w", err)
}
