package client

import (
	"context"
	"net/http"
	"net/url"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

// OutputWires lists every output-to-input wire.
func (c *Client) OutputWires(ctx context.Context) ([]apihttp.OutputWireEntry, error) {
	var overview apihttp.OutputWiresOverview
	if err := c.getJSON(ctx, "/outputs", &overview); err != nil {
		return nil, err
	}
	return overview.Wires, nil
}

// ConnectOutput wires a deployment output into another instance's
// environment variable.
func (c *Client) ConnectOutput(ctx context.Context, req apihttp.OutputWireConnectRequest) (apihttp.OutputWireEntry, error) {
	var result apihttp.OutputWireResult
	if err := c.doJSON(ctx, http.MethodPost, "/outputs", req, &result, http.StatusCreated); err != nil {
		return apihttp.OutputWireEntry{}, err
	}
	return result.Wire, nil
}

// DisconnectOutput removes an output wire by id.
func (c *Client) DisconnectOutput(ctx context.Context, wireID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/outputs/"+url.PathEscape(wireID), nil, nil, http.StatusNoContent)
}

// Inputs reports the current value of every wire feeding an instance.
func (c *Client) Inputs(ctx context.Context, instanceID string) ([]apihttp.ResolvedInputEntry, error) {
	var overview apihttp.ResolvedInputsOverview
	if err := c.getJSON(ctx, "/instances/"+url.PathEscape(instanceID)+"/inputs", &overview); err != nil {
		return nil, err
	}
	return overview.Inputs, nil
}
