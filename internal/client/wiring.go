package client

import (
	"context"
	"net/http"
	"net/url"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

func wiringPath(consumerID, capability string) string {
	return "/instances/" + url.PathEscape(consumerID) + "/wiring/" + url.PathEscape(capability)
}

// WiringEdges lists every capability assignment.
func (c *Client) WiringEdges(ctx context.Context) ([]apihttp.WiringEdgeEntry, error) {
	var overview apihttp.WiringOverview
	if err := c.getJSON(ctx, "/wiring", &overview); err != nil {
		return nil, err
	}
	return overview.Edges, nil
}

// WiringOrphans lists edges whose provider or consumer no longer exists.
func (c *Client) WiringOrphans(ctx context.Context) ([]apihttp.OrphanEntry, error) {
	var overview apihttp.OrphansOverview
	if err := c.getJSON(ctx, "/wiring/orphans", &overview); err != nil {
		return nil, err
	}
	return overview.Orphans, nil
}

// ConsumerWiring lists the edges of one consumer.
func (c *Client) ConsumerWiring(ctx context.Context, consumerID string) ([]apihttp.WiringEdgeEntry, error) {
	var overview apihttp.WiringOverview
	if err := c.getJSON(ctx, "/instances/"+url.PathEscape(consumerID)+"/wiring", &overview); err != nil {
		return nil, err
	}
	return overview.Edges, nil
}

// ResolveProvider reports which provider currently satisfies a consumer's
// capability slot.
func (c *Client) ResolveProvider(ctx context.Context, consumerID, capability string) (apihttp.ProviderResolution, error) {
	var resolution apihttp.ProviderResolution
	if err := c.getJSON(ctx, wiringPath(consumerID, capability), &resolution); err != nil {
		return apihttp.ProviderResolution{}, err
	}
	return resolution, nil
}

// Connect assigns a provider to a consumer's capability slot, replacing
// any existing assignment.
func (c *Client) Connect(ctx context.Context, consumerID, capability string, provider apihttp.ProviderRef) (apihttp.WiringEdgeEntry, error) {
	req := apihttp.WiringConnectRequest{Provider: provider}
	var edge apihttp.WiringEdgeEntry
	if err := c.doJSON(ctx, http.MethodPut, wiringPath(consumerID, capability), req, &edge, http.StatusOK); err != nil {
		return apihttp.WiringEdgeEntry{}, err
	}
	return edge, nil
}

// Disconnect clears a consumer's capability slot. Clearing an empty slot
// succeeds.
func (c *Client) Disconnect(ctx context.Context, consumerID, capability string) error {
	return c.doJSON(ctx, http.MethodDelete, wiringPath(consumerID, capability), nil, nil, http.StatusNoContent)
}
