package client

import (
	"context"
	"net/url"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

// Templates lists the daemon's loaded template catalog.
func (c *Client) Templates(ctx context.Context) ([]apihttp.TemplateEntry, error) {
	var overview apihttp.TemplatesOverview
	if err := c.getJSON(ctx, "/templates", &overview); err != nil {
		return nil, err
	}
	return overview.Templates, nil
}

// Template fetches a single template by id.
func (c *Client) Template(ctx context.Context, id string) (apihttp.TemplateEntry, error) {
	var entry apihttp.TemplateEntry
	if err := c.getJSON(ctx, "/templates/"+url.PathEscape(id), &entry); err != nil {
		return apihttp.TemplateEntry{}, err
	}
	return entry, nil
}

// Capabilities lists the registered capability names.
func (c *Client) Capabilities(ctx context.Context) ([]apihttp.CapabilityEntry, error) {
	var overview apihttp.CapabilitiesOverview
	if err := c.getJSON(ctx, "/capabilities", &overview); err != nil {
		return nil, err
	}
	return overview.Capabilities, nil
}
