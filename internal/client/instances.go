package client

import (
	"context"
	"net/http"
	"net/url"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

// Instances lists all saved instances.
func (c *Client) Instances(ctx context.Context) ([]apihttp.InstanceEntry, error) {
	var overview apihttp.InstancesOverview
	if err := c.getJSON(ctx, "/instances", &overview); err != nil {
		return nil, err
	}
	return overview.Instances, nil
}

// Instance fetches one instance by id.
func (c *Client) Instance(ctx context.Context, id string) (apihttp.InstanceEntry, error) {
	var result apihttp.InstanceResult
	if err := c.getJSON(ctx, "/instances/"+url.PathEscape(id), &result); err != nil {
		return apihttp.InstanceEntry{}, err
	}
	return result.Instance, nil
}

// CreateInstance instantiates a template.
func (c *Client) CreateInstance(ctx context.Context, req apihttp.InstanceCreateRequest) (apihttp.InstanceEntry, error) {
	var result apihttp.InstanceResult
	if err := c.doJSON(ctx, http.MethodPost, "/instances", req, &result, http.StatusCreated); err != nil {
		return apihttp.InstanceEntry{}, err
	}
	return result.Instance, nil
}

// UpdateInstance applies a partial update to an instance.
func (c *Client) UpdateInstance(ctx context.Context, id string, req apihttp.InstanceUpdateRequest) (apihttp.InstanceEntry, error) {
	var result apihttp.InstanceResult
	if err := c.doJSON(ctx, http.MethodPatch, "/instances/"+url.PathEscape(id), req, &result, http.StatusOK); err != nil {
		return apihttp.InstanceEntry{}, err
	}
	return result.Instance, nil
}

// DeleteInstance removes an instance. Wiring that refers to it is kept
// and reported as orphaned.
func (c *Client) DeleteInstance(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/instances/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}
