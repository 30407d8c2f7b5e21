package client

import (
	"context"
	"net/url"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

// EffectiveConfig assembles the fully resolved configuration of an
// instance. Secret values are redacted unless reveal is set.
func (c *Client) EffectiveConfig(ctx context.Context, instanceID string, reveal bool) (apihttp.EffectiveConfig, error) {
	path := "/instances/" + url.PathEscape(instanceID) + "/config"
	if reveal {
		path += "?reveal=1"
	}
	var cfg apihttp.EffectiveConfig
	if err := c.getJSON(ctx, path, &cfg); err != nil {
		return apihttp.EffectiveConfig{}, err
	}
	return cfg, nil
}

// Validate reports an instance's readiness and the findings blocking it.
func (c *Client) Validate(ctx context.Context, instanceID string) (apihttp.ValidationReport, error) {
	var report apihttp.ValidationReport
	if err := c.getJSON(ctx, "/instances/"+url.PathEscape(instanceID)+"/validate", &report); err != nil {
		return apihttp.ValidationReport{}, err
	}
	return report, nil
}
