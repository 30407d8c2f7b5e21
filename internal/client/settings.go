package client

import (
	"context"
	"net/http"
	"net/url"

	apihttp "github.com/patchbay-sh/patchbay/internal/api/http"
)

func settingPath(path string) string {
	// Setting paths are dot separated identifiers; escaping keeps a
	// malformed path from mangling the route, the server rejects it with 400.
	return "/settings/" + url.PathEscape(path)
}

// Settings lists stored settings, optionally filtered to a path prefix.
// Secret values come back redacted.
func (c *Client) Settings(ctx context.Context, prefix string) ([]apihttp.SettingEntry, error) {
	path := "/settings"
	if prefix != "" {
		path += "?prefix=" + url.QueryEscape(prefix)
	}
	var overview apihttp.SettingsOverview
	if err := c.getJSON(ctx, path, &overview); err != nil {
		return nil, err
	}
	return overview.Settings, nil
}

// PutSetting writes a settings-store entry.
func (c *Client) PutSetting(ctx context.Context, path, value string, secret bool) error {
	req := apihttp.SettingWriteRequest{Value: value, Secret: secret}
	return c.doJSON(ctx, http.MethodPut, settingPath(path), req, nil, http.StatusNoContent)
}

// DeleteSetting removes a settings-store entry. Deleting a missing entry
// succeeds.
func (c *Client) DeleteSetting(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, settingPath(path), nil, nil, http.StatusNoContent)
}
