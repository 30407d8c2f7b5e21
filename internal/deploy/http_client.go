package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	configstore "github.com/patchbay-sh/patchbay/internal/config/store"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 8 << 10
)

// HTTPClient implements Service against a remote deployment service.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewHTTPClient builds a deployment service client with optional custom
// transport.
func NewHTTPClient(baseURL, token string, transport http.RoundTripper) *HTTPClient {
	client := &http.Client{Timeout: defaultHTTPTimeout}
	if transport != nil {
		client.Transport = transport
	}
	return &HTTPClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
	}
}

// BaseURL returns the base HTTP URL.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Status fetches the deployment state for one instance. A 404 means the
// instance has never been deployed, which is a normal outcome. Transport
// failures and timeouts surface as ExternalResolutionError so callers
// degrade instead of aborting.
func (c *HTTPClient) Status(ctx context.Context, instanceID string) (Status, error) {
	endpoint := c.baseURL + "/v1/deployments/" + url.PathEscape(instanceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return Status{}, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Status{}, configstore.ExternalResolutionError{Collaborator: "deployment service", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var status Status
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return Status{}, configstore.ExternalResolutionError{
				Collaborator: "deployment service",
				Err:          fmt.Errorf("decode status for %s: %w", instanceID, err),
			}
		}
		if status.State == "" {
			status.State = StateNotDeployed
		}
		return status, nil
	case http.StatusNotFound:
		return Status{State: StateNotDeployed}, nil
	default:
		return Status{}, configstore.ExternalResolutionError{
			Collaborator: "deployment service",
			Err:          fmt.Errorf("status for %s: %w", instanceID, readAPIError(resp)),
		}
	}
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(body) == 0 {
		return errors.New(resp.Status)
	}
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			if msg := strings.TrimSpace(payload.Error); msg != "" {
				return errors.New(msg)
			}
		}
	}
	return errors.New(trimmed)
}
