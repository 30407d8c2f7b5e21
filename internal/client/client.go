// Package client talks to a running patchbay daemon over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patchbay-sh/patchbay/internal/config"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 8 << 10

	// EnvBaseURL and EnvToken override daemon discovery.
	EnvBaseURL = "PATCHBAY_BASE_URL"
	EnvToken   = "PATCHBAY_TOKEN"

	defaultBaseURL = "http://127.0.0.1:7777"
)

// ErrDaemonNotRunning indicates no daemon could be located.
var ErrDaemonNotRunning = errors.New("patchbay daemon is not running")

// RuntimeInfo is the discovery file the daemon writes on start.
type RuntimeInfo struct {
	PID       int    `json:"pid"`
	Binding   string `json:"binding"`
	Port      int    `json:"port"`
	StartedAt string `json:"started_at"`
}

// Client communicates with the daemon using HTTP plus a WebSocket event
// stream.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewWithBaseURL constructs a client bound to an explicit daemon address.
func NewWithBaseURL(baseURL, token string, transport http.RoundTripper) *Client {
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	if transport != nil {
		httpClient.Transport = transport
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

// New discovers the daemon address from the environment or the runtime
// file under the patchbay home.
func New() (*Client, error) {
	token := strings.TrimSpace(os.Getenv(EnvToken))
	if base := strings.TrimSpace(os.Getenv(EnvBaseURL)); base != "" {
		return NewWithBaseURL(base, token, nil), nil
	}

	info, err := ReadRuntimeInfo()
	if err != nil {
		if os.IsNotExist(err) {
			return NewWithBaseURL(defaultBaseURL, token, nil), nil
		}
		return nil, err
	}
	host := info.Binding
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	base := "http://" + host + ":" + strconv.Itoa(info.Port)
	return NewWithBaseURL(base, token, nil), nil
}

// ReadRuntimeInfo loads the daemon's runtime discovery file.
func ReadRuntimeInfo() (RuntimeInfo, error) {
	raw, err := os.ReadFile(config.GetPaths().Runtime)
	if err != nil {
		return RuntimeInfo{}, err
	}
	var info RuntimeInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return RuntimeInfo{}, fmt.Errorf("client: parse runtime file: %w", err)
	}
	if info.Port <= 0 {
		return RuntimeInfo{}, errors.New("client: runtime file has no port")
	}
	return info, nil
}

// BaseURL returns the daemon address the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the configured bearer token.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) attachToken(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// getJSON issues a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out, http.StatusOK)
}

// doJSON issues a request with an optional JSON body and decodes the
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, wantStatus int) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attachToken(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return readAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
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
				return &APIError{Status: resp.StatusCode, Message: msg}
			}
		}
	}
	return &APIError{Status: resp.StatusCode, Message: trimmed}
}

// APIError is a non-success response from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusOf returns the HTTP status of an API error, or zero when err is
// not one.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
