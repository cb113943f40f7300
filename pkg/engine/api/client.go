package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/oasmock/pkg/state"
)

// DefaultClientTimeout is the HTTP timeout of a Client without WithTimeout.
const DefaultClientTimeout = 30 * time.Second

// RequestFilter specifies filtering criteria for GET /requests.
type RequestFilter struct {
	Service   string
	Method    string
	Path      string
	Status    int
	HasError  *bool
	BodyPath  string
	BodyValue string
	Where     string
	Limit     int
	Offset    int
}

// APIError represents an error response from the control API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Hint       string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsConnectionError reports whether err means the control API could not be reached.
func IsConnectionError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == "connection_error"
}

// Client talks to a running control API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP timeout for the client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the control API at baseURL, e.g. "http://localhost:8081".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks if the server is running.
func (c *Client) Health() (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(http.MethodGet, "/health", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListServices returns the loaded services.
func (c *Client) ListServices() ([]ServiceInfo, error) {
	var out ServiceListResponse
	if err := c.do(http.MethodGet, "/services", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

// Routes returns the operations of a service.
func (c *Client) Routes(service string) ([]RouteInfo, error) {
	var out []RouteInfo
	if err := c.do(http.MethodGet, servicePath(service, "/routes"), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// States returns the stored states of a service.
func (c *Client) States(service string) (*StateListResponse, error) {
	var out StateListResponse
	if err := c.do(http.MethodGet, servicePath(service, "/state"), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetState applies a state update to a service.
func (c *Client) SetState(service string, input state.Input) (*StateListResponse, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	var out StateListResponse
	if err := c.do(http.MethodPost, servicePath(service, "/state"), body, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetState removes every stored state of a service.
func (c *Client) ResetState(service string) error {
	return c.do(http.MethodDelete, servicePath(service, "/state"), nil, http.StatusOK, nil)
}

// ListRequests returns tracked calls with optional filtering.
func (c *Client) ListRequests(filter *RequestFilter) (*RequestListResponse, error) {
	path := "/requests"
	if params := filter.values(); len(params) > 0 {
		path += "?" + params.Encode()
	}
	var out RequestListResponse
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearRequests deletes tracked calls, of one service when service is not empty.
func (c *Client) ClearRequests(service string) (int, error) {
	path := "/requests"
	if service != "" {
		path += "?" + url.Values{"service": {service}}.Encode()
	}
	var out ClearResponse
	if err := c.do(http.MethodDelete, path, nil, http.StatusOK, &out); err != nil {
		return 0, err
	}
	return out.Cleared, nil
}

// Reset clears the states of all services and the request history.
func (c *Client) Reset() error {
	return c.do(http.MethodPost, "/reset", nil, http.StatusNoContent, nil)
}

func (f *RequestFilter) values() url.Values {
	params := url.Values{}
	if f == nil {
		return params
	}
	if f.Service != "" {
		params.Set("service", f.Service)
	}
	if f.Method != "" {
		params.Set("method", f.Method)
	}
	if f.Path != "" {
		params.Set("path", f.Path)
	}
	if f.Status > 0 {
		params.Set("status", strconv.Itoa(f.Status))
	}
	if f.HasError != nil {
		params.Set("hasError", strconv.FormatBool(*f.HasError))
	}
	if f.BodyPath != "" {
		params.Set("bodyPath", f.BodyPath)
	}
	if f.BodyValue != "" {
		params.Set("bodyValue", f.BodyValue)
	}
	if f.Where != "" {
		params.Set("where", f.Where)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}
	return params
}

func servicePath(service, suffix string) string {
	return "/services/" + url.PathEscape(service) + suffix
}

// do performs a request and decodes the answer into out when it is not nil.
func (c *Client) do(method, path string, body []byte, want int, out any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{
			ErrorCode: "connection_error",
			Message:   fmt.Sprintf("cannot connect to control API at %s: %v", c.baseURL, err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		return parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  errResp.Error,
			Message:    errResp.Message,
			Hint:       errResp.Hint,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  "unknown_error",
		Message:    fmt.Sprintf("server returned status %d: %s", resp.StatusCode, string(body)),
	}
}
