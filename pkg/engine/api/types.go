package api

import (
	"time"

	"github.com/getmockd/oasmock/pkg/httputil"
	"github.com/getmockd/oasmock/pkg/requestlog"
)

// ErrorResponse is the body of every error answer.
type ErrorResponse = httputil.ErrorResponse

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Services  int       `json:"services"`
	Timestamp time.Time `json:"timestamp"`
}

// ServiceInfo describes a loaded service.
type ServiceInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version,omitempty"`
	Routes  int    `json:"routes"`
	States  int    `json:"states"`
}

// ServiceListResponse is returned by GET /services.
type ServiceListResponse struct {
	Services []ServiceInfo `json:"services"`
	Count    int           `json:"count"`
}

// RouteInfo describes one operation of a service.
type RouteInfo struct {
	Method             string `json:"method"`
	Endpoint           string `json:"endpoint"`
	NormalizedEndpoint string `json:"normalizedEndpoint"`
	OperationID        string `json:"operationId,omitempty"`
	Summary            string `json:"summary,omitempty"`
}

// StateEntry is one stored state.
type StateEntry struct {
	Method   string         `json:"method"`
	Endpoint string         `json:"endpoint"`
	State    map[string]any `json:"state"`
}

// StateListResponse is returned by the state endpoints.
type StateListResponse struct {
	Service string       `json:"service"`
	States  []StateEntry `json:"states"`
}

// RequestListResponse is returned by GET /requests.
type RequestListResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
}

// ClearResponse reports removed entries.
type ClearResponse struct {
	Cleared int `json:"cleared"`
}
