package mcpserver

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/getmockd/oasmock/pkg/engine/api"
	"github.com/getmockd/oasmock/pkg/state"
)

type noInput struct{}

type serviceInput struct {
	Service string `json:"service" jsonschema:"Name of the service (its directory name)"`
}

type servicesOutput struct {
	Services []api.ServiceInfo `json:"services"`
	Count    int               `json:"count"`
}

func (s *Server) handleListServices(_ context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, servicesOutput, error) {
	services, err := s.control.ListServices()
	if err != nil {
		return errResult(err), servicesOutput{}, nil
	}
	out := servicesOutput{Services: make([]api.ServiceInfo, 0, len(services)), Count: len(services)}
	out.Services = append(out.Services, services...)
	return nil, out, nil
}

type routesOutput struct {
	Service string          `json:"service"`
	Routes  []api.RouteInfo `json:"routes"`
}

func (s *Server) handleListRoutes(_ context.Context, _ *mcp.CallToolRequest, input serviceInput) (*mcp.CallToolResult, routesOutput, error) {
	routes, err := s.control.Routes(input.Service)
	if err != nil {
		return errResult(err), routesOutput{}, nil
	}
	out := routesOutput{Service: input.Service, Routes: make([]api.RouteInfo, 0, len(routes))}
	out.Routes = append(out.Routes, routes...)
	return nil, out, nil
}

type statesOutput struct {
	Service string           `json:"service"`
	States  []api.StateEntry `json:"states"`
}

func toStatesOutput(resp *api.StateListResponse) statesOutput {
	out := statesOutput{Service: resp.Service, States: make([]api.StateEntry, 0, len(resp.States))}
	out.States = append(out.States, resp.States...)
	return out
}

func (s *Server) handleGetState(_ context.Context, _ *mcp.CallToolRequest, input serviceInput) (*mcp.CallToolResult, statesOutput, error) {
	resp, err := s.control.States(input.Service)
	if err != nil {
		return errResult(err), statesOutput{}, nil
	}
	return nil, toStatesOutput(resp), nil
}

type setStateInput struct {
	Service  string         `json:"service"            jsonschema:"Name of the service"`
	Method   string         `json:"method,omitempty"   jsonschema:"HTTP method the state applies to (default: any)"`
	Endpoint string         `json:"endpoint,omitempty" jsonschema:"Concrete path or path template the state applies to (default: every endpoint)"`
	State    map[string]any `json:"state"              jsonschema:"Directives such as $code, $size and $times plus property values"`
}

func (s *Server) handleSetState(_ context.Context, _ *mcp.CallToolRequest, input setStateInput) (*mcp.CallToolResult, statesOutput, error) {
	resp, err := s.control.SetState(input.Service, state.Input{
		Method:   input.Method,
		Endpoint: input.Endpoint,
		State:    input.State,
	})
	if err != nil {
		return errResult(err), statesOutput{}, nil
	}
	return nil, toStatesOutput(resp), nil
}

type resetOutput struct {
	Reset string `json:"reset"`
}

func (s *Server) handleResetState(_ context.Context, _ *mcp.CallToolRequest, input serviceInput) (*mcp.CallToolResult, resetOutput, error) {
	if err := s.control.ResetState(input.Service); err != nil {
		return errResult(err), resetOutput{}, nil
	}
	return nil, resetOutput{Reset: input.Service}, nil
}

type listRequestsInput struct {
	Service string `json:"service,omitempty" jsonschema:"Only calls served by this service"`
	Method  string `json:"method,omitempty"  jsonschema:"Only calls with this HTTP method"`
	Path    string `json:"path,omitempty"    jsonschema:"Only calls whose path contains this text"`
	Status  int    `json:"status,omitempty"  jsonschema:"Only calls answered with this status code"`
	Where   string `json:"where,omitempty"   jsonschema:"Boolean expression over entry fields, e.g. ResponseStatus >= 400"`
	Offset  int    `json:"offset,omitempty"  jsonschema:"Skip the first N calls (for pagination)"`
	Limit   int    `json:"limit,omitempty"   jsonschema:"Maximum number of calls to return (default 100)"`
}

type requestSummary struct {
	ID         string `json:"id"`
	Time       string `json:"time"`
	Service    string `json:"service,omitempty"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Operation  string `json:"operation,omitempty"`
	Status     int    `json:"status"`
	DurationMs int    `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type listRequestsOutput struct {
	Total    int              `json:"total"`
	Returned int              `json:"returned"`
	Requests []requestSummary `json:"requests"`
}

func (s *Server) handleListRequests(_ context.Context, _ *mcp.CallToolRequest, input listRequestsInput) (*mcp.CallToolResult, listRequestsOutput, error) {
	resp, err := s.control.ListRequests(&api.RequestFilter{
		Service: input.Service,
		Method:  input.Method,
		Path:    input.Path,
		Status:  input.Status,
		Where:   input.Where,
		Offset:  input.Offset,
		Limit:   input.Limit,
	})
	if err != nil {
		return errResult(err), listRequestsOutput{}, nil
	}
	out := listRequestsOutput{
		Total:    resp.Total,
		Returned: len(resp.Requests),
		Requests: make([]requestSummary, 0, len(resp.Requests)),
	}
	for _, e := range resp.Requests {
		out.Requests = append(out.Requests, requestSummary{
			ID:         e.ID,
			Time:       e.Timestamp.Format(time.RFC3339),
			Service:    e.Service,
			Method:     e.Method,
			Path:       e.Path,
			Operation:  e.Operation,
			Status:     e.ResponseStatus,
			DurationMs: e.DurationMs,
			Error:      e.Error,
		})
	}
	return nil, out, nil
}

type clearRequestsInput struct {
	Service string `json:"service,omitempty" jsonschema:"Only clear calls served by this service"`
}

type clearRequestsOutput struct {
	Cleared int `json:"cleared"`
}

func (s *Server) handleClearRequests(_ context.Context, _ *mcp.CallToolRequest, input clearRequestsInput) (*mcp.CallToolResult, clearRequestsOutput, error) {
	n, err := s.control.ClearRequests(input.Service)
	if err != nil {
		return errResult(err), clearRequestsOutput{}, nil
	}
	return nil, clearRequestsOutput{Cleared: n}, nil
}

func (s *Server) handleReset(_ context.Context, _ *mcp.CallToolRequest, _ noInput) (*mcp.CallToolResult, resetOutput, error) {
	if err := s.control.Reset(); err != nil {
		return errResult(err), resetOutput{}, nil
	}
	return nil, resetOutput{Reset: "all"}, nil
}
