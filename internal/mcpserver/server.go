// Package mcpserver exposes the oasmock control API as MCP (Model Context Protocol) tools over
// stdio, so agents can shape mock answers and inspect tracked calls of a running server.
package mcpserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/getmockd/oasmock/pkg/engine/api"
	"github.com/getmockd/oasmock/pkg/state"
)

const serverInstructions = `oasmock MCP server: controls a running oasmock mock server through its control API.

Each loaded service answers requests with payloads generated from its OpenAPI document. A state
narrows those payloads for one endpoint (or all of them): "$code" picks the status code, "$size"
the length of an array, "$times" how many calls the state lasts, and plain properties fix
values. Use list_routes to find endpoints, set_state to shape answers and list_requests to check
which calls the system under test made.`

// Control is the part of the control API client the tools use.
type Control interface {
	ListServices() ([]api.ServiceInfo, error)
	Routes(service string) ([]api.RouteInfo, error)
	States(service string) (*api.StateListResponse, error)
	SetState(service string, input state.Input) (*api.StateListResponse, error)
	ResetState(service string) error
	ListRequests(filter *api.RequestFilter) (*api.RequestListResponse, error)
	ClearRequests(service string) (int, error)
	Reset() error
}

// Server holds the tools bound to one control API.
type Server struct {
	control Control
	version string
}

// New creates a server backed by control.
func New(control Control, version string) *Server {
	return &Server{control: control, version: version}
}

// Run serves over stdio and blocks until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Connect(ctx, &mcp.StdioTransport{})
}

// Connect serves over transport until the session ends.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "oasmock", Version: s.version},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	s.register(server)
	return server.Run(ctx, transport)
}

func (s *Server) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_services",
		Description: "List the services loaded by the mock server with their route and state counts.",
	}, s.handleListServices)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_routes",
		Description: "List the operations of a service: method, declared endpoint, normalized endpoint and operationId. Use the endpoint values as set_state targets.",
	}, s.handleListRoutes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_state",
		Description: "Show the states currently set on a service.",
	}, s.handleGetState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_state",
		Description: `Set a state on a service. The state is validated against the response schemas of every matching operation before it is stored. Examples: {"$code": 404}, {"$size": 3, "name": "Fluffy"}, {"$times": 1, "$code": 500}. Omit method to match any method and endpoint to match every endpoint.`,
	}, s.handleSetState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_state",
		Description: "Remove every state of a service so it answers with unconstrained payloads again.",
	}, s.handleResetState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_requests",
		Description: "List tracked calls, newest first. Filter by service, method, path, status code or an expression over the entry fields (where). Use offset/limit to paginate.",
	}, s.handleListRequests)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_requests",
		Description: "Remove tracked calls, of one service when service is set, otherwise of all services.",
	}, s.handleClearRequests)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset",
		Description: "Reset the states and tracked calls of every service.",
	}, s.handleReset)
}

// errResult creates an MCP error result from an error. Control API errors keep their hint.
func errResult(err error) *mcp.CallToolResult {
	text := err.Error()
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Hint != "" {
		text += "\nHint: " + apiErr.Hint
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
