package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/oasmock/internal/testutil"
	"github.com/getmockd/oasmock/pkg/engine/api"
	"github.com/getmockd/oasmock/pkg/requestlog"
	"github.com/getmockd/oasmock/pkg/service"
)

// startTestSession serves the tools over in-memory transports against a control API holding
// the petstore service.
func startTestSession(t *testing.T) (*mcp.ClientSession, *service.Registry) {
	t.Helper()

	reg := service.NewRegistry()
	require.NoError(t, reg.Add(service.New("petstore", testutil.Petstore(t), service.WithTracker(reg.Requests()))))
	control := httptest.NewServer(api.New(reg))
	t.Cleanup(control.Close)

	server := New(api.NewClient(control.URL), "test")
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Connect(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})
	return session, reg
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func structured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, "tool failed: %v", result.Content)
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return text.Text
}

func TestServer_ListTools(t *testing.T) {
	session, _ := startTestSession(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, "tool %q has empty description", tool.Name)
	}
	for _, name := range []string{
		"list_services", "list_routes", "get_state", "set_state",
		"reset_state", "list_requests", "clear_requests", "reset",
	} {
		assert.True(t, slices.Contains(names, name), "missing tool: %s", name)
	}
	assert.Len(t, result.Tools, 8)
}

func TestServer_ListServices(t *testing.T) {
	session, _ := startTestSession(t)

	out := structured(t, callTool(t, session, "list_services", nil))

	assert.Equal(t, float64(1), out["count"])
	services := out["services"].([]any)
	require.Len(t, services, 1)
	assert.Equal(t, "petstore", services[0].(map[string]any)["name"])
}

func TestServer_ListRoutes(t *testing.T) {
	session, _ := startTestSession(t)

	out := structured(t, callTool(t, session, "list_routes", map[string]any{"service": "petstore"}))
	assert.Len(t, out["routes"], 3)

	text := errorText(t, callTool(t, session, "list_routes", map[string]any{"service": "zoo"}))
	assert.Contains(t, text, `service "zoo" not found`)
}

func TestServer_SetAndResetState(t *testing.T) {
	session, reg := startTestSession(t)
	svc, err := reg.Get("petstore")
	require.NoError(t, err)

	out := structured(t, callTool(t, session, "set_state", map[string]any{
		"service":  "petstore",
		"method":   "get",
		"endpoint": "/pets/{petId}",
		"state":    map[string]any{"$code": 404},
	}))
	assert.Equal(t, "petstore", out["service"])
	assert.Len(t, out["states"], 1)
	assert.Len(t, svc.States(), 1)

	got := structured(t, callTool(t, session, "get_state", map[string]any{"service": "petstore"}))
	assert.Len(t, got["states"], 1)

	structured(t, callTool(t, session, "reset_state", map[string]any{"service": "petstore"}))
	assert.Empty(t, svc.States())
}

func TestServer_SetStateUnknownEndpoint(t *testing.T) {
	session, _ := startTestSession(t)

	text := errorText(t, callTool(t, session, "set_state", map[string]any{
		"service":  "petstore",
		"endpoint": "/owners",
		"state":    map[string]any{"$code": 200},
	}))
	assert.Contains(t, text, "Can't find endpoint '/owners' in 'petstore'")
}

func TestServer_Requests(t *testing.T) {
	session, reg := startTestSession(t)
	svc, err := reg.Get("petstore")
	require.NoError(t, err)
	svc.Track(&requestlog.Entry{Method: "GET", Path: "/v1/pets", ResponseStatus: 200})
	svc.Track(&requestlog.Entry{Method: "GET", Path: "/v1/pets/1", ResponseStatus: 404})
	reg.Requests().Log(&requestlog.Entry{Method: "GET", Path: "/nope", ResponseStatus: 404, Error: "no match"})

	out := structured(t, callTool(t, session, "list_requests", map[string]any{"service": "petstore"}))
	assert.Equal(t, float64(2), out["total"])
	assert.Equal(t, float64(2), out["returned"])
	first := out["requests"].([]any)[0].(map[string]any)
	assert.Equal(t, "/v1/pets/1", first["path"])
	assert.Equal(t, float64(404), first["status"])

	out = structured(t, callTool(t, session, "list_requests", map[string]any{"where": `Error != ""`}))
	assert.Equal(t, float64(1), out["returned"])

	cleared := structured(t, callTool(t, session, "clear_requests", map[string]any{"service": "petstore"}))
	assert.Equal(t, float64(2), cleared["cleared"])
	assert.Equal(t, 1, reg.Requests().Count())

	structured(t, callTool(t, session, "reset", nil))
	assert.Zero(t, reg.Requests().Count())
}

func TestErrResult(t *testing.T) {
	result := errResult(&api.APIError{Message: "boom", Hint: "try again"})
	assert.True(t, result.IsError)
	assert.Equal(t, "boom\nHint: try again", result.Content[0].(*mcp.TextContent).Text)

	result = errResult(errors.New("plain"))
	assert.Equal(t, "plain", result.Content[0].(*mcp.TextContent).Text)
}
