package oasmocktest

import (
	"testing"

	"github.com/getmockd/oasmock/pkg/service"
	"github.com/getmockd/oasmock/pkg/state"
)

// ServiceHandle steers one service of a Server.
type ServiceHandle struct {
	t   testing.TB
	svc *service.Service
}

// Name returns the service name.
func (h *ServiceHandle) Name() string {
	return h.svc.Name()
}

// On starts a state for one operation. endpoint is a path template as declared ("/pets/{petId}")
// or a concrete path ("/pets/1"); an empty method matches any method.
func (h *ServiceHandle) On(method, endpoint string) *StateBuilder {
	return &StateBuilder{
		handle: h,
		input:  state.Input{Method: method, Endpoint: endpoint, State: map[string]any{}},
	}
}

// State sets a state on every endpoint of the service. A failing update fails the test.
func (h *ServiceHandle) State(st map[string]any) *ServiceHandle {
	h.t.Helper()
	if err := h.svc.UpdateState(state.Input{State: st}); err != nil {
		h.t.Fatalf("failed to set state on %s: %v", h.svc.Name(), err)
	}
	return h
}

// States returns the states currently set.
func (h *ServiceHandle) States() []state.Entry {
	return h.svc.States()
}

// Reset removes every state of the service.
func (h *ServiceHandle) Reset() {
	h.svc.ResetState()
}

// Spy returns the calls the service answered.
func (h *ServiceHandle) Spy() *Spy {
	return &Spy{store: h.svc.Spy()}
}
