package oasmocktest

import (
	"fmt"
	"maps"

	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/state"
)

// StateBuilder builds a state using a fluent API. Nothing is sent to the service until Apply.
type StateBuilder struct {
	handle *ServiceHandle
	input  state.Input
	err    error // First error encountered during building
}

// setError records the first error encountered during building.
func (b *StateBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *StateBuilder) Err() error {
	return b.err
}

// Code answers with the given status code. The code must be declared by the operation.
func (b *StateBuilder) Code(code int) *StateBuilder {
	if code < 100 || code > 599 {
		b.setError(fmt.Errorf("Code: invalid status code %d", code))
		return b
	}
	b.input.State[dsl.KeyCode] = code
	return b
}

// Times limits the state to the next n matching calls.
func (b *StateBuilder) Times(n int) *StateBuilder {
	if n < 1 {
		b.setError(fmt.Errorf("Times: must be at least 1, got %d", n))
		return b
	}
	b.input.State[dsl.KeyTimes] = n
	return b
}

// Once is a convenience method for Times(1).
func (b *StateBuilder) Once() *StateBuilder {
	return b.Times(1)
}

// Twice is a convenience method for Times(2).
func (b *StateBuilder) Twice() *StateBuilder {
	return b.Times(2)
}

// Size fixes the length of the response array.
func (b *StateBuilder) Size(n int) *StateBuilder {
	if n < 0 {
		b.setError(fmt.Errorf("Size: must not be negative, got %d", n))
		return b
	}
	b.input.State[dsl.KeySize] = n
	return b
}

// Set fixes the value of a response property. Nested objects are given as maps.
func (b *StateBuilder) Set(property string, value any) *StateBuilder {
	b.input.State[property] = value
	return b
}

// With merges a raw state, directives included, into the builder.
func (b *StateBuilder) With(st map[string]any) *StateBuilder {
	maps.Copy(b.input.State, st)
	return b
}

// TryApply sets the state and returns the build or update error.
func (b *StateBuilder) TryApply() error {
	if b.err != nil {
		return b.err
	}
	return b.handle.svc.UpdateState(b.input)
}

// Apply sets the state and fails the test on error.
// Returns the ServiceHandle for chaining.
func (b *StateBuilder) Apply() *ServiceHandle {
	b.handle.t.Helper()
	if err := b.TryApply(); err != nil {
		b.handle.t.Fatalf("failed to set state on %s %s %s: %v", b.handle.svc.Name(), b.input.Method, b.input.Endpoint, err)
	}
	return b.handle
}
