package state

import (
	"encoding/json"

	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/oas"
)

// Transformer exposes a compiled state to the validator.
type Transformer interface {
	// Top returns the top-level directives.
	Top() Directives
	// IsEmpty reports whether there are neither directives nor body keys.
	IsEmpty() bool
	// Body returns a copy of the non-top-level part of the state, $size included.
	Body() map[string]any
	// Gen spreads the body over a response schema.
	Gen(schema *oas.Schema) *Overlay
}

// Compiled is the stored form of a state. It is immutable; a nil *Compiled is the empty state.
type Compiled struct {
	top  Directives
	body map[string]any
}

var _ Transformer = (*Compiled)(nil)

// Empty returns the empty compiled state.
func Empty() *Compiled {
	return &Compiled{body: map[string]any{}}
}

// Top returns the top-level directives.
func (c *Compiled) Top() Directives {
	if c == nil {
		return Directives{}
	}
	return Directives{Code: c.top.Code, Times: oas.CloneValue(c.top.Times)}
}

// IsEmpty reports whether the state carries nothing.
func (c *Compiled) IsEmpty() bool {
	return c == nil || (c.top.IsEmpty() && len(c.body) == 0)
}

// Body returns a copy of the body.
func (c *Compiled) Body() map[string]any {
	out := make(map[string]any)
	if c == nil {
		return out
	}
	for k, v := range c.body {
		out[k] = oas.CloneValue(v)
	}
	return out
}

// Gen spreads the body over schema.
func (c *Compiled) Gen(schema *oas.Schema) *Overlay {
	if c == nil {
		return &Overlay{}
	}
	return Spread(schema, c.body)
}

// WithTimes returns a copy whose $times counter is t. An Absent counter removes $times.
func (c *Compiled) WithTimes(t dsl.Times) *Compiled {
	out := &Compiled{top: c.Top(), body: c.Body()}
	out.top.Times = nil
	if t.IsActive() {
		out.top.Times = t.Remaining()
	}
	return out
}

// State returns the state object the compiled state was built from.
func (c *Compiled) State() map[string]any {
	out := c.Body()
	for k, v := range c.Top().Map() {
		out[k] = v
	}
	return out
}

// MarshalJSON renders the state object.
func (c *Compiled) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.State())
}
