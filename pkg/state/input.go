package state

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getmockd/oasmock/internal/jsonvalue"
	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/oas"
)

// Defaults applied to Input.
const (
	AnyMethod    = "any"
	AllEndpoints = "**"
)

// ErrInvalidState is wrapped by errors about malformed state objects.
var ErrInvalidState = errors.New("invalid state")

// Input is a state update as written by a test author.
type Input struct {
	// Method restricts the state to one HTTP method. Defaults to "any".
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
	// Endpoint is a concrete path or a path template. Defaults to "**", every endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// State holds directives and property constraints.
	State map[string]any `json:"state" yaml:"state"`
}

// Normalize returns a copy with defaults applied and the method lower-cased.
func (in Input) Normalize() Input {
	out := in
	out.Method = strings.ToLower(strings.TrimSpace(in.Method))
	if out.Method == "" {
		out.Method = AnyMethod
	}
	out.Endpoint = strings.TrimSpace(in.Endpoint)
	if out.Endpoint == "" {
		out.Endpoint = AllEndpoints
	}
	return out
}

// Directives are the top-level directives of a compiled state.
type Directives struct {
	// Code is the status code selected with $code.
	Code *int
	// Times is the raw $times value. It is interpreted by the DSL compiler, so malformed values
	// survive compilation in relaxed mode and are ignored later.
	Times any
}

// IsEmpty reports whether no directive is set.
func (d Directives) IsEmpty() bool {
	return d.Code == nil && d.Times == nil
}

// HasTimes reports whether $times is set.
func (d Directives) HasTimes() bool {
	return d.Times != nil
}

// CodeString returns $code as a response key, or "" when unset.
func (d Directives) CodeString() string {
	if d.Code == nil {
		return ""
	}
	return strconv.Itoa(*d.Code)
}

// Map returns the directives keyed by their DSL names.
func (d Directives) Map() map[string]any {
	out := make(map[string]any, 2)
	if d.Code != nil {
		out[dsl.KeyCode] = *d.Code
	}
	if d.Times != nil {
		out[dsl.KeyTimes] = oas.CloneValue(d.Times)
	}
	return out
}

// Compile splits state into directives and body. $code must be an integer; $times is checked
// by compiler, which rejects malformed values only in strict mode. The result shares no storage
// with state.
func Compile(state map[string]any, compiler dsl.Compiler) (*Compiled, error) {
	c := &Compiled{body: make(map[string]any, len(state))}

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := state[key]
		switch key {
		case dsl.KeyCode:
			if value == nil {
				continue
			}
			code, err := parseCode(value)
			if err != nil {
				return nil, err
			}
			c.top.Code = &code
		case dsl.KeyTimes:
			if value == nil {
				continue
			}
			if _, err := compiler.TranslateTopLevelToOAS(map[string]any{key: value}, oas.CodeToMedia{}); err != nil {
				return nil, err
			}
			c.top.Times = oas.CloneValue(value)
		default:
			c.body[key] = oas.CloneValue(value)
		}
	}
	return c, nil
}

func parseCode(value any) (int, error) {
	if s, ok := value.(string); ok {
		if code, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return code, nil
		}
	} else if jsonvalue.IsInteger(value) {
		code, _ := jsonvalue.Round(value)
		return code, nil
	}
	return 0, fmt.Errorf("%w: $code must be an integer status code, got %v", ErrInvalidState, value)
}
