package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/state"
)

// CodePolicy selects the status codes a state applies to when it does not set $code.
type CodePolicy int

const (
	// AllCodes applies the state to every declared status code.
	AllCodes CodePolicy = iota
	// PrimaryCode applies the state to the lowest 2xx code, or to the first declared code when
	// there is none.
	PrimaryCode
)

func (p CodePolicy) String() string {
	if p == PrimaryCode {
		return "primary"
	}
	return "all"
}

// ParseCodePolicy parses "all" or "primary". The empty string is AllCodes.
func ParseCodePolicy(s string) (CodePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return AllCodes, nil
	case "primary":
		return PrimaryCode, nil
	default:
		return AllCodes, fmt.Errorf("unknown code policy %q (expected all or primary)", s)
	}
}

// Result holds either the constrained responses or an error, never both.
type Result struct {
	// Responses maps status code to content type to fragment. It is nil when the state is empty
	// and the response is left to default generation.
	Responses oas.CodeToMedia
	Err       error
}

// OK reports whether resolution succeeded.
func (r *Result) OK() bool {
	return r.Err == nil
}

type options struct {
	compiler dsl.Compiler
	policy   CodePolicy
}

// Option configures Resolve.
type Option func(*options)

// WithCompiler sets the DSL compiler, and with it the directive mode. Defaults to relaxed.
func WithCompiler(c dsl.Compiler) Option {
	return func(o *options) {
		o.compiler = c
	}
}

// WithCodePolicy sets the status code policy. Defaults to AllCodes.
func WithCodePolicy(p CodePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// Resolve checks the state exposed by t against the responses of op.
//
// With $code only that status code is considered, and it must be declared. An empty state
// without $code resolves to nil responses. Otherwise every applicable status code and content
// type must have a schema, and every state key must resolve to a single declared property with a
// compatible type. Status codes are visited in numeric order and content types lexically, so the
// first error reported is stable.
func Resolve(op *openapi3.Operation, t state.Transformer, deref oas.Dereferencer, opts ...Option) *Result {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if deref == nil {
		deref = oas.FromOpenAPI
	}

	declared := oas.ResponseMedia(op, deref)
	top := t.Top()

	var codes []string
	if code := top.CodeString(); code != "" {
		if _, ok := declared[code]; !ok {
			return &Result{Err: &Error{Err: ErrUnknownCode, Code: code}}
		}
		codes = []string{code}
	} else {
		if t.IsEmpty() {
			return &Result{}
		}
		codes = declared.Codes()
		if o.policy == PrimaryCode {
			codes = primary(codes)
		}
	}

	responses := make(oas.CodeToMedia, len(codes))
	for _, code := range codes {
		media := declared[code]
		fragments := make(map[string]*oas.Schema, len(media))
		for _, contentType := range oas.SortedKeys(media) {
			schema := media[contentType]
			if schema == nil {
				return &Result{Err: &Error{Err: ErrMissingSchema, Code: code, ContentType: contentType}}
			}
			fragment, err := constrain(schema, t.Gen(schema), o.compiler)
			if err != nil {
				return &Result{Err: err}
			}
			fragments[contentType] = fragment
		}
		responses[code] = fragments
	}
	return &Result{Responses: responses}
}

// constrain builds the fragment for node from the overlay spread onto it.
func constrain(node *oas.Schema, overlay *state.Overlay, compiler dsl.Compiler) (*oas.Schema, error) {
	out := &oas.Schema{}
	if overlay == nil {
		return out, nil
	}

	if overlay.HasSize {
		tr, err := compiler.TranslateDSLToOAS(map[string]any{dsl.KeySize: overlay.Size}, node)
		if err != nil {
			return nil, err
		}
		out.MinItems = tr.Translated.MinItems
		out.MaxItems = tr.Translated.MaxItems
	}
	if len(overlay.Unresolved) > 0 {
		return nil, &Error{Err: ErrUnresolvedKey, Key: overlay.Unresolved[0]}
	}

	for _, name := range oas.SortedKeys(overlay.Properties) {
		child := overlay.Properties[name]
		if child == nil {
			return nil, &Error{Err: ErrUnresolvedKey, Key: name}
		}
		prop := node.Lookup(name)
		var fragment *oas.Schema
		if child.IsLeaf {
			fragment = prop.Facets()
			fragment.Const = oas.CloneValue(child.Value)
		} else {
			var err error
			if fragment, err = constrain(prop, child, compiler); err != nil {
				return nil, err
			}
		}
		if out.Properties == nil {
			out.Properties = make(map[string]*oas.Schema)
		}
		out.Properties[name] = fragment
	}

	if overlay.Items != nil {
		items, err := constrain(node.Items, overlay.Items, compiler)
		if err != nil {
			return nil, err
		}
		out.Items = items
	}
	return out, nil
}

func primary(codes []string) []string {
	for _, code := range codes {
		if n, err := strconv.Atoi(code); err == nil && n >= 200 && n < 300 {
			return []string{code}
		}
	}
	for _, code := range codes {
		if strings.EqualFold(code, "2XX") {
			return []string{code}
		}
	}
	if len(codes) == 0 {
		return codes
	}
	return codes[:1]
}
