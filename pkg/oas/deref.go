package oas

import (
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

const componentSchemaPrefix = "#/components/schemas/"

// Dereferencer resolves a document schema reference to an inline Schema node.
// It returns nil when the reference is nil or cannot be resolved.
type Dereferencer func(ref *openapi3.SchemaRef) *Schema

// NewDereferencer returns a Dereferencer bound to doc. Conversions are memoized per source
// schema instance, so repeated lookups return the same node and recursive schemas convert to
// cyclic node graphs instead of looping.
//
// External references must already be resolved by the kin-openapi loader; only local
// "#/components/schemas/..." references without a loaded value are followed here.
func NewDereferencer(doc *openapi3.T) Dereferencer {
	r := &resolver{
		doc:  doc,
		memo: make(map[*openapi3.Schema]*Schema),
	}
	return r.deref
}

// FromOpenAPI converts a single kin-openapi schema without a document context.
func FromOpenAPI(ref *openapi3.SchemaRef) *Schema {
	return NewDereferencer(nil)(ref)
}

type resolver struct {
	doc  *openapi3.T
	mu   sync.Mutex
	memo map[*openapi3.Schema]*Schema
}

func (r *resolver) deref(ref *openapi3.SchemaRef) *Schema {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(ref, 0)
}

// maxRefHops bounds chains of component references that alias each other.
const maxRefHops = 32

func (r *resolver) resolve(ref *openapi3.SchemaRef, hops int) *Schema {
	if ref == nil || hops > maxRefHops {
		return nil
	}
	if ref.Value != nil {
		return r.convert(ref.Value)
	}
	name, ok := strings.CutPrefix(ref.Ref, componentSchemaPrefix)
	if !ok || r.doc == nil || r.doc.Components == nil {
		return nil
	}
	return r.resolve(r.doc.Components.Schemas[name], hops+1)
}

func (r *resolver) convert(src *openapi3.Schema) *Schema {
	if s, ok := r.memo[src]; ok {
		return s
	}
	s := &Schema{
		Format:   src.Format,
		Pattern:  src.Pattern,
		Enum:     cloneSlice(src.Enum),
		Default:  CloneValue(src.Default),
		Example:  CloneValue(src.Example),
		Nullable: src.Nullable,
		Minimum:  clonePtr(src.Min),
		Maximum:  clonePtr(src.Max),
		Required: append([]string(nil), src.Required...),
	}
	r.memo[src] = s

	if types := src.Type.Slice(); len(types) > 0 {
		s.Type = types[0]
	}
	if src.MinLength > 0 {
		s.MinLength = Ptr(int(src.MinLength))
	}
	if src.MaxLength != nil {
		s.MaxLength = Ptr(int(*src.MaxLength))
	}
	if src.MinItems > 0 {
		s.MinItems = Ptr(int(src.MinItems))
	}
	if src.MaxItems != nil {
		s.MaxItems = Ptr(int(*src.MaxItems))
	}
	if len(src.Properties) > 0 {
		s.Properties = make(map[string]*Schema, len(src.Properties))
		for name, prop := range src.Properties {
			if node := r.resolve(prop, 0); node != nil {
				s.Properties[name] = node
			}
		}
	}
	s.Items = r.resolve(src.Items, 0)
	s.AllOf = r.resolveAll(src.AllOf)
	s.OneOf = r.resolveAll(src.OneOf)
	s.AnyOf = r.resolveAll(src.AnyOf)
	return s
}

func (r *resolver) resolveAll(refs openapi3.SchemaRefs) []*Schema {
	if len(refs) == 0 {
		return nil
	}
	out := make([]*Schema, 0, len(refs))
	for _, ref := range refs {
		if node := r.resolve(ref, 0); node != nil {
			out = append(out, node)
		}
	}
	return out
}

// ResponseMedia collects the response schemas of an operation as a CodeToMedia. Content types
// without a schema map to nil so callers can report them.
func ResponseMedia(op *openapi3.Operation, deref Dereferencer) CodeToMedia {
	out := make(CodeToMedia)
	if op == nil || op.Responses == nil {
		return out
	}
	for code, ref := range op.Responses.Map() {
		media := make(map[string]*Schema)
		if ref != nil && ref.Value != nil {
			for contentType, mt := range ref.Value.Content {
				if mt == nil {
					media[contentType] = nil
					continue
				}
				media[contentType] = deref(mt.Schema)
			}
		}
		out[code] = media
	}
	return out
}
