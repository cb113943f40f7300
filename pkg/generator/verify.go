package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/oasmock/pkg/oas"
)

// Violation is one schema violation found by Verify.
type Violation struct {
	// Field is the dotted location of the offending value, empty for the root.
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// VerifyError lists the violations of a payload.
type VerifyError struct {
	Violations []Violation
}

func (e *VerifyError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		if v.Field == "" {
			parts[i] = v.Message
			continue
		}
		parts[i] = v.Field + ": " + v.Message
	}
	return "payload does not match schema: " + strings.Join(parts, "; ")
}

// Verify validates value against schema. OpenAPI nullable is honoured; sentinel properties
// are ignored.
func Verify(schema *oas.Schema, value any) error {
	compiled, err := compile(schema)
	if err != nil {
		return err
	}

	// Round-trip so numbers reach the validator in the shape it expects.
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	if err := compiled.Validate(instance); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			out := &VerifyError{}
			collect(verr, out)
			return out
		}
		return err
	}
	return nil
}

func compile(schema *oas.Schema) (*jsonschema.Schema, error) {
	doc, err := json.Marshal(toJSONSchema(schema, make(map[*oas.Schema]bool)))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource("schema.json", strings.NewReader(string(doc))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("schema.json")
}

// toJSONSchema renders schema as a JSON Schema document. A node met again on its own path is
// rendered as the empty schema.
func toJSONSchema(s *oas.Schema, onPath map[*oas.Schema]bool) map[string]any {
	out := map[string]any{}
	if s == nil || onPath[s] {
		return out
	}
	onPath[s] = true
	defer delete(onPath, s)

	if s.Type != "" {
		if s.Nullable {
			out["type"] = []string{s.Type, "null"}
		} else {
			out["type"] = s.Type
		}
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if s.Pattern != "" {
		out["pattern"] = s.Pattern
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Const != nil {
		out["const"] = s.Const
	}
	setPtr(out, "minimum", s.Minimum)
	setPtr(out, "maximum", s.Maximum)
	setPtr(out, "minLength", s.MinLength)
	setPtr(out, "maxLength", s.MaxLength)
	setPtr(out, "minItems", s.MinItems)
	setPtr(out, "maxItems", s.MaxItems)
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			if prop.Kind() == oas.KindSentinel {
				continue
			}
			props[name] = toJSONSchema(prop, onPath)
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = toJSONSchema(s.Items, onPath)
	}
	setList(out, "allOf", s.AllOf, onPath)
	setList(out, "oneOf", s.OneOf, onPath)
	setList(out, "anyOf", s.AnyOf, onPath)
	return out
}

func setPtr[T any](out map[string]any, key string, p *T) {
	if p != nil {
		out[key] = *p
	}
}

func setList(out map[string]any, key string, list []*oas.Schema, onPath map[*oas.Schema]bool) {
	if len(list) == 0 {
		return
	}
	items := make([]any, len(list))
	for i, s := range list {
		items[i] = toJSONSchema(s, onPath)
	}
	out[key] = items
}

func collect(err *jsonschema.ValidationError, out *VerifyError) {
	if len(err.Causes) == 0 {
		out.Violations = append(out.Violations, Violation{
			Field:   fieldFromPointer(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collect(cause, out)
	}
}

func fieldFromPointer(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	return strings.ReplaceAll(strings.TrimPrefix(path, "/"), "/", ".")
}
