package oas

// JSON Schema type names used by the engine.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"

	// TypeSentinel marks synthetic properties that carry DSL state inside a schema.
	// Nodes of this type never reach the instance generator.
	TypeSentinel = "unmock"
)

// Kind classifies a Schema node for structural recursion.
type Kind int

// Schema kinds.
const (
	KindUnknown Kind = iota
	KindObject
	KindArray
	KindScalar
	KindSentinel
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	case KindSentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

// Schema is a JSON-Schema-like node.
//
// Nodes are treated as immutable once built: every transformation in the engine returns new
// nodes. Const is considered unset when nil.
type Schema struct {
	Type       string             `json:"type,omitempty" yaml:"type,omitempty"`
	Format     string             `json:"format,omitempty" yaml:"format,omitempty"`
	Pattern    string             `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Enum       []any              `json:"enum,omitempty" yaml:"enum,omitempty"`
	Const      any                `json:"const,omitempty" yaml:"const,omitempty"`
	Default    any                `json:"default,omitempty" yaml:"default,omitempty"`
	Example    any                `json:"example,omitempty" yaml:"example,omitempty"`
	Nullable   bool               `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Minimum    *float64           `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum    *float64           `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MinLength  *int               `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength  *int               `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MinItems   *int               `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems   *int               `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	Required   []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	AllOf      []*Schema          `json:"allOf,omitempty" yaml:"allOf,omitempty"`
	OneOf      []*Schema          `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
	AnyOf      []*Schema          `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
}

// Kind reports which variant the node is. Untyped nodes are classified by shape.
func (s *Schema) Kind() Kind {
	if s == nil {
		return KindUnknown
	}
	switch s.Type {
	case TypeSentinel:
		return KindSentinel
	case TypeArray:
		return KindArray
	case TypeObject:
		return KindObject
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return KindScalar
	}
	if s.Items != nil {
		return KindArray
	}
	if len(s.AllProperties()) > 0 {
		return KindObject
	}
	return KindUnknown
}

// IsEmpty reports whether the node carries no keywords at all.
func (s *Schema) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Type == "" && s.Format == "" && s.Pattern == "" && len(s.Enum) == 0 &&
		s.Const == nil && s.Default == nil && s.Example == nil && !s.Nullable &&
		s.Minimum == nil && s.Maximum == nil && s.MinLength == nil && s.MaxLength == nil &&
		s.MinItems == nil && s.MaxItems == nil && len(s.Required) == 0 &&
		len(s.Properties) == 0 && s.Items == nil &&
		len(s.AllOf) == 0 && len(s.OneOf) == 0 && len(s.AnyOf) == 0
}

// Property returns the named property or nil.
func (s *Schema) Property(name string) *Schema {
	if s == nil || s.Properties == nil {
		return nil
	}
	return s.Properties[name]
}

// Lookup returns the named property, searching allOf members when the node does not declare it
// itself.
func (s *Schema) Lookup(name string) *Schema {
	if s == nil {
		return nil
	}
	if p := s.Properties[name]; p != nil || len(s.AllOf) == 0 {
		return p
	}
	return s.AllProperties()[name]
}

// AllProperties returns the node's properties merged with those of its allOf members. Own
// properties win over inherited ones.
func (s *Schema) AllProperties() map[string]*Schema {
	if s == nil {
		return nil
	}
	if len(s.AllOf) == 0 {
		return s.Properties
	}
	out := make(map[string]*Schema)
	s.collectProperties(out, make(map[*Schema]bool))
	return out
}

func (s *Schema) collectProperties(out map[string]*Schema, seen map[*Schema]bool) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true
	for name, p := range s.Properties {
		if _, ok := out[name]; !ok {
			out[name] = p
		}
	}
	for _, member := range s.AllOf {
		member.collectProperties(out, seen)
	}
}

// Clone returns a deep copy of the node. Cycles in the source are preserved as cycles in the
// copy.
func (s *Schema) Clone() *Schema {
	return s.clone(make(map[*Schema]*Schema))
}

func (s *Schema) clone(seen map[*Schema]*Schema) *Schema {
	if s == nil {
		return nil
	}
	if c, ok := seen[s]; ok {
		return c
	}
	c := s.Facets()
	seen[s] = c
	if s.Properties != nil {
		c.Properties = make(map[string]*Schema, len(s.Properties))
		for name, prop := range s.Properties {
			c.Properties[name] = prop.clone(seen)
		}
	}
	c.Items = s.Items.clone(seen)
	c.AllOf = cloneList(s.AllOf, seen)
	c.OneOf = cloneList(s.OneOf, seen)
	c.AnyOf = cloneList(s.AnyOf, seen)
	return c
}

// Facets returns a copy of the node's own keywords without any child schemas
// (properties, items, composition).
func (s *Schema) Facets() *Schema {
	if s == nil {
		return nil
	}
	return &Schema{
		Type:      s.Type,
		Format:    s.Format,
		Pattern:   s.Pattern,
		Enum:      cloneSlice(s.Enum),
		Const:     CloneValue(s.Const),
		Default:   CloneValue(s.Default),
		Example:   CloneValue(s.Example),
		Nullable:  s.Nullable,
		Minimum:   clonePtr(s.Minimum),
		Maximum:   clonePtr(s.Maximum),
		MinLength: clonePtr(s.MinLength),
		MaxLength: clonePtr(s.MaxLength),
		MinItems:  clonePtr(s.MinItems),
		MaxItems:  clonePtr(s.MaxItems),
		Required:  append([]string(nil), s.Required...),
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func cloneList(list []*Schema, seen map[*Schema]*Schema) []*Schema {
	if list == nil {
		return nil
	}
	out := make([]*Schema, len(list))
	for i, s := range list {
		out[i] = s.clone(seen)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice(in []any) []any {
	if in == nil {
		return nil
	}
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies JSON-shaped data (maps, slices and scalars).
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case []any:
		return cloneSlice(val)
	default:
		return v
	}
}
