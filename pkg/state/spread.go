package state

import (
	"github.com/getmockd/oasmock/internal/jsonvalue"
	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/oas"
)

// Overlay is a state object relocated onto a schema tree.
//
// A nil entry in Properties marks a property whose supplied value conflicts with the declared
// type. Unresolved lists keys that have no single declaring position below this node.
type Overlay struct {
	Properties map[string]*Overlay
	Items      *Overlay
	Size       any
	HasSize    bool
	Unresolved []string
	Value      any
	IsLeaf     bool
}

// IsEmpty reports whether the overlay carries nothing.
func (o *Overlay) IsEmpty() bool {
	return o == nil || (len(o.Properties) == 0 && o.Items == nil && !o.HasSize &&
		len(o.Unresolved) == 0 && !o.IsLeaf)
}

// Map renders the overlay as JSON-shaped data: nested "properties" and "items" objects, the
// supplied values at leaves and nil for unresolved or mismatched keys.
func (o *Overlay) Map() map[string]any {
	out := make(map[string]any)
	if o == nil {
		return out
	}
	if len(o.Properties) > 0 {
		props := make(map[string]any, len(o.Properties))
		for name, child := range o.Properties {
			props[name] = child.render()
		}
		out["properties"] = props
	}
	if o.Items != nil {
		out["items"] = o.Items.render()
	}
	if o.HasSize {
		out[dsl.KeySize] = o.Size
	}
	for _, key := range o.Unresolved {
		out[key] = nil
	}
	return out
}

func (o *Overlay) render() any {
	if o == nil {
		return nil
	}
	if o.IsLeaf {
		return o.Value
	}
	return o.Map()
}

// Spread relocates every key of state onto schema.
//
// A key declared directly on the node stays there. Otherwise the key moves to the single
// position below the node where a property of that name is declared; with no or several such
// positions it is unresolved. Object values are spread again relative to the property they
// land on. On array nodes $size stays with the node and the other keys are spread over the
// items. $size is kept on whatever node it is given for; the DSL compiler decides whether it
// applies.
func Spread(schema *oas.Schema, state map[string]any) *Overlay {
	o := &Overlay{}
	o.spread(schema, state)
	return o
}

func (o *Overlay) spread(node *oas.Schema, state map[string]any) {
	rest := make(map[string]any, len(state))
	for key, value := range state {
		if key == dsl.KeySize {
			o.Size, o.HasSize = oas.CloneValue(value), true
			continue
		}
		rest[key] = value
	}
	if len(rest) == 0 {
		return
	}
	if node.Kind() == oas.KindArray && node.Items != nil {
		if o.Items == nil || o.Items.IsLeaf {
			o.Items = &Overlay{}
		}
		o.Items.spread(node.Items, rest)
		return
	}

	for _, key := range oas.SortedKeys(rest) {
		path, ok := locate(node, key)
		if !ok {
			o.Unresolved = append(o.Unresolved, key)
			continue
		}
		o.place(node, path, rest[key])
	}
}

// step is one edge of a path through a schema tree: a property name, or the items of an array
// when name is empty.
type step struct {
	name string
}

var itemsStep = step{}

func locate(node *oas.Schema, key string) ([]step, bool) {
	if node.Lookup(key) != nil {
		return []step{{name: key}}, true
	}
	var found [][]step
	search(node, key, nil, make(map[*oas.Schema]bool), &found)
	if len(found) != 1 {
		return nil, false
	}
	return found[0], true
}

// search collects the paths below node that end on a property named key. It stops as soon as
// the key is known to be ambiguous. A node is visited at most once per path.
func search(node *oas.Schema, key string, path []step, onPath map[*oas.Schema]bool, found *[][]step) {
	if node == nil || onPath[node] || len(*found) > 1 {
		return
	}
	onPath[node] = true
	defer delete(onPath, node)

	props := node.AllProperties()
	for _, name := range oas.SortedKeys(props) {
		child := props[name]
		if child.Kind() == oas.KindSentinel {
			continue
		}
		next := append(append([]step(nil), path...), step{name: name})
		if name == key {
			*found = append(*found, next)
		}
		search(child, key, next, onPath, found)
	}
	if node.Items != nil {
		search(node.Items, key, append(append([]step(nil), path...), itemsStep), onPath, found)
	}
}

func (o *Overlay) place(node *oas.Schema, path []step, value any) {
	cur, schema := o, node
	for _, st := range path[:len(path)-1] {
		if st == itemsStep {
			if cur.Items == nil || cur.Items.IsLeaf {
				cur.Items = &Overlay{}
			}
			cur, schema = cur.Items, schema.Items
			continue
		}
		cur, schema = cur.child(st.name), schema.Lookup(st.name)
	}
	name := path[len(path)-1].name
	cur.assign(name, schema.Lookup(name), value)
}

func (o *Overlay) child(name string) *Overlay {
	if o.Properties == nil {
		o.Properties = make(map[string]*Overlay)
	}
	if existing := o.Properties[name]; existing != nil && !existing.IsLeaf {
		return existing
	}
	c := &Overlay{}
	o.Properties[name] = c
	return c
}

func (o *Overlay) assign(name string, target *oas.Schema, value any) {
	if o.Properties == nil {
		o.Properties = make(map[string]*Overlay)
	}
	if nested, ok := value.(map[string]any); ok {
		switch target.Kind() {
		case oas.KindObject, oas.KindArray:
			o.child(name).spread(target, nested)
			return
		case oas.KindUnknown:
			o.Properties[name] = &Overlay{Value: oas.CloneValue(value), IsLeaf: true}
			return
		default:
			o.Properties[name] = nil
			return
		}
	}
	if conforms(value, target) {
		o.Properties[name] = &Overlay{Value: oas.CloneValue(value), IsLeaf: true}
		return
	}
	o.Properties[name] = nil
}

func conforms(value any, target *oas.Schema) bool {
	if value == nil {
		return target.Nullable || target.Type == ""
	}
	if target.Type == "" && target.Kind() == oas.KindObject {
		return jsonvalue.TypeOf(value) == jsonvalue.TypeObject
	}
	return jsonvalue.Conforms(value, target.Type)
}
