package generator

import "github.com/getmockd/oasmock/pkg/oas"

// Merge returns a copy of base with the constraints of fragment applied: const values and
// array bounds override the declared ones, recursively through properties and items. Sentinel
// properties of fragment are dropped. Neither input is modified.
func Merge(base, fragment *oas.Schema) *oas.Schema {
	out := base.Clone()
	if out == nil {
		out = &oas.Schema{}
	}
	merge(out, fragment)
	return out
}

func merge(dst, fragment *oas.Schema) {
	if fragment == nil {
		return
	}
	if fragment.Const != nil {
		dst.Const = oas.CloneValue(fragment.Const)
	}
	if fragment.MinItems != nil {
		dst.MinItems = oas.Ptr(*fragment.MinItems)
	}
	if fragment.MaxItems != nil {
		dst.MaxItems = oas.Ptr(*fragment.MaxItems)
	}

	for name, child := range fragment.Properties {
		if child == nil || child.Type == oas.TypeSentinel {
			continue
		}
		// Shared $ref targets are one node; copy before writing so the override stays on
		// this path. Inherited allOf properties are pinned as own properties the same way.
		prop := dst.Lookup(name).Clone()
		if prop == nil {
			prop = &oas.Schema{}
		}
		if dst.Properties == nil {
			dst.Properties = make(map[string]*oas.Schema)
		}
		dst.Properties[name] = prop
		merge(prop, child)
	}

	if fragment.Items != nil {
		items := dst.Items.Clone()
		if items == nil {
			items = &oas.Schema{}
		}
		dst.Items = items
		merge(items, fragment.Items)
	}
}
