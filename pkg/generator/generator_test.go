package generator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/oasmock/pkg/oas"
)

func petSchema() *oas.Schema {
	return &oas.Schema{
		Type:     oas.TypeObject,
		Required: []string{"id", "name"},
		Properties: map[string]*oas.Schema{
			"id":   {Type: oas.TypeInteger, Format: "int64", Minimum: oas.Ptr(1.0)},
			"name": {Type: oas.TypeString},
			"tag":  {Type: oas.TypeString, MaxLength: oas.Ptr(4)},
		},
	}
}

func TestGenerate_Priority(t *testing.T) {
	tests := []struct {
		name   string
		schema *oas.Schema
		want   any
	}{
		{name: "const wins", schema: &oas.Schema{Type: oas.TypeString, Const: "c", Example: "e", Default: "d"}, want: "c"},
		{name: "example", schema: &oas.Schema{Type: oas.TypeString, Example: "e", Default: "d"}, want: "e"},
		{name: "single enum", schema: &oas.Schema{Type: oas.TypeString, Enum: []any{"only"}, Default: "d"}, want: "only"},
		{name: "default", schema: &oas.Schema{Type: oas.TypeInteger, Default: 7}, want: 7},
		{name: "oneOf first", schema: &oas.Schema{OneOf: []*oas.Schema{{Const: 1}, {Const: 2}}}, want: 1},
		{name: "fixed integer", schema: &oas.Schema{Type: oas.TypeInteger, Minimum: oas.Ptr(5.0), Maximum: oas.Ptr(5.0)}, want: 5},
		{name: "nil", schema: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(1).Generate(tt.schema))
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	schema := &oas.Schema{Type: oas.TypeArray, Items: petSchema()}

	first := New(42).Generate(schema)
	second := New(42).Generate(schema)
	assert.Equal(t, first, second)
}

func TestGenerate_Object(t *testing.T) {
	value := New(3).Generate(petSchema())

	obj, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Len(t, obj, 3)
	assert.GreaterOrEqual(t, obj["id"], 1)
	assert.IsType(t, "", obj["name"])
	assert.LessOrEqual(t, len(obj["tag"].(string)), 4)
	require.NoError(t, Verify(petSchema(), value))
}

func TestGenerate_AllOf(t *testing.T) {
	schema := &oas.Schema{
		AllOf: []*oas.Schema{
			{Type: oas.TypeObject, Properties: map[string]*oas.Schema{"id": {Type: oas.TypeInteger}}},
		},
		Properties: map[string]*oas.Schema{"name": {Type: oas.TypeString, Const: "Rex"}},
	}

	obj, ok := New(1).Generate(schema).(map[string]any)
	require.True(t, ok)
	assert.Contains(t, obj, "id")
	assert.Equal(t, "Rex", obj["name"])
}

func TestGenerate_ArrayBounds(t *testing.T) {
	tests := []struct {
		name   string
		schema *oas.Schema
		min    int
		max    int
	}{
		{name: "unbounded", schema: &oas.Schema{Type: oas.TypeArray, Items: &oas.Schema{Type: oas.TypeString}}, min: 1, max: DefaultMaxItems},
		{name: "exact", schema: &oas.Schema{Type: oas.TypeArray, MinItems: oas.Ptr(5), MaxItems: oas.Ptr(5), Items: &oas.Schema{Type: oas.TypeString}}, min: 5, max: 5},
		{name: "empty", schema: &oas.Schema{Type: oas.TypeArray, MaxItems: oas.Ptr(0), Items: &oas.Schema{Type: oas.TypeString}}, min: 0, max: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := range uint64(10) {
				items, ok := New(seed).Generate(tt.schema).([]any)
				require.True(t, ok)
				assert.GreaterOrEqual(t, len(items), tt.min)
				assert.LessOrEqual(t, len(items), tt.max)
			}
		})
	}
}

func TestGenerate_Formats(t *testing.T) {
	g := New(9)

	id, ok := g.Generate(&oas.Schema{Type: oas.TypeString, Format: "uuid"}).(string)
	require.True(t, ok)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	for _, format := range []string{"uuid", "date-time", "date", "email", "uri", "hostname", "ipv4"} {
		schema := &oas.Schema{Type: oas.TypeString, Format: format}
		assert.NoError(t, Verify(schema, g.Generate(schema)), format)
	}
}

func TestGenerate_Cyclic(t *testing.T) {
	node := &oas.Schema{Type: oas.TypeObject, Required: []string{"name"}}
	node.Properties = map[string]*oas.Schema{
		"name":     {Type: oas.TypeString},
		"children": {Type: oas.TypeArray, Items: node},
	}

	value := New(1).Generate(node)
	require.NotNil(t, value)
	assert.NoError(t, Verify(node, value))
}

func TestMerge(t *testing.T) {
	base := &oas.Schema{Type: oas.TypeArray, Items: petSchema()}
	fragment := &oas.Schema{
		MinItems: oas.Ptr(2),
		MaxItems: oas.Ptr(2),
		Items: &oas.Schema{Properties: map[string]*oas.Schema{
			"name":           {Type: oas.TypeString, Const: "Fluffy"},
			"x-unmock-times": {Type: oas.TypeSentinel, Default: 1},
		}},
	}

	merged := Merge(base, fragment)

	assert.Equal(t, oas.Ptr(2), merged.MinItems)
	assert.Equal(t, "Fluffy", merged.Items.Properties["name"].Const)
	assert.NotContains(t, merged.Items.Properties, "x-unmock-times")
	assert.Nil(t, base.MinItems)
	assert.Nil(t, base.Items.Properties["name"].Const)

	items, ok := New(5).Generate(merged).([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, "Fluffy", item.(map[string]any)["name"])
	}
	require.NoError(t, Verify(merged, items))
}

func TestMerge_AllOfProperty(t *testing.T) {
	base := &oas.Schema{AllOf: []*oas.Schema{petSchema()}}
	merged := Merge(base, &oas.Schema{Properties: map[string]*oas.Schema{"id": {Const: 3}}})

	require.Contains(t, merged.Properties, "id")
	assert.Equal(t, oas.TypeInteger, merged.Properties["id"].Type)
	assert.Equal(t, 3, merged.Properties["id"].Const)
	assert.Nil(t, petSchema().Properties["id"].Const)

	obj := New(1).Generate(merged).(map[string]any)
	assert.Equal(t, 3, obj["id"])
}

func TestMerge_SharedRefStaysOnItsPath(t *testing.T) {
	user := &oas.Schema{Type: oas.TypeObject, Properties: map[string]*oas.Schema{
		"id": {Type: oas.TypeInteger},
	}}
	base := &oas.Schema{Type: oas.TypeObject, Properties: map[string]*oas.Schema{
		"owner":  user,
		"friend": user,
	}}
	fragment := &oas.Schema{Properties: map[string]*oas.Schema{
		"owner": {Properties: map[string]*oas.Schema{"id": {Const: 5}}},
	}}

	merged := Merge(base, fragment)

	assert.Equal(t, 5, merged.Properties["owner"].Properties["id"].Const)
	assert.Nil(t, merged.Properties["friend"].Properties["id"].Const)
	assert.Nil(t, user.Properties["id"].Const)

	obj := New(1).Generate(merged).(map[string]any)
	assert.Equal(t, 5, obj["owner"].(map[string]any)["id"])
}

func TestMerge_SharedItems(t *testing.T) {
	tag := &oas.Schema{Type: oas.TypeString}
	base := &oas.Schema{Type: oas.TypeObject, Properties: map[string]*oas.Schema{
		"tags":   {Type: oas.TypeArray, Items: tag},
		"labels": {Type: oas.TypeArray, Items: tag},
	}}
	fragment := &oas.Schema{Properties: map[string]*oas.Schema{
		"tags": {Items: &oas.Schema{Const: "red"}},
	}}

	merged := Merge(base, fragment)

	assert.Equal(t, "red", merged.Properties["tags"].Items.Const)
	assert.Nil(t, merged.Properties["labels"].Items.Const)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		schema  *oas.Schema
		value   any
		wantErr string
	}{
		{name: "valid", schema: petSchema(), value: map[string]any{"id": 1, "name": "Rex"}},
		{name: "missing required", schema: petSchema(), value: map[string]any{"id": 1}, wantErr: "name"},
		{name: "wrong type", schema: petSchema(), value: map[string]any{"id": "x", "name": "Rex"}, wantErr: "id:"},
		{name: "nullable", schema: &oas.Schema{Type: oas.TypeString, Nullable: true}, value: nil},
		{name: "not nullable", schema: &oas.Schema{Type: oas.TypeString}, value: nil, wantErr: "payload does not match schema"},
		{name: "const", schema: &oas.Schema{Const: "a"}, value: "b", wantErr: "payload does not match schema"},
		{name: "array bounds", schema: &oas.Schema{Type: oas.TypeArray, MinItems: oas.Ptr(2)}, value: []any{1}, wantErr: "payload does not match schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.schema, tt.value)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *VerifyError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Violations)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
