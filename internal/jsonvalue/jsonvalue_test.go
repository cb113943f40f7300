package jsonvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{3, 3, true},
		{0.3, 0, true},
		{2.5, 3, true},
		{-1.2, -1, true},
		{uint8(7), 7, true},
		{"a", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := Round(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestTypeOfAndConforms(t *testing.T) {
	assert.Equal(t, TypeInteger, TypeOf(5))
	assert.Equal(t, TypeInteger, TypeOf(5.0))
	assert.Equal(t, TypeNumber, TypeOf(5.5))
	assert.Equal(t, TypeString, TypeOf("a"))
	assert.Equal(t, TypeObject, TypeOf(map[string]any{}))
	assert.Equal(t, TypeArray, TypeOf([]string{"a"}))
	assert.Equal(t, TypeNull, TypeOf(nil))

	assert.True(t, Conforms(5, "integer"))
	assert.True(t, Conforms(5, "number"))
	assert.False(t, Conforms(5.5, "integer"))
	assert.False(t, Conforms("a", "integer"))
	assert.True(t, Conforms("a", ""))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(5, 5.0))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, 0))
	assert.True(t, Equal(map[string]any{"a": "b"}, map[string]any{"a": "b"}))
	assert.False(t, Equal("5", 5))
}
