package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchJSONPath(t *testing.T) {
	body := []byte(`{"pets":[{"id":1,"name":"rex"},{"id":2,"name":"tom"}],"total":2}`)

	tests := []struct {
		name     string
		path     string
		expected any
		want     bool
	}{
		{"scalar equal", "$.total", 2, true},
		{"scalar differs", "$.total", 3, false},
		{"wildcard any match", "$.pets[*].name", "tom", true},
		{"wildcard no match", "$.pets[*].name", "sam", false},
		{"existence", "$.pets[0].id", nil, true},
		{"missing", "$.owner", nil, false},
		{"invalid expression", "$[[", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchJSONPath(tt.path, tt.expected, body))
		})
	}

	assert.False(t, MatchJSONPath("$.a", nil, []byte("not json")))
}

func TestValidateJSONPathExpression(t *testing.T) {
	assert.NoError(t, ValidateJSONPathExpression("$.pets[*].id"))
	assert.Error(t, ValidateJSONPathExpression("$[["))
}
