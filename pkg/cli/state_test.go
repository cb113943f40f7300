package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/oasmock/pkg/state"
)

func TestParseStateInput(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    state.Input
		wantErr string
	}{
		{
			name: "full update",
			data: "method: get\nendpoint: /pets/{petId}\nstate:\n  $code: 404\n",
			want: state.Input{Method: "get", Endpoint: "/pets/{petId}", State: map[string]any{"$code": 404}},
		},
		{
			name: "bare state",
			data: `{"$size": 2, "name": "Fluffy"}`,
			want: state.Input{State: map[string]any{"$size": 2, "name": "Fluffy"}},
		},
		{
			name: "nested objects",
			data: "state:\n  owner:\n    name: Ann\n",
			want: state.Input{State: map[string]any{"owner": map[string]any{"name": "Ann"}}},
		},
		{name: "empty", data: "  \n", wantErr: "state file is empty"},
		{name: "not an object", data: "- 1\n- 2\n", wantErr: "invalid state file"},
		{name: "state not an object", data: "state: 3\n", wantErr: "state must be an object"},
		{name: "method not a string", data: "method: [get]\nstate: {}\n", wantErr: "method must be a string"},
		{name: "null document", data: "~\n", wantErr: "state file must hold an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStateInput([]byte(tt.data))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
