package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/oasmock/internal/testutil"
	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/matcher"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/requestlog"
	"github.com/getmockd/oasmock/pkg/state"
	"github.com/getmockd/oasmock/pkg/validator"
)

const emptyPathsYAML = `openapi: "3.0.0"
info:
  title: Empty
  version: 1.0.0
paths: {}
`

func newPetstore(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return New("petstore", testutil.Petstore(t), opts...)
}

func get(path string) matcher.Request {
	return matcher.Request{Method: "GET", Path: path}
}

func TestService_Match(t *testing.T) {
	svc := newPetstore(t)

	tests := []struct {
		name        string
		req         matcher.Request
		operationID string
	}{
		{name: "collection", req: get("/v1/pets"), operationID: "listPets"},
		{name: "item", req: get("/v1/pets/3"), operationID: "showPetById"},
		{name: "post", req: matcher.Request{Method: "post", Path: "/v1/pets"}, operationID: "createPets"},
		{name: "unknown path", req: get("/v1/owners")},
		{name: "unknown method", req: matcher.Request{Method: "DELETE", Path: "/v1/pets"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := svc.Match(tt.req)
			if tt.operationID == "" {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.operationID, m.Operation.OperationID)
			assert.Same(t, svc, m.Service)
			assert.True(t, m.State.IsEmpty())
		})
	}
}

func TestService_UpdateStateErrors(t *testing.T) {
	tests := []struct {
		name    string
		svc     func(t *testing.T) *Service
		input   state.Input
		wantErr error
		wantMsg string
	}{
		{
			name:    "no paths",
			svc:     func(t *testing.T) *Service { return New("empty", testutil.LoadDoc(t, emptyPathsYAML)) },
			input:   state.Input{State: map[string]any{"$code": 200}},
			wantErr: ErrNoPaths,
			wantMsg: "'empty' has no defined paths!",
		},
		{
			name:    "unknown endpoint",
			svc:     func(t *testing.T) *Service { return newPetstore(t) },
			input:   state.Input{Endpoint: "/owners", State: map[string]any{"$code": 200}},
			wantErr: ErrUnknownEndpoint,
			wantMsg: "Can't find endpoint '/owners' in 'petstore'",
		},
		{
			name:    "unknown method",
			svc:     func(t *testing.T) *Service { return newPetstore(t) },
			input:   state.Input{Method: "patch", Endpoint: "/pets", State: map[string]any{"$code": 200}},
			wantErr: ErrUnknownMethod,
			wantMsg: "No PATCH operation for endpoint '/pets' in 'petstore'",
		},
		{
			name:    "undeclared code",
			svc:     func(t *testing.T) *Service { return newPetstore(t) },
			input:   state.Input{Endpoint: "/pets", State: map[string]any{"$code": 404}},
			wantErr: validator.ErrUnknownCode,
			wantMsg: "Can't find response for given status code '404'!",
		},
		{
			name:    "unknown property for every code",
			svc:     func(t *testing.T) *Service { return newPetstore(t) },
			input:   state.Input{Method: "get", Endpoint: "/pets/{id}", State: map[string]any{"name": "Fluffy"}},
			wantErr: validator.ErrUnresolvedKey,
			wantMsg: "Can't find definition for 'name'!",
		},
		{
			name:    "malformed code",
			svc:     func(t *testing.T) *Service { return newPetstore(t) },
			input:   state.Input{Endpoint: "/pets", State: map[string]any{"$code": "abc"}},
			wantErr: state.ErrInvalidState,
		},
		{
			name:    "strict times",
			svc:     func(t *testing.T) *Service { return newPetstore(t, WithCompiler(dsl.Compiler{Mode: dsl.Strict})) },
			input:   state.Input{Endpoint: "/pets", State: map[string]any{"$times": 0.3}},
			wantErr: dsl.ErrInvalidDirective,
			wantMsg: "Can't set response $times to 0.3!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := tt.svc(t)
			err := svc.UpdateState(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
			assert.Empty(t, svc.States())
		})
	}
}

func TestService_UpdateStateStoresNormalizedKey(t *testing.T) {
	svc := newPetstore(t)

	require.NoError(t, svc.UpdateState(state.Input{Method: "GET", Endpoint: "/pets/42", State: map[string]any{"$code": 404}}))
	require.NoError(t, svc.UpdateState(state.Input{State: map[string]any{"$code": 200}}))

	entries := svc.States()
	require.Len(t, entries, 2)
	assert.Equal(t, state.Key("get", "/pets/{}"), entries[0].Key)
	assert.Equal(t, state.Key("any", "**"), entries[1].Key)
}

func TestService_UpdateStateRelaxedTimes(t *testing.T) {
	svc := newPetstore(t)

	require.NoError(t, svc.UpdateState(state.Input{Endpoint: "/pets", State: map[string]any{"$times": 0.3}}))
	res, err := svc.Resolve(get("/v1/pets"))
	require.NoError(t, err)
	assert.NotNil(t, res.Responses)
	assert.Len(t, svc.States(), 1)
}

func TestService_ResolveCode(t *testing.T) {
	svc := newPetstore(t)
	require.NoError(t, svc.UpdateState(state.Input{Method: "get", Endpoint: "/pets/{petId}", State: map[string]any{"$code": 404}}))

	res, err := svc.Resolve(get("/v1/pets/7"))
	require.NoError(t, err)
	assert.Equal(t, "showPetById", res.Operation.OperationID)
	assert.Equal(t, map[string]string{"petId": "7"}, res.Params)
	require.Len(t, res.Responses, 1)
	assert.Contains(t, res.Responses["404"], "application/json")

	// State without $times stays.
	_, err = svc.Resolve(get("/v1/pets/8"))
	require.NoError(t, err)
	assert.Len(t, svc.States(), 1)
}

func TestService_ResolveTimesExhausts(t *testing.T) {
	svc := newPetstore(t)
	require.NoError(t, svc.UpdateState(state.Input{
		Method:   "get",
		Endpoint: "/pets/{petId}",
		State:    map[string]any{"$code": 404, "$times": 2},
	}))

	for i := range 2 {
		res, err := svc.Resolve(get("/v1/pets/1"))
		require.NoError(t, err, "call %d", i)
		require.Contains(t, res.Responses, "404", "call %d", i)
		schema := res.Responses["404"]["application/json"]
		require.NotNil(t, schema)
		assert.NotContains(t, schema.Properties, dsl.TimesProperty)
	}
	assert.Empty(t, svc.States())

	res, err := svc.Resolve(get("/v1/pets/1"))
	require.NoError(t, err)
	assert.Nil(t, res.Responses)
}

func TestService_ResolveTimesDecrementsStoredState(t *testing.T) {
	svc := newPetstore(t)
	require.NoError(t, svc.UpdateState(state.Input{Endpoint: "/pets/{petId}", State: map[string]any{"$code": 404, "$times": 3}}))

	_, err := svc.Resolve(get("/v1/pets/1"))
	require.NoError(t, err)

	entries := svc.States()
	require.Len(t, entries, 1)
	assert.Equal(t, dsl.Active(2), dsl.TimesFrom(entries[0].State.Top().Times))
}

func TestService_ResolveTimesWithoutContent(t *testing.T) {
	svc := newPetstore(t)
	require.NoError(t, svc.UpdateState(state.Input{Method: "post", Endpoint: "/pets", State: map[string]any{"$code": 201, "$times": 1}}))

	res, err := svc.Resolve(matcher.Request{Method: "POST", Path: "/v1/pets"})
	require.NoError(t, err)
	assert.Contains(t, res.Responses, "201")
	assert.Empty(t, svc.States())
}

func TestService_ResolveCodePolicy(t *testing.T) {
	input := state.Input{Method: "get", Endpoint: "/pets/{petId}", State: map[string]any{"name": "Fluffy"}}

	svc := newPetstore(t, WithCodePolicy(validator.PrimaryCode))
	require.NoError(t, svc.UpdateState(input))

	res, err := svc.Resolve(get("/v1/pets/1"))
	require.NoError(t, err)
	require.Len(t, res.Responses, 1)
	pet := res.Responses["200"]["application/json"]
	require.NotNil(t, pet)
	assert.Equal(t, "Fluffy", pet.Properties["name"].Const)
	assert.Equal(t, oas.TypeString, pet.Properties["name"].Type)
}

func TestService_ResolveNestedArrayState(t *testing.T) {
	svc := newPetstore(t)
	require.NoError(t, svc.UpdateState(state.Input{
		Method:   "get",
		Endpoint: "/pets",
		State:    map[string]any{"$code": 200, "$size": 3, "name": "Fluffy"},
	}))

	res, err := svc.Resolve(get("/v1/pets"))
	require.NoError(t, err)
	pets := res.Responses["200"]["application/json"]
	require.NotNil(t, pets)
	assert.Equal(t, oas.Ptr(3), pets.MinItems)
	assert.Equal(t, oas.Ptr(3), pets.MaxItems)
	require.NotNil(t, pets.Items)
	assert.Equal(t, "Fluffy", pets.Items.Properties["name"].Const)
}

func TestService_ResolveIgnoresMismatchedWildcardState(t *testing.T) {
	svc := newPetstore(t)
	require.NoError(t, svc.UpdateState(state.Input{State: map[string]any{"$code": 404}}))

	res, err := svc.Resolve(get("/v1/pets"))
	require.NoError(t, err)
	assert.Nil(t, res.Responses)

	res, err = svc.Resolve(get("/v1/pets/1"))
	require.NoError(t, err)
	assert.Contains(t, res.Responses, "404")
}

func TestService_ResolveNoMatch(t *testing.T) {
	svc := newPetstore(t)

	_, err := svc.Resolve(get("/v1/owners"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, "No matching template found for GET /v1/owners", err.Error())

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 404, svcErr.StatusCode())
	assert.NotEmpty(t, svcErr.Hint())
}

func TestService_ResolveConcurrentTimes(t *testing.T) {
	svc := newPetstore(t)
	require.NoError(t, svc.UpdateState(state.Input{Endpoint: "/pets/{petId}", State: map[string]any{"$code": 404, "$times": 5}}))

	var (
		wg    sync.WaitGroup
		count atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Resolve(get("/v1/pets/1"))
			if err == nil && res.Responses != nil {
				count.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), count.Load())
	assert.Empty(t, svc.States())
}

func TestService_ResetState(t *testing.T) {
	svc := newPetstore(t)
	other := New("other", testutil.Petstore(t))
	require.NoError(t, svc.UpdateState(state.Input{State: map[string]any{"$code": 200}}))
	require.NoError(t, other.UpdateState(state.Input{State: map[string]any{"$code": 200}}))

	svc.ResetState()

	assert.Empty(t, svc.States())
	assert.Len(t, other.States(), 1)
}

func TestService_TrackAndSpy(t *testing.T) {
	store := requestlog.NewInMemory(10)
	svc := newPetstore(t, WithTracker(store))
	other := New("other", testutil.Petstore(t), WithTracker(store))

	svc.Track(&requestlog.Entry{Method: "GET", Path: "/v1/pets", ResponseStatus: 200})
	svc.Track(&requestlog.Entry{Method: "GET", Path: "/v1/pets/1", ResponseStatus: 404})
	other.Track(&requestlog.Entry{Method: "POST", Path: "/v1/pets", ResponseStatus: 201})

	assert.Equal(t, 2, svc.Spy().Count())
	assert.Equal(t, 1, other.Spy().Count())
	for _, entry := range svc.Spy().List(nil) {
		assert.Equal(t, "petstore", entry.Service)
		assert.NotEmpty(t, entry.ID)
	}

	svc.Reset()
	assert.Zero(t, svc.Spy().Count())
	assert.Equal(t, 1, other.Spy().Count())
}
