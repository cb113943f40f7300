// Package oasmocktest runs oasmock in-process for Go tests.
//
// A Server loads services from OpenAPI documents and answers requests on an httptest server.
// Tests steer the answers with states and check the calls the code under test made:
//
//	func TestListPets(t *testing.T) {
//	    mock := oasmocktest.New(t, oasmocktest.WithServicesDir("testdata/services"))
//
//	    mock.Service("petstore").
//	        On("GET", "/pets").
//	        Size(2).
//	        Set("name", "Fluffy").
//	        Apply()
//
//	    pets, err := client.New(mock.URL() + "/v1").ListPets(ctx)
//	    require.NoError(t, err)
//	    require.Len(t, pets, 2)
//
//	    mock.Service("petstore").Spy().AssertCalledTimes(t, "GET", "/pets", 1)
//	}
//
// # States
//
// On selects an operation (method and path template or concrete path); omitting both with
// State applies to every endpoint of the service. A state holds directives and property values:
//
//	mock.Service("petstore").On("GET", "/pets/{petId}").Code(404).Once().Apply()
//	mock.Service("petstore").State(map[string]any{"$code": 500})
//
// States are validated against the response schemas when they are set; Apply fails the test when
// a state does not fit. Use TryApply to inspect the error instead.
//
// # Spies
//
// Every service tracks its calls. Spy returns them newest first, with helpers for the common
// assertions:
//
//	spy := mock.Service("petstore").Spy()
//	spy.AssertCalled(t, "POST", "/pets")
//	call, _ := spy.Last()
//	call.AssertJSONBody(t, `{"name": "Rex"}`)
//
// Server.Reset clears every state and tracked call between cases. The server is closed when the
// test ends.
package oasmocktest
