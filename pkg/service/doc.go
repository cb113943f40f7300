// Package service composes the endpoint matcher, the state store and the validator into a
// mocked service built from one OpenAPI document.
//
// Tests steer a service with UpdateState and the engine serves requests through Resolve:
//
//	svc.UpdateState(state.Input{
//	    Method:   "get",
//	    Endpoint: "/pets/{petId}",
//	    State:    map[string]any{"$code": 200, "$times": 1, "name": "rex"},
//	})
//	res, err := svc.Resolve(matcher.Request{Method: "GET", Path: "/v1/pets/1"})
//	// res.Responses["200"]["application/json"] constrains name to "rex" once.
package service
