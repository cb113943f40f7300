// Package oas holds the schema model shared by the response-specification engine.
//
// OpenAPI documents themselves are parsed and held by kin-openapi (*openapi3.T). The engine
// works on its own Schema node type instead of *openapi3.Schema because it needs to express
// things a document never contains: the "unmock" sentinel type used to carry $times counters
// and the const overlays produced for user state.
//
// # Core Types
//
//   - Schema: an immutable JSON-Schema-like node, classified by Kind
//   - CodeToMedia: status code -> content type -> Schema
//   - Dereferencer: turns an *openapi3.SchemaRef into an inline *Schema, memoized per instance
//
// # Usage
//
//	deref := oas.NewDereferencer(doc)
//	node := deref(op.Responses.Status(200).Value.Content["application/json"].Schema)
//	switch node.Kind() {
//	case oas.KindObject:
//	    // walk node.Properties
//	case oas.KindArray:
//	    // walk node.Items
//	}
package oas
