// Package state compiles the state objects written by test authors and keeps the compiled
// state per endpoint.
//
// A state object mixes directives ($code, $times, $size) with property constraints:
//
//	{"$code": 200, "$times": 2, "name": "rex", "owner": {"id": 5}}
//
// Property keys do not need to mirror the nesting of the response schema. Spread relocates each
// key to the single position in the schema tree where a property of that name is declared.
package state
