// Package dsl translates the state directives written by test authors into OpenAPI schema
// fragments and back.
//
// Directives are reserved keys of a state object:
//
//	$code   selects the response status code
//	$times  limits how many subsequent calls the state applies to
//	$size   fixes the length of an array response
//
// $times travels through the response schemas as the synthetic property
//
//	x-unmock-times: {type: unmock, default: N}
//
// which ActTopLevelFromOAS strips from the schema served for the current call and decrements in
// the schema stored for the next one.
//
// Malformed directives are ignored in Relaxed mode and reported as *DirectiveError in Strict
// mode. The mode is a property of the Compiler value, so callers choose it per call site.
package dsl
