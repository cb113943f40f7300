// Package generator produces response payloads from response schemas.
//
// The constrained fragments resolved for a request are merged onto the declared schema with
// Merge, and Generate turns the result into a JSON-shaped value. A Generator is deterministic for
// a given seed. Verify checks a payload against a schema with a Draft 2020-12 validator.
package generator
