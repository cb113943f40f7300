// Package validator checks a compiled state against the responses of an operation and turns it
// into constrained schema fragments.
//
// A fragment holds only the constrained pieces of a response schema: const values on the
// properties the state assigns, and minItems/maxItems for $size. The instance generator merges
// fragments onto the full schema.
package validator
