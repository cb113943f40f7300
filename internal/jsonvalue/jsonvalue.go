// Package jsonvalue classifies and compares JSON-shaped Go values
// (the values produced by encoding/json or written as Go literals in tests).
package jsonvalue

import (
	"math"
	"reflect"
)

// ToFloat64 attempts to convert a numeric value to float64.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	default:
		return 0, false
	}
}

// Round converts a numeric value to the nearest integer, rounding half away from zero.
// The boolean is false for non-numeric values, NaN and infinities.
func Round(v any) (int, bool) {
	f, ok := ToFloat64(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

// IsInteger reports whether v is a number without a fractional part.
func IsInteger(v any) bool {
	f, ok := ToFloat64(v)
	return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// JSON type names as reported by TypeOf.
const (
	TypeNull    = "null"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeArray   = "array"
	TypeObject  = "object"
)

// TypeOf returns the JSON type name of v. Whole numbers report "integer".
// Unsupported Go types report "".
func TypeOf(v any) string {
	if v == nil {
		return TypeNull
	}
	switch v.(type) {
	case bool:
		return TypeBoolean
	case string:
		return TypeString
	case map[string]any:
		return TypeObject
	case []any:
		return TypeArray
	}
	if IsInteger(v) {
		return TypeInteger
	}
	if _, ok := ToFloat64(v); ok {
		return TypeNumber
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return TypeArray
	case reflect.Map, reflect.Struct:
		return TypeObject
	}
	return ""
}

// Conforms reports whether a value of runtime type TypeOf(v) may be assigned to a schema
// node declared with schemaType. An empty schemaType accepts anything.
func Conforms(v any, schemaType string) bool {
	if schemaType == "" {
		return true
	}
	actual := TypeOf(v)
	switch schemaType {
	case TypeNumber:
		return actual == TypeNumber || actual == TypeInteger
	default:
		return actual == schemaType
	}
}

// Equal compares two values, treating all numeric types as interchangeable.
func Equal(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if reflect.DeepEqual(actual, expected) {
		return true
	}
	a, aNum := ToFloat64(actual)
	e, eNum := ToFloat64(expected)
	return aNum && eNum && a == e
}
