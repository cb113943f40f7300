package matching

import (
	"encoding/json"
	"fmt"

	"github.com/getmockd/oasmock/internal/jsonvalue"
	"github.com/ohler55/ojg/jp"
)

// MatchJSONPath evaluates a JSONPath expression against a JSON body.
//
// With a nil expected value the expression only has to select something. Otherwise at least
// one selected value must equal expected; numbers compare by value regardless of Go type.
// Returns false for invalid expressions and bodies that are not valid JSON.
func MatchJSONPath(path string, expected any, body []byte) bool {
	expr, err := jp.ParseString(path)
	if err != nil {
		return false
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		// Not valid JSON - not an error, just doesn't match
		return false
	}

	results := expr.Get(data)
	if len(results) == 0 {
		return false
	}
	if expected == nil {
		return true
	}

	// For wildcard paths that return multiple results, check if any match
	for _, result := range results {
		if jsonvalue.Equal(result, expected) {
			return true
		}
	}
	return false
}

// ValidateJSONPathExpression validates a JSONPath expression.
// Returns an error if the expression is invalid.
func ValidateJSONPathExpression(path string) error {
	if _, err := jp.ParseString(path); err != nil {
		return fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	return nil
}
