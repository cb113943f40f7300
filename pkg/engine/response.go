package engine

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/oasmock/pkg/oas"
)

// preferredCodes are tried in order when a response code has to be picked.
var preferredCodes = []string{"200", "201", "202", "204"}

// chooseCode picks the status code to answer with: a preferred success code, then the first
// other 2xx code, then the 2XX range, then the first code in resolution order.
func chooseCode(codes []string) string {
	if len(codes) == 0 {
		return ""
	}
	for _, want := range preferredCodes {
		if slices.Contains(codes, want) {
			return want
		}
	}
	for _, code := range codes {
		if n, err := strconv.Atoi(code); err == nil && n >= 200 && n < 300 {
			return code
		}
	}
	for _, code := range codes {
		if strings.EqualFold(code, "2XX") {
			return code
		}
	}
	return codes[0]
}

// statusFor converts a response key to an HTTP status. Ranges answer with their first code;
// "default" answers 200.
func statusFor(code string) int {
	if n, err := strconv.Atoi(code); err == nil {
		return n
	}
	if len(code) == 3 && strings.EqualFold(code[1:], "XX") && code[0] >= '1' && code[0] <= '5' {
		return int(code[0]-'0') * 100
	}
	return http.StatusOK
}

// chooseContentType prefers application/json, then any JSON media type, then the first type
// in lexical order.
func chooseContentType(media map[string]*oas.Schema) string {
	if len(media) == 0 {
		return ""
	}
	if _, ok := media["application/json"]; ok {
		return "application/json"
	}
	types := oas.SortedKeys(media)
	for _, ct := range types {
		if isJSON(ct) {
			return ct
		}
	}
	return types[0]
}

func isJSON(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "/json") || strings.HasSuffix(ct, "+json")
}

// declaredCodes lists the response codes of op in resolution order.
func declaredCodes(op *openapi3.Operation) []string {
	if op == nil || op.Responses == nil {
		return nil
	}
	codes := oas.SortedKeys(op.Responses.Map())
	oas.SortCodes(codes)
	return codes
}
