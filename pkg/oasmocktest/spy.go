package oasmocktest

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/oasmock/internal/jsonvalue"
	"github.com/getmockd/oasmock/internal/matching"
	"github.com/getmockd/oasmock/pkg/requestlog"
)

// Call is one request a service answered.
type Call struct {
	// Method is the HTTP method (GET, POST, etc.)
	Method string
	// Path is the request URL path
	Path string
	// QueryString is the raw query string
	QueryString string
	// Endpoint is the matched path template as declared, e.g. "/pets/{petId}"
	Endpoint string
	// Operation is the operationId of the matched operation
	Operation string
	// Headers are the request headers (first value per key)
	Headers map[string]string
	// RequestBody is the request body content
	RequestBody string
	// Status is the status code answered
	Status int
	// ResponseBody is the generated payload
	ResponseBody string
	// Error is the resolution error, if any
	Error string
}

func toCalls(entries []*requestlog.Entry) []Call {
	calls := make([]Call, len(entries))
	for i, e := range entries {
		headers := make(map[string]string, len(e.Headers))
		for k, v := range e.Headers {
			if len(v) > 0 {
				headers[k] = v[0]
			}
		}
		calls[i] = Call{
			Method:       e.Method,
			Path:         e.Path,
			QueryString:  e.QueryString,
			Endpoint:     e.Endpoint,
			Operation:    e.Operation,
			Headers:      headers,
			RequestBody:  e.RequestBody,
			Status:       e.ResponseStatus,
			ResponseBody: e.ResponseBody,
			Error:        e.Error,
		}
	}
	return calls
}

// matches reports whether the call was made to method and endpoint. endpoint may be a template
// in any parameter spelling, a concrete path or the path as received.
func (c Call) matches(method, endpoint string) bool {
	if method != "" && !strings.EqualFold(c.Method, method) {
		return false
	}
	switch {
	case endpoint == "", endpoint == c.Path:
		return true
	case c.Endpoint == "":
		return false
	case matching.IsTemplate(endpoint):
		return matching.Normalize(endpoint) == matching.Normalize(c.Endpoint)
	default:
		return matching.MatchTemplate(c.Endpoint, endpoint) > 0
	}
}

// Spy holds the calls tracked for one service.
type Spy struct {
	store requestlog.Store
}

// Calls returns every call, newest first.
func (s *Spy) Calls() []Call {
	return toCalls(s.store.List(nil))
}

// CallsTo returns the calls made to method and endpoint, newest first.
func (s *Spy) CallsTo(method, endpoint string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.matches(method, endpoint) {
			out = append(out, c)
		}
	}
	return out
}

// Last returns the most recent call.
func (s *Spy) Last() (Call, bool) {
	calls := s.Calls()
	if len(calls) == 0 {
		return Call{}, false
	}
	return calls[0], true
}

// Count returns the number of calls.
func (s *Spy) Count() int {
	return s.store.Count()
}

// Clear forgets every call.
func (s *Spy) Clear() {
	s.store.Clear()
}

// AssertCalled asserts that an endpoint was called at least once.
func (s *Spy) AssertCalled(t testing.TB, method, endpoint string) {
	t.Helper()

	if len(s.CallsTo(method, endpoint)) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, endpoint)
	}
}

// AssertCalledTimes asserts that an endpoint was called exactly n times.
func (s *Spy) AssertCalledTimes(t testing.TB, method, endpoint string, times int) {
	t.Helper()

	if count := len(s.CallsTo(method, endpoint)); count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, endpoint, times, count)
	}
}

// AssertNotCalled asserts that an endpoint was not called.
func (s *Spy) AssertNotCalled(t testing.TB, method, endpoint string) {
	t.Helper()

	if count := len(s.CallsTo(method, endpoint)); count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, endpoint, count)
	}
}

// AssertJSONBody asserts that the request body matches the expected JSON.
// The expected value can be a string, []byte, or any struct/map that will be JSON encoded.
func (c Call) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	want, err := normalizeJSON(expected)
	if err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	var got any
	if err := json.Unmarshal([]byte(c.RequestBody), &got); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, c.RequestBody)
		return
	}
	if !reflect.DeepEqual(got, want) {
		wantBytes, _ := json.MarshalIndent(want, "", "  ")
		gotBytes, _ := json.MarshalIndent(got, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(wantBytes), string(gotBytes))
	}
}

// AssertHeader asserts that the request had the specified header with the expected value.
func (c Call) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	for k, v := range c.Headers {
		if strings.EqualFold(k, key) {
			if v != expected {
				t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, v)
			}
			return
		}
	}
	t.Errorf("request does not have header %q", key)
}

// RequestJSON returns the first value a JSONPath expression selects in the request body, or nil.
func (c Call) RequestJSON(path string) any {
	return selectJSON(path, c.RequestBody)
}

// ResponseJSON returns the first value a JSONPath expression selects in the generated payload,
// or nil.
func (c Call) ResponseJSON(path string) any {
	return selectJSON(path, c.ResponseBody)
}

// AssertResponseJSON asserts that a JSONPath expression selects expected in the generated
// payload. Numbers compare by value.
func (c Call) AssertResponseJSON(t testing.TB, path string, expected any) {
	t.Helper()

	actual := c.ResponseJSON(path)
	if !jsonvalue.Equal(actual, expected) {
		t.Errorf("response %s mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			path, expected, expected, actual, actual)
	}
}

func selectJSON(path, body string) any {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil
	}
	var data any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil
	}
	if results := x.Get(data); len(results) > 0 {
		return results[0]
	}
	return nil
}

func normalizeJSON(v any) (any, error) {
	var data []byte
	switch val := v.(type) {
	case string:
		data = []byte(val)
	case []byte:
		data = val
	default:
		var err error
		if data, err = json.Marshal(val); err != nil {
			return nil, err
		}
	}
	var out any
	err := json.Unmarshal(data, &out)
	return out, err
}
