package requestlog

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/oasmock/internal/matching"
)

// Filter defines criteria for selecting entries. Zero fields match everything.
type Filter struct {
	// Service filters by service name.
	Service string

	// Method filters by HTTP method, case-insensitively.
	Method string

	// Path filters by path prefix.
	Path string

	// StatusCode filters by response status code.
	StatusCode int

	// HasError filters by error presence.
	HasError *bool

	// BodyPath is a JSONPath evaluated against the JSON response body. With BodyValue set, one
	// selected value must equal it; otherwise the path only has to select something.
	BodyPath  string
	BodyValue any

	// Where is a boolean expr-lang expression over the Entry fields, for example
	// `ResponseStatus >= 400 && Method == "POST"`.
	Where string

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

// Validate checks the JSONPath and the Where expression.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if f.BodyPath != "" {
		if err := matching.ValidateJSONPathExpression(f.BodyPath); err != nil {
			return err
		}
	}
	_, err := f.compileWhere()
	return err
}

func (f *Filter) compileWhere() (*vm.Program, error) {
	if f == nil || strings.TrimSpace(f.Where) == "" {
		return nil, nil
	}
	program, err := expr.Compile(f.Where, expr.Env(Entry{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile where %q: %w", f.Where, err)
	}
	return program, nil
}

// matcher is a Filter with its expression compiled once per query.
type matcher struct {
	filter *Filter
	where  *vm.Program
}

func newMatcher(f *Filter) (*matcher, error) {
	where, err := f.compileWhere()
	if err != nil {
		return nil, err
	}
	return &matcher{filter: f, where: where}, nil
}

func (m *matcher) matches(entry *Entry) bool {
	f := m.filter
	if f == nil {
		return true
	}
	if f.Service != "" && entry.Service != f.Service {
		return false
	}
	if f.Method != "" && !strings.EqualFold(entry.Method, f.Method) {
		return false
	}
	if f.Path != "" && !matchesPathPrefix(entry.Path, f.Path) {
		return false
	}
	if f.StatusCode != 0 && entry.ResponseStatus != f.StatusCode {
		return false
	}
	if f.HasError != nil && *f.HasError != (entry.Error != "") {
		return false
	}
	if f.BodyPath != "" && !matching.MatchJSONPath(f.BodyPath, f.BodyValue, []byte(entry.ResponseBody)) {
		return false
	}
	if m.where != nil {
		out, err := expr.Run(m.where, *entry)
		if err != nil {
			return false
		}
		if ok, _ := out.(bool); !ok {
			return false
		}
	}
	return true
}

// matchesPathPrefix checks whether path starts with prefix on a segment boundary.
func matchesPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || strings.HasSuffix(prefix, "/") || path[len(prefix)] == '/'
}

// page applies offset and limit.
func page(entries []*Entry, f *Filter) []*Entry {
	if f == nil {
		return entries
	}
	if f.Offset > 0 {
		if f.Offset >= len(entries) {
			return []*Entry{}
		}
		entries = entries[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(entries) {
		entries = entries[:f.Limit]
	}
	return entries
}
