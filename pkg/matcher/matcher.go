// Package matcher maps requests onto the operations declared by an OpenAPI document and
// computes the canonical endpoint keys used by the state store.
package matcher

import (
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/oasmock/internal/matching"
	"github.com/getmockd/oasmock/pkg/oas"
)

// Request is the serialized form of an intercepted HTTP request.
type Request struct {
	Method   string      `json:"method"`
	Path     string      `json:"path"`
	Host     string      `json:"host,omitempty"`
	Protocol string      `json:"protocol,omitempty"`
	Headers  http.Header `json:"headers,omitempty"`
	Body     []byte      `json:"body,omitempty"`
}

// Endpoint identifies a declared path template.
type Endpoint struct {
	// SchemaEndpoint is the template exactly as declared in the document, e.g. "/pets/{petId}".
	SchemaEndpoint string `json:"schemaEndpoint"`
	// NormalizedEndpoint is the case-insensitive canonical key, e.g. "/pets/{}".
	NormalizedEndpoint string `json:"normalizedEndpoint"`
}

// Route is one method of one declared path template.
type Route struct {
	Method      string              `json:"method"`
	Endpoint    Endpoint            `json:"endpoint"`
	OperationID string              `json:"operationId,omitempty"`
	Summary     string              `json:"summary,omitempty"`
	Operation   *openapi3.Operation `json:"-"`
}

// Match is the result of matching a request.
type Match struct {
	Route
	// Path is the request path after server prefix and query stripping.
	Path   string
	Params map[string]string
}

// Matcher performs lookups over an immutable OpenAPI document.
type Matcher struct {
	doc       *openapi3.T
	templates []string
	prefixes  []string
}

// New creates a matcher for doc. The document must not be modified afterwards.
func New(doc *openapi3.T) *Matcher {
	m := &Matcher{doc: doc}
	if doc == nil {
		return m
	}
	if doc.Paths != nil {
		m.templates = oas.SortedKeys(doc.Paths.Map())
	}
	m.prefixes = serverPrefixes(doc.Servers)
	return m
}

// HasPaths reports whether the document declares at least one path.
func (m *Matcher) HasPaths() bool {
	return len(m.templates) > 0
}

// Document returns the underlying document.
func (m *Matcher) Document() *openapi3.T {
	return m.doc
}

// MatchToOperation returns the operation serving req, or nil if no declared template and method
// accept it. The host is not used for matching.
func (m *Matcher) MatchToOperation(req Request) *openapi3.Operation {
	if match := m.Match(req); match != nil {
		return match.Operation
	}
	return nil
}

// Match resolves req to the best declared route. Literal templates outrank parameterised ones;
// ties resolve to the lexically smaller template.
func (m *Matcher) Match(req Request) *Match {
	method := strings.ToUpper(req.Method)
	var (
		best      *Match
		bestScore int
	)
	for _, path := range m.candidates(req.Path) {
		for _, template := range m.templates {
			score := matching.MatchTemplate(template, path)
			if score == 0 || score <= bestScore {
				continue
			}
			op := m.operation(template, method)
			if op == nil {
				continue
			}
			bestScore = score
			best = &Match{
				Route:  m.route(template, method, op),
				Path:   path,
				Params: matching.ExtractParams(template, path),
			}
		}
	}
	return best
}

// FindEndpoint resolves a concrete path ("/pets/1") or a template ("/pets/{petId}", with any
// parameter names) to the declared template. Returns nil when nothing matches.
func (m *Matcher) FindEndpoint(pathOrTemplate string) *Endpoint {
	normalized := matching.Normalize(stripQuery(pathOrTemplate))
	for _, template := range m.templates {
		if matching.Normalize(template) == normalized {
			return newEndpoint(template)
		}
	}

	var (
		best      string
		bestScore int
	)
	for _, path := range m.candidates(pathOrTemplate) {
		for _, template := range m.templates {
			if score := matching.MatchTemplate(template, path); score > bestScore {
				best, bestScore = template, score
			}
		}
	}
	if bestScore == 0 {
		return nil
	}
	return newEndpoint(best)
}

// Operations returns the routes declared under the template of endpoint, restricted to method
// unless method is empty or "any".
func (m *Matcher) Operations(endpoint Endpoint, method string) []Route {
	item := m.PathItem(endpoint.SchemaEndpoint)
	if item == nil {
		return nil
	}
	var routes []Route
	for _, verb := range sortedMethods(item) {
		if method != "" && !strings.EqualFold(method, "any") && !strings.EqualFold(method, verb) {
			continue
		}
		routes = append(routes, m.route(endpoint.SchemaEndpoint, verb, item.GetOperation(verb)))
	}
	return routes
}

// Routes lists every declared operation, ordered by template then method.
func (m *Matcher) Routes() []Route {
	var routes []Route
	for _, template := range m.templates {
		routes = append(routes, m.Operations(*newEndpoint(template), "")...)
	}
	return routes
}

// PathItem returns the path item declared for template, or nil.
func (m *Matcher) PathItem(template string) *openapi3.PathItem {
	if m.doc == nil || m.doc.Paths == nil {
		return nil
	}
	return m.doc.Paths.Value(template)
}

func (m *Matcher) operation(template, method string) *openapi3.Operation {
	item := m.PathItem(template)
	if item == nil {
		return nil
	}
	return item.Operations()[method]
}

func (m *Matcher) route(template, method string, op *openapi3.Operation) Route {
	r := Route{
		Method:    method,
		Endpoint:  *newEndpoint(template),
		Operation: op,
	}
	if op != nil {
		r.OperationID = op.OperationID
		r.Summary = op.Summary
	}
	return r
}

// candidates returns the request path followed by the path with each server prefix removed.
func (m *Matcher) candidates(path string) []string {
	path = stripQuery(path)
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	out := []string{path}
	for _, prefix := range m.prefixes {
		if stripped, ok := matching.StripPrefix(prefix, path); ok {
			out = append(out, stripped)
		}
	}
	return out
}

func newEndpoint(template string) *Endpoint {
	return &Endpoint{
		SchemaEndpoint:     template,
		NormalizedEndpoint: matching.Normalize(template),
	}
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}

var methodOrder = []string{
	http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete,
	http.MethodOptions, http.MethodHead, http.MethodPatch, http.MethodTrace, http.MethodConnect,
}

func sortedMethods(item *openapi3.PathItem) []string {
	ops := item.Operations()
	methods := make([]string, 0, len(ops))
	for _, verb := range methodOrder {
		if ops[verb] != nil {
			methods = append(methods, verb)
		}
	}
	return methods
}

// serverPrefixes extracts the path component of each server URL, substituting variable
// defaults. Prefixes are ordered longest first.
func serverPrefixes(servers openapi3.Servers) []string {
	seen := make(map[string]bool)
	var prefixes []string
	for _, server := range servers {
		if server == nil {
			continue
		}
		base, err := server.BasePath()
		if err != nil {
			continue
		}
		base = strings.TrimRight(base, "/")
		if base == "" || seen[base] {
			continue
		}
		seen[base] = true
		prefixes = append(prefixes, base)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		return len(prefixes[i]) > len(prefixes[j])
	})
	return prefixes
}
