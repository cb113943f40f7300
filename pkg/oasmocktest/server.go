package oasmocktest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/engine"
	"github.com/getmockd/oasmock/pkg/loader"
	"github.com/getmockd/oasmock/pkg/service"
	"github.com/getmockd/oasmock/pkg/validator"
)

// Option configures a Server.
type Option func(*options)

type options struct {
	dirs   []string
	specs  []service.Def
	seed   uint64
	strict bool
	policy validator.CodePolicy
	verify bool
}

// WithServicesDir loads every service below dir. May be given more than once.
func WithServicesDir(dir string) Option {
	return func(o *options) {
		o.dirs = append(o.dirs, dir)
	}
}

// WithSpec adds a service named name served from an OpenAPI document in YAML.
func WithSpec(name string, document []byte) Option {
	return func(o *options) {
		o.specs = append(o.specs, service.Def{
			DirectoryName: name,
			ServiceFiles:  []service.File{{Basename: "openapi.yaml", Contents: document}},
		})
	}
}

// WithSeed makes generated payloads reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithStrict rejects malformed directives instead of ignoring them.
func WithStrict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithCodePolicy selects the status codes a state without $code applies to.
func WithCodePolicy(p validator.CodePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithVerify checks every generated payload against its schema before it is written.
func WithVerify() Option {
	return func(o *options) {
		o.verify = true
	}
}

// Server is an oasmock server running inside a test.
type Server struct {
	t        testing.TB
	registry *service.Registry
	httpSrv  *httptest.Server
}

// New loads the configured services and starts serving them. Loading failures fail the test.
// The server is closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	o := &options{policy: validator.AllCodes}
	for _, opt := range opts {
		opt(o)
	}

	defs := append([]service.Def(nil), o.specs...)
	if len(o.dirs) > 0 {
		result, err := loader.New(o.dirs...).Load()
		if err != nil {
			t.Fatalf("failed to read services: %v", err)
		}
		for _, loadErr := range result.Errors {
			t.Fatalf("failed to read service: %v", &loadErr)
		}
		defs = append(defs, result.Defs...)
	}

	registry := service.NewRegistry()
	err := registry.Load(context.Background(), defs, service.ParseOptions{
		Options: []service.Option{
			service.WithCompiler(dsl.Compiler{Mode: dsl.ModeFor(o.strict)}),
			service.WithCodePolicy(o.policy),
		},
	})
	if err != nil {
		t.Fatalf("failed to load services: %v", err)
	}

	handler := engine.NewHandler(registry, engine.WithSeed(o.seed), engine.WithVerify(o.verify))
	s := &Server{
		t:        t,
		registry: registry,
		httpSrv:  httptest.NewServer(handler),
	}
	t.Cleanup(s.Close)
	return s
}

// URL returns the base URL of the server. Services answer below the paths of their documents'
// servers, e.g. URL()+"/v1/pets".
func (s *Server) URL() string {
	return s.httpSrv.URL
}

// Client returns an HTTP client for the server.
func (s *Server) Client() *http.Client {
	return s.httpSrv.Client()
}

// Close stops the server. It is safe to call more than once.
func (s *Server) Close() {
	s.httpSrv.Close()
}

// Registry returns the loaded services for advanced use cases.
func (s *Server) Registry() *service.Registry {
	return s.registry
}

// Service returns a handle on the named service. An unknown name fails the test.
func (s *Server) Service(name string) *ServiceHandle {
	s.t.Helper()
	svc, err := s.registry.Get(name)
	if err != nil {
		s.t.Fatalf("%v", err)
	}
	return &ServiceHandle{t: s.t, svc: svc}
}

// Reset clears the states and tracked calls of every service.
func (s *Server) Reset() {
	s.registry.Reset()
}

// Calls returns the tracked calls of every service, newest first, including requests no
// service matched.
func (s *Server) Calls() []Call {
	return toCalls(s.registry.Requests().List(nil))
}
