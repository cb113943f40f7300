package service

import (
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/matcher"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/requestlog"
	"github.com/getmockd/oasmock/pkg/state"
	"github.com/getmockd/oasmock/pkg/validator"
)

// Service is a mocked service built from one OpenAPI document. The document is treated as
// immutable; the state store and the call tracker are owned by the service.
type Service struct {
	name     string
	absPath  string
	doc      *openapi3.T
	matcher  *matcher.Matcher
	deref    oas.Dereferencer
	store    *state.Store
	tracker  requestlog.Store
	compiler dsl.Compiler
	policy   validator.CodePolicy

	// resolveMu serializes Resolve so that a $times decrement is stored before the next
	// request reads the state.
	resolveMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithCompiler sets the DSL compiler used for updates and resolution.
func WithCompiler(c dsl.Compiler) Option {
	return func(s *Service) {
		s.compiler = c
	}
}

// WithCodePolicy sets the status code policy for states without $code.
func WithCodePolicy(p validator.CodePolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithTracker records calls into store, scoped to the service.
func WithTracker(store requestlog.ServiceStore) Option {
	return func(s *Service) {
		s.tracker = requestlog.Scoped(store, s.name)
	}
}

// WithAbsPath sets the directory the service was loaded from.
func WithAbsPath(path string) Option {
	return func(s *Service) {
		s.absPath = path
	}
}

// New creates a service named name over doc.
func New(name string, doc *openapi3.T, opts ...Option) *Service {
	s := &Service{
		name:    name,
		doc:     doc,
		matcher: matcher.New(doc),
		deref:   oas.NewDereferencer(doc),
		store:   state.NewStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracker == nil {
		s.tracker = requestlog.Scoped(requestlog.NewInMemory(0), name)
	}
	return s
}

// Name returns the service name.
func (s *Service) Name() string { return s.name }

// AbsPath returns the directory the service was loaded from, if any.
func (s *Service) AbsPath() string { return s.absPath }

// Document returns the OpenAPI document.
func (s *Service) Document() *openapi3.T { return s.doc }

// Dereferencer returns the schema dereferencer bound to the document.
func (s *Service) Dereferencer() oas.Dereferencer { return s.deref }

// HasDefinedPaths reports whether the document declares any path.
func (s *Service) HasDefinedPaths() bool { return s.matcher.HasPaths() }

// Routes lists the declared operations.
func (s *Service) Routes() []matcher.Route { return s.matcher.Routes() }

// Matcher returns the endpoint matcher.
func (s *Service) Matcher() *matcher.Matcher { return s.matcher }

// MatchResult is returned by Match.
type MatchResult struct {
	Operation *openapi3.Operation
	Route     matcher.Route
	State     *state.Compiled
	Service   *Service
}

// Match resolves req to an operation and the state currently configured for it. Returns nil
// when no declared route accepts the request.
func (s *Service) Match(req matcher.Request) *MatchResult {
	m := s.matcher.Match(req)
	if m == nil {
		return nil
	}
	return &MatchResult{
		Operation: m.Operation,
		Route:     m.Route,
		State:     s.store.Get(m.Method, m.Endpoint.NormalizedEndpoint),
		Service:   s,
	}
}

// UpdateState compiles input and stores it for the targeted endpoint and method, replacing any
// previous state there. The state must apply to at least one targeted operation; otherwise the
// first validation error is returned and nothing is stored.
func (s *Service) UpdateState(input state.Input) error {
	if !s.HasDefinedPaths() {
		return &Error{Err: ErrNoPaths, Service: s.name}
	}
	in := input.Normalize()

	endpoint := state.AllEndpoints
	var targets []matcher.Route
	if in.Endpoint == state.AllEndpoints {
		for _, r := range s.matcher.Routes() {
			if in.Method == state.AnyMethod || strings.EqualFold(in.Method, r.Method) {
				targets = append(targets, r)
			}
		}
	} else {
		ep := s.matcher.FindEndpoint(in.Endpoint)
		if ep == nil {
			return &Error{Err: ErrUnknownEndpoint, Service: s.name, Endpoint: in.Endpoint}
		}
		endpoint = ep.NormalizedEndpoint
		targets = s.matcher.Operations(*ep, in.Method)
	}
	if len(targets) == 0 {
		return &Error{Err: ErrUnknownMethod, Service: s.name, Endpoint: in.Endpoint, Method: in.Method}
	}

	compiled, err := state.Compile(in.State, s.compiler)
	if err != nil {
		return err
	}
	if err := s.check(compiled, targets); err != nil {
		return err
	}
	s.store.Update(state.Key(in.Method, endpoint), compiled)
	return nil
}

// check accepts compiled when at least one target resolves it.
func (s *Service) check(compiled *state.Compiled, targets []matcher.Route) error {
	var first error
	for _, target := range targets {
		res := validator.Resolve(target.Operation, compiled, s.deref, s.validatorOptions()...)
		err := res.Err
		if err == nil {
			_, err = s.compiler.TranslateTopLevelToOAS(compiled.Top().Map(), res.Responses)
		}
		if err == nil {
			return nil
		}
		if first == nil {
			first = err
		}
	}
	return first
}

// ResetState clears the state of this service.
func (s *Service) ResetState() {
	s.store.Reset()
}

// Reset clears the state and the tracked calls of this service.
func (s *Service) Reset() {
	s.ResetState()
	s.tracker.Clear()
}

// States returns the configured states.
func (s *Service) States() []state.Entry {
	return s.store.Entries()
}

// Resolution is the outcome of resolving a request.
type Resolution struct {
	Service   *Service
	Route     matcher.Route
	Operation *openapi3.Operation
	// Params holds the values bound to the template parameters.
	Params map[string]string
	// Responses holds the constrained fragments per status code and content type. Nil means
	// no state applies and any declared response may be generated.
	Responses oas.CodeToMedia
}

// Resolve matches req, validates the state configured for it and consumes one use of its
// $times counter. The decremented state is stored before Resolve returns; an exhausted one is
// removed.
//
// Errors from a state stored for the exact method and endpoint are returned. A state stored for
// any method or for every endpoint that does not fit this operation is ignored.
func (s *Service) Resolve(req matcher.Request) (*Resolution, error) {
	m := s.matcher.Match(req)
	if m == nil {
		return nil, &Error{Err: ErrNoMatch, Service: s.name, Endpoint: req.Path, Method: req.Method}
	}
	res := &Resolution{
		Service:   s,
		Route:     m.Route,
		Operation: m.Operation,
		Params:    m.Params,
	}

	s.resolveMu.Lock()
	defer s.resolveMu.Unlock()

	key, compiled, found := s.store.Lookup(m.Method, m.Endpoint.NormalizedEndpoint)
	if !found {
		return res, nil
	}

	result := validator.Resolve(m.Operation, compiled, s.deref, s.validatorOptions()...)
	if result.Err != nil {
		if key != state.Key(m.Method, m.Endpoint.NormalizedEndpoint) {
			return res, nil
		}
		return nil, result.Err
	}
	res.Responses = result.Responses

	top := compiled.Top()
	if !top.HasTimes() || res.Responses == nil {
		return res, nil
	}
	translated, err := s.compiler.TranslateTopLevelToOAS(top.Map(), res.Responses)
	if err != nil {
		return nil, err
	}
	if _, carried := dsl.TimesOf(translated); carried {
		action := dsl.ActTopLevelFromOAS(translated)
		res.Responses = action.Parsed
		remaining, _ := dsl.TimesOf(action.NewState)
		s.store.Consume(key, compiled, remaining)
	} else if times := dsl.TimesFrom(top.Times); times.IsActive() {
		s.store.Consume(key, compiled, times.Consume())
	}
	return res, nil
}

// Track records a served request/response pair.
func (s *Service) Track(entry *requestlog.Entry) {
	s.tracker.Log(entry)
}

// Spy returns the calls tracked for this service.
func (s *Service) Spy() requestlog.Store {
	return s.tracker
}

func (s *Service) validatorOptions() []validator.Option {
	return []validator.Option{
		validator.WithCompiler(s.compiler),
		validator.WithCodePolicy(s.policy),
	}
}
