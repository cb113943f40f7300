package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/matcher"
	"github.com/getmockd/oasmock/pkg/requestlog"
)

// Registry holds the loaded services by name.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*Service
	names    []string

	log      *slog.Logger
	requests requestlog.ServiceStore
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used while loading services.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = logging.Component(log, "registry")
		}
	}
}

// WithRequestLog sets the store every service tracks its calls into.
func WithRequestLog(store requestlog.ServiceStore) RegistryOption {
	return func(r *Registry) {
		if store != nil {
			r.requests = store
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		services: make(map[string]*Service),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.requests == nil {
		r.requests = requestlog.NewInMemory(requestlog.DefaultMaxEntries)
	}
	return r
}

// Requests returns the request log shared by all services.
func (r *Registry) Requests() requestlog.ServiceStore {
	return r.requests
}

// Add registers svc. Names must be unique.
func (r *Registry) Add(svc *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[svc.Name()]; ok {
		return &Error{Err: ErrDuplicate, Service: svc.Name()}
	}
	r.services[svc.Name()] = svc
	r.names = append(r.names, svc.Name())
	sort.Strings(r.names)
	return nil
}

// Get returns the named service.
func (r *Registry) Get(name string) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	if !ok {
		return nil, &Error{Err: ErrUnknownService, Service: name}
	}
	return svc, nil
}

// Services returns the services sorted by name.
func (r *Registry) Services() []*Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Service, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.services[name])
	}
	return out
}

// Len returns the number of services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

// Match returns the first service, in name order, with a route for req.
func (r *Registry) Match(req matcher.Request) (*Service, *MatchResult) {
	for _, svc := range r.Services() {
		if m := svc.Match(req); m != nil {
			return svc, m
		}
	}
	return nil, nil
}

// Reset clears the state and tracked calls of every service.
func (r *Registry) Reset() {
	for _, svc := range r.Services() {
		svc.ResetState()
	}
	r.requests.Clear()
}

// Load parses defs and registers the resulting services. Definitions that fail to parse are
// skipped; their errors are joined into the returned error.
func (r *Registry) Load(ctx context.Context, defs []Def, opts ParseOptions) error {
	var errs []error
	for _, svc := range r.parseAll(ctx, defs, opts, &errs) {
		if err := r.Add(svc); err != nil {
			r.log.Warn("failed to register service", "service", svc.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		r.logLoaded(svc)
	}
	return errors.Join(errs...)
}

// Reload parses defs and swaps them in for the registered services in one step. States set on
// the previous services are dropped; tracked calls are kept. Services that fail to parse are
// left out of the new set.
func (r *Registry) Reload(ctx context.Context, defs []Def, opts ParseOptions) error {
	var errs []error
	services := make(map[string]*Service)
	var names []string
	for _, svc := range r.parseAll(ctx, defs, opts, &errs) {
		if _, ok := services[svc.Name()]; ok {
			errs = append(errs, &Error{Err: ErrDuplicate, Service: svc.Name()})
			continue
		}
		services[svc.Name()] = svc
		names = append(names, svc.Name())
		r.logLoaded(svc)
	}
	sort.Strings(names)

	r.mu.Lock()
	r.services = services
	r.names = names
	r.mu.Unlock()

	r.log.Info("reloaded services", "services", len(names), "errors", len(errs))
	return errors.Join(errs...)
}

func (r *Registry) parseAll(ctx context.Context, defs []Def, opts ParseOptions, errs *[]error) []*Service {
	var out []*Service
	for _, def := range defs {
		parseOpts := opts
		parseOpts.Options = append([]Option{WithTracker(r.requests)}, opts.Options...)

		svc, err := Parse(ctx, def, parseOpts)
		if err != nil {
			r.log.Warn("failed to parse service", "service", def.DirectoryName, "error", err)
			*errs = append(*errs, err)
			continue
		}
		out = append(out, svc)
	}
	return out
}

func (r *Registry) logLoaded(svc *Service) {
	if !svc.HasDefinedPaths() {
		r.log.Warn("service has no defined paths", "service", svc.Name())
	}
	r.log.Info("loaded service", "service", svc.Name(), "routes", len(svc.Routes()))
}
