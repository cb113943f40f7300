package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/httputil"
	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/requestlog"
	"github.com/getmockd/oasmock/pkg/service"
	"github.com/getmockd/oasmock/pkg/state"
	"github.com/getmockd/oasmock/pkg/validator"
)

// DefaultListLimit caps GET /requests without a limit.
const DefaultListLimit = 100

// API serves the control endpoints for a registry.
type API struct {
	registry *service.Registry
	log      *slog.Logger
	mux      *http.ServeMux
}

// New creates the control API for registry.
func New(registry *service.Registry) *API {
	a := &API{
		registry: registry,
		log:      logging.Nop(),
		mux:      http.NewServeMux(),
	}
	a.registerRoutes()
	return a
}

// SetLogger sets the logger.
func (a *API) SetLogger(log *slog.Logger) {
	if log != nil {
		a.log = logging.Component(log, "api")
	}
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) registerRoutes() {
	a.mux.HandleFunc("GET /health", a.handleHealth)

	// Services
	a.mux.HandleFunc("GET /services", a.handleListServices)
	a.mux.HandleFunc("GET /services/{name}", a.handleGetService)
	a.mux.HandleFunc("GET /services/{name}/routes", a.handleListRoutes)

	// State
	a.mux.HandleFunc("GET /services/{name}/state", a.handleGetState)
	a.mux.HandleFunc("POST /services/{name}/state", a.handleSetState)
	a.mux.HandleFunc("DELETE /services/{name}/state", a.handleResetState)

	// Request logs
	a.mux.HandleFunc("GET /requests", a.handleListRequests)
	a.mux.HandleFunc("GET /requests/{id}", a.handleGetRequest)
	a.mux.HandleFunc("DELETE /requests", a.handleClearRequests)

	a.mux.HandleFunc("POST /reset", a.handleReset)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Services:  a.registry.Len(),
		Timestamp: time.Now().UTC(),
	})
}

func (a *API) handleListServices(w http.ResponseWriter, r *http.Request) {
	services := a.registry.Services()
	resp := ServiceListResponse{Services: make([]ServiceInfo, 0, len(services))}
	for _, svc := range services {
		resp.Services = append(resp.Services, serviceInfo(svc))
	}
	resp.Count = len(resp.Services)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (a *API) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.service(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, serviceInfo(svc))
}

func (a *API) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.service(w, r)
	if !ok {
		return
	}
	routes := svc.Routes()
	out := make([]RouteInfo, 0, len(routes))
	for _, route := range routes {
		out = append(out, RouteInfo{
			Method:             route.Method,
			Endpoint:           route.Endpoint.SchemaEndpoint,
			NormalizedEndpoint: route.Endpoint.NormalizedEndpoint,
			OperationID:        route.OperationID,
			Summary:            route.Summary,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (a *API) handleGetState(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.service(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stateList(svc))
}

func (a *API) handleSetState(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.service(w, r)
	if !ok {
		return
	}
	var input state.Input
	if err := httputil.DecodeJSON(w, r, &input); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if input.State == nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_state", "state is required")
		return
	}

	if err := svc.UpdateState(input); err != nil {
		a.log.Debug("state rejected", "service", svc.Name(), "endpoint", input.Endpoint, "error", err)
		httputil.WriteErr(w, http.StatusBadRequest, errorCode(err), err)
		return
	}
	a.log.Info("state updated", "service", svc.Name(), "method", input.Method, "endpoint", input.Endpoint)
	httputil.WriteJSON(w, http.StatusOK, stateList(svc))
}

func (a *API) handleResetState(w http.ResponseWriter, r *http.Request) {
	svc, ok := a.service(w, r)
	if !ok {
		return
	}
	svc.ResetState()
	a.log.Info("state reset", "service", svc.Name())
	httputil.WriteJSON(w, http.StatusOK, stateList(svc))
}

func (a *API) handleListRequests(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	if err := filter.Validate(); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	store := a.registry.Requests()
	entries := store.List(filter)
	total := store.Count()
	if filter.Service != "" {
		total = store.CountByService(filter.Service)
	}
	httputil.WriteJSON(w, http.StatusOK, RequestListResponse{
		Requests: entries,
		Count:    len(entries),
		Total:    total,
	})
}

func (a *API) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	entry := a.registry.Requests().Get(r.PathValue("id"))
	if entry == nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "request not found: "+r.PathValue("id"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (a *API) handleClearRequests(w http.ResponseWriter, r *http.Request) {
	store := a.registry.Requests()
	var cleared int
	if name := r.URL.Query().Get("service"); name != "" {
		cleared = store.CountByService(name)
		store.ClearByService(name)
	} else {
		cleared = store.Count()
		store.Clear()
	}
	httputil.WriteJSON(w, http.StatusOK, ClearResponse{Cleared: cleared})
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	a.registry.Reset()
	a.log.Info("all services reset")
	httputil.WriteNoContent(w)
}

func (a *API) service(w http.ResponseWriter, r *http.Request) (*service.Service, bool) {
	svc, err := a.registry.Get(r.PathValue("name"))
	if err != nil {
		httputil.WriteErr(w, http.StatusNotFound, "not_found", err)
		return nil, false
	}
	return svc, true
}

func serviceInfo(svc *service.Service) ServiceInfo {
	info := ServiceInfo{
		Name:   svc.Name(),
		Path:   svc.AbsPath(),
		Routes: len(svc.Routes()),
		States: len(svc.States()),
	}
	if doc := svc.Document(); doc != nil && doc.Info != nil {
		info.Title = doc.Info.Title
		info.Version = doc.Info.Version
	}
	return info
}

func stateList(svc *service.Service) StateListResponse {
	entries := svc.States()
	out := StateListResponse{Service: svc.Name(), States: make([]StateEntry, 0, len(entries))}
	for _, e := range entries {
		out.States = append(out.States, StateEntry{
			Method:   e.Key.Method,
			Endpoint: e.Key.Endpoint,
			State:    e.State.State(),
		})
	}
	return out
}

// errorCode classifies a state update error.
func errorCode(err error) string {
	var (
		svcErr       *service.Error
		validatorErr *validator.Error
	)
	switch {
	case errors.As(err, &svcErr):
		return "unknown_route"
	case errors.As(err, &validatorErr):
		return "schema_mismatch"
	case errors.Is(err, dsl.ErrInvalidDirective):
		return "invalid_directive"
	case errors.Is(err, state.ErrInvalidState):
		return "invalid_state"
	default:
		return "update_failed"
	}
}

func parseFilter(r *http.Request) (*requestlog.Filter, error) {
	q := r.URL.Query()
	filter := &requestlog.Filter{
		Limit:    DefaultListLimit,
		Service:  q.Get("service"),
		Method:   q.Get("method"),
		Path:     q.Get("path"),
		BodyPath: q.Get("bodyPath"),
		Where:    q.Get("where"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return nil, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return nil, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	if v := q.Get("status"); v != "" {
		code, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("status must be an integer")
		}
		filter.StatusCode = code
	}
	if v := q.Get("hasError"); v != "" {
		hasError, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("hasError must be a boolean")
		}
		filter.HasError = &hasError
	}
	if v, ok := q["bodyValue"]; ok && len(v) > 0 {
		// JSON literals compare typed; anything else compares as a string.
		var value any
		if err := json.Unmarshal([]byte(v[0]), &value); err != nil {
			value = v[0]
		}
		filter.BodyValue = value
	}
	return filter, nil
}
