package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/oasmock/pkg/generator"
	"github.com/getmockd/oasmock/pkg/httputil"
	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/matcher"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/requestlog"
	"github.com/getmockd/oasmock/pkg/service"
)

// MaxRequestBodySize is the maximum allowed request body size (10MB).
const MaxRequestBodySize = 10 << 20

// ErrorBody is written for requests that cannot be answered from a document.
type ErrorBody struct {
	Error string `json:"error"`
}

// Handler serves the services of a registry.
type Handler struct {
	registry *service.Registry
	log      *slog.Logger
	verify   bool

	genMu sync.Mutex
	gen   *generator.Generator
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSeed seeds the payload generator.
func WithSeed(seed uint64) HandlerOption {
	return func(h *Handler) {
		h.gen = generator.New(seed)
	}
}

// WithVerify checks generated payloads against their schema before writing them.
func WithVerify(verify bool) HandlerOption {
	return func(h *Handler) {
		h.verify = verify
	}
}

// WithHandlerLogger sets the operational logger.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = logging.Component(log, "handler")
		}
	}
}

// NewHandler creates a handler over registry.
func NewHandler(registry *service.Registry, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry: registry,
		log:      logging.Nop(),
		gen:      generator.New(0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.log.Warn("request body too large", "path", r.URL.Path, "limit", MaxRequestBodySize)
			httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorBody{Error: "Request body exceeds maximum allowed size"})
			return
		}
		h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
	}

	req := matcher.Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		Host:     r.Host,
		Protocol: protocol(r),
		Headers:  r.Header.Clone(),
		Body:     body,
	}
	entry := &requestlog.Entry{
		Method:      r.Method,
		Path:        r.URL.Path,
		QueryString: r.URL.RawQuery,
		Host:        r.Host,
		Headers:     r.Header.Clone(),
		RequestBody: string(body),
	}

	svc, _ := h.registry.Match(req)
	if svc == nil {
		err := &service.Error{Err: service.ErrNoMatch, Endpoint: r.URL.Path, Method: r.Method}
		h.log.Debug("no matching service", "method", r.Method, "path", r.URL.Path)
		h.fail(w, entry, start, http.StatusNotFound, err)
		h.registry.Requests().Log(entry)
		return
	}

	res, err := svc.Resolve(req)
	if err != nil {
		h.log.Warn("failed to resolve request", "service", svc.Name(), "method", r.Method, "path", r.URL.Path, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNoMatch) {
			status = http.StatusNotFound
		}
		h.fail(w, entry, start, status, err)
		svc.Track(entry)
		return
	}
	entry.Operation = res.Route.OperationID
	if entry.Operation == "" {
		entry.Operation = res.Route.Method + " " + res.Route.Endpoint.SchemaEndpoint
	}
	entry.Endpoint = res.Route.Endpoint.SchemaEndpoint

	status, contentType, payload, err := h.render(svc, res)
	if err != nil {
		h.log.Warn("failed to render response", "service", svc.Name(), "operation", entry.Operation, "error", err)
		h.fail(w, entry, start, http.StatusInternalServerError, err)
		svc.Track(entry)
		return
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	if payload != nil && r.Method != http.MethodHead {
		_, _ = w.Write(payload)
	}

	entry.ResponseStatus = status
	entry.ContentType = contentType
	entry.ResponseBody = string(payload)
	entry.DurationMs = int(time.Since(start).Milliseconds())
	svc.Track(entry)

	h.log.Debug("request served",
		"service", svc.Name(),
		"method", r.Method,
		"path", r.URL.Path,
		"operation", entry.Operation,
		"status", status,
	)
}

// render picks the response of res and generates its payload.
func (h *Handler) render(svc *service.Service, res *service.Resolution) (int, string, []byte, error) {
	declared := oas.ResponseMedia(res.Operation, svc.Dereferencer())

	var code string
	if res.Responses != nil {
		code = chooseCode(res.Responses.Codes())
	} else {
		code = chooseCode(declaredCodes(res.Operation))
	}
	if code == "" {
		return http.StatusNoContent, "", nil, nil
	}
	status := statusFor(code)

	contentType := chooseContentType(declared[code])
	if contentType == "" {
		return status, "", nil, nil
	}
	base := declared[code][contentType]
	var fragment *oas.Schema
	if media, ok := res.Responses[code]; ok {
		fragment = media[contentType]
	}
	schema := generator.Merge(base, fragment)

	h.genMu.Lock()
	value := h.gen.Generate(schema)
	h.genMu.Unlock()

	if h.verify {
		if err := generator.Verify(schema, value); err != nil {
			return 0, "", nil, err
		}
	}

	payload, err := encode(contentType, value)
	if err != nil {
		return 0, "", nil, err
	}
	return status, contentType, payload, nil
}

func (h *Handler) fail(w http.ResponseWriter, entry *requestlog.Entry, start time.Time, status int, err error) {
	body := ErrorBody{Error: err.Error()}
	data, _ := json.Marshal(body)
	httputil.WriteJSON(w, status, body)

	entry.ResponseStatus = status
	entry.ContentType = "application/json"
	entry.ResponseBody = string(data)
	entry.Error = err.Error()
	entry.DurationMs = int(time.Since(start).Milliseconds())
}

func encode(contentType string, value any) ([]byte, error) {
	if !isJSON(contentType) {
		switch v := value.(type) {
		case string:
			return []byte(v), nil
		case nil:
			return nil, nil
		}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return data, nil
}

func protocol(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
