package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors wrapped by Error and ParseError.
var (
	ErrNoPaths         = errors.New("service has no defined paths")
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrUnknownMethod   = errors.New("no operation for method")
	ErrNoMatch         = errors.New("no matching template")
	ErrUnknownService  = errors.New("unknown service")
	ErrDuplicate       = errors.New("duplicate service")

	ErrSpecNotFound  = errors.New("spec file not found")
	ErrMultipleSpecs = errors.New("multiple spec files")
	ErrInvalidSpec   = errors.New("invalid spec")
)

// Error is returned by service and registry operations.
type Error struct {
	Err      error
	Service  string
	Endpoint string
	Method   string
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Err, ErrNoPaths):
		return fmt.Sprintf("'%s' has no defined paths!", e.Service)
	case errors.Is(e.Err, ErrUnknownEndpoint):
		return fmt.Sprintf("Can't find endpoint '%s' in '%s'", e.Endpoint, e.Service)
	case errors.Is(e.Err, ErrUnknownMethod):
		return fmt.Sprintf("No %s operation for endpoint '%s' in '%s'", strings.ToUpper(e.Method), e.Endpoint, e.Service)
	case errors.Is(e.Err, ErrNoMatch):
		return fmt.Sprintf("No matching template found for %s %s", strings.ToUpper(e.Method), e.Endpoint)
	case errors.Is(e.Err, ErrUnknownService):
		return fmt.Sprintf("service %q not found", e.Service)
	case errors.Is(e.Err, ErrDuplicate):
		return fmt.Sprintf("service %q is already registered", e.Service)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for this error.
func (e *Error) StatusCode() int {
	switch {
	case errors.Is(e.Err, ErrDuplicate), errors.Is(e.Err, ErrNoPaths):
		return http.StatusConflict
	default:
		return http.StatusNotFound
	}
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *Error) Hint() string {
	switch {
	case errors.Is(e.Err, ErrNoPaths):
		return "Add at least one path to the service document before setting state."
	case errors.Is(e.Err, ErrUnknownEndpoint):
		return fmt.Sprintf("Use a path or template declared by '%s'. Run `oasmock routes` to list them.", e.Service)
	case errors.Is(e.Err, ErrUnknownMethod):
		return "Use a method declared for the endpoint, or omit method to target all of them."
	case errors.Is(e.Err, ErrNoMatch):
		return "Check the request path against the service documents, including the server base path."
	case errors.Is(e.Err, ErrUnknownService):
		return "Service names are the names of the directories below the services directory."
	default:
		return ""
	}
}

// knownSpecFiles names the spec files a service directory may hold.
const knownSpecFiles = "index.yaml, openapi.yaml, spec.yaml"

// ParseError is returned when a service definition cannot be parsed.
type ParseError struct {
	Err  error
	Dir  string
	File string
	// Cause is the underlying loader error for ErrInvalidSpec.
	Cause error
}

func (e *ParseError) Error() string {
	switch {
	case errors.Is(e.Err, ErrSpecNotFound):
		return fmt.Sprintf("Cannot find known spec file (%s) in '%s'", knownSpecFiles, e.Dir)
	case errors.Is(e.Err, ErrMultipleSpecs):
		return fmt.Sprintf("Found more than one spec file (%s) in '%s'", e.File, e.Dir)
	default:
		return fmt.Sprintf("Invalid spec file '%s' in '%s': %v", e.File, e.Dir, e.Cause)
	}
}

func (e *ParseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ParseError) Hint() string {
	switch {
	case errors.Is(e.Err, ErrSpecNotFound):
		return fmt.Sprintf("Name the OpenAPI document of the service one of: %s (.yml also works).", knownSpecFiles)
	case errors.Is(e.Err, ErrMultipleSpecs):
		return "Keep exactly one OpenAPI document per service directory."
	default:
		return "Run `oasmock validate` for details."
	}
}
