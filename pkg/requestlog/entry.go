package requestlog

import "time"

// Entry is one tracked request/response pair.
type Entry struct {
	// ID is a unique identifier assigned when the entry is logged.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Service is the name of the service that served the request; empty when no service
	// matched.
	Service string `json:"service,omitempty"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// Path is the request path as received, without the query string.
	Path string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Host is the request host.
	Host string `json:"host,omitempty"`

	// Operation is the operationId of the matched operation, or "METHOD template" when the
	// operation has no ID.
	Operation string `json:"operation,omitempty"`

	// Endpoint is the matched path template as declared, e.g. "/pets/{petId}".
	Endpoint string `json:"endpoint,omitempty"`

	// Headers are the request headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// RequestBody is the request body.
	RequestBody string `json:"requestBody,omitempty"`

	// ResponseStatus is the status code returned.
	ResponseStatus int `json:"responseStatus"`

	// ContentType is the content type of the response.
	ContentType string `json:"contentType,omitempty"`

	// ResponseBody is the response body.
	ResponseBody string `json:"responseBody,omitempty"`

	// DurationMs is the request processing time in milliseconds.
	DurationMs int `json:"durationMs"`

	// Error contains the resolution error, if any.
	Error string `json:"error,omitempty"`
}
