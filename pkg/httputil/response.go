// Package httputil provides shared HTTP utilities for consistent response handling.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// MaxBodySize bounds JSON request bodies read with DecodeJSON.
const MaxBodySize = 1 << 20

// ErrorResponse is the body of control API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// hinter is implemented by errors that carry a user-facing suggestion.
type hinter interface {
	Hint() string
}

// statusCoder is implemented by errors that map to an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response with the given status code.
// The error response includes an error code and a human-readable message.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// WriteErr writes err as an ErrorResponse. The status comes from the error when it provides
// one, otherwise fallback is used; the hint is included when the error has one.
func WriteErr(w http.ResponseWriter, fallback int, errCode string, err error) {
	status := fallback
	var sc statusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}
	resp := ErrorResponse{Error: errCode, Message: err.Error()}
	var h hinter
	if errors.As(err, &h) {
		resp.Hint = h.Hint()
	}
	WriteJSON(w, status, resp)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON decodes a bounded JSON request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}
	return err
}

// WriteDecodeError reports a DecodeJSON failure.
func WriteDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return
	}
	WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON in request body: "+err.Error())
}
