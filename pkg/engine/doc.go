// Package engine serves mocked services over HTTP.
//
// Handler answers requests for every service of a service.Registry: it resolves the request
// to an operation and its constrained responses, picks a status code and content type, and
// writes a payload produced by the generator. Every answered request is tracked in the
// service's request log. Server runs the Handler next to the control API of package api.
package engine
