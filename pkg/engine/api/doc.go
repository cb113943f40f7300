// Package api implements the oasmock control API and its client.
//
// Test code drives the mock server through it: states are set and reset per service, and the
// tracked calls can be listed and filtered.
//
//	GET    /health
//	GET    /services
//	GET    /services/{name}
//	GET    /services/{name}/routes
//	GET    /services/{name}/state
//	POST   /services/{name}/state
//	DELETE /services/{name}/state
//	GET    /requests
//	GET    /requests/{id}
//	DELETE /requests
//	POST   /reset
package api
