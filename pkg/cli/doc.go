// Package cli implements the oasmock command line.
//
// Commands that work on service documents (serve, validate, routes) read the services
// directories directly. Commands that drive a running server (state, requests, reset, health,
// mcp) talk to its control API.
package cli
