// oasmock CLI - stateful mock server for OpenAPI documents.
//
// Build-time version information is set via ldflags:
//
//	go build -ldflags "-X github.com/getmockd/oasmock/pkg/cli.Version=1.0.0" ./cmd/oasmock
package main

import "github.com/getmockd/oasmock/pkg/cli"

func main() {
	cli.Execute()
}
