// Package config loads the oasmock configuration file.
//
// The file is YAML. ${VAR} and ${VAR:-default} references are expanded before parsing, and a
// fixed set of OASMOCK_* variables override individual fields afterwards:
//
//	port: 8080
//	adminPort: 8081
//	servicesDirectories:
//	  - ./services
//	strict: false
//	codePolicy: all
//	log:
//	  level: info
//	  format: text
//
// Flags given on the command line are applied last by the CLI.
package config
