// Package loader reads service definitions from the file system.
//
// Every directory directly below a services directory is one service. Its regular files are
// read into a service.Def; picking and parsing the OpenAPI document is left to package service.
// Services directories may be given as doublestar patterns ("specs/**/services").
package loader
