// Package matching provides the low-level matching algorithms used by the mock engine.
//
// It implements:
//
//   - Path template matching: OpenAPI templates such as "/pets/{petId}" against concrete
//     request paths, where each {param} matches exactly one segment
//   - Template normalization: the canonical, case-insensitive form used as a state key
//   - JSONPath conditions: evaluating expressions against recorded JSON bodies
//
// Path matching is score based. When several templates match a request, the one with the
// highest score wins; literal segments outrank parameters. Score constants are defined in
// scores.go.
package matching
