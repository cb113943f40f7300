package matching

import (
	"strings"
)

// MatchTemplate checks if the request path matches an OpenAPI path template.
// Returns a score > 0 if matched, 0 if not matched.
// Literal segments compare case-insensitively; a trailing slash is ignored.
//
// Examples:
//   - "/pets" matches "/pets" (ScorePathExact)
//   - "/pets/{petId}" matches "/pets/123"
//   - "/pets/{petId}" does not match "/pets/123/toys"
func MatchTemplate(template, path string) int {
	template = trimSlash(template)
	path = trimSlash(path)

	if strings.EqualFold(template, path) {
		return ScorePathExact
	}
	if !IsTemplate(template) {
		return 0
	}

	templateParts := Segments(template)
	pathParts := Segments(path)

	// Must have same number of segments
	if len(templateParts) != len(pathParts) {
		return 0
	}

	score := ScorePathNamedParams
	for i, part := range templateParts {
		if isParam(part) {
			if pathParts[i] == "" {
				return 0
			}
			continue
		}
		if !strings.EqualFold(part, pathParts[i]) {
			return 0
		}
		score += ScoreLiteralSegment
	}
	return score
}

// ExtractParams returns the values bound to each {param} of the template.
// The result is nil when the path does not match.
func ExtractParams(template, path string) map[string]string {
	if MatchTemplate(template, path) == 0 {
		return nil
	}
	params := make(map[string]string)
	pathParts := Segments(trimSlash(path))
	for i, part := range Segments(trimSlash(template)) {
		if isParam(part) {
			params[part[1:len(part)-1]] = pathParts[i]
		}
	}
	return params
}

// Normalize returns the canonical form of a template: lower-cased, without a trailing slash,
// with every parameter name erased. "/Pets/{petId}" and "/pets/{id}" both normalize to
// "/pets/{}".
func Normalize(template string) string {
	parts := Segments(trimSlash(template))
	for i, part := range parts {
		if isParam(part) {
			parts[i] = "{}"
			continue
		}
		parts[i] = strings.ToLower(part)
	}
	return "/" + strings.Join(parts, "/")
}

// IsTemplate reports whether the string contains at least one {param} segment.
func IsTemplate(s string) bool {
	for _, part := range Segments(s) {
		if isParam(part) {
			return true
		}
	}
	return false
}

// Segments splits a path into its segments, ignoring leading and trailing slashes.
// The root path has no segments.
func Segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return []string{}
	}
	return strings.Split(p, "/")
}

// StripPrefix removes a base path prefix (e.g. a server URL path such as "/v1") from path.
// The prefix must end on a segment boundary. Returns the stripped path and whether the prefix
// applied.
func StripPrefix(prefix, path string) (string, bool) {
	prefix = trimSlash(prefix)
	if prefix == "/" {
		return path, false
	}
	if len(path) < len(prefix) || !strings.EqualFold(path[:len(prefix)], prefix) {
		return path, false
	}
	rest := path[len(prefix):]
	if rest == "" {
		return "/", true
	}
	if rest[0] != '/' {
		return path, false
	}
	return rest, true
}

// isParam reports whether a segment is a {param} placeholder.
func isParam(segment string) bool {
	return len(segment) >= 2 && strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}

func trimSlash(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return p
}
