// Package template resolves {{path.to.value}} references against an
// execution-scoped variable table.
//
// Resolution is deliberately soft-failing: any path that cannot be fully
// walked (missing key, non-numeric index into a sequence, nil intermediate)
// returns the original template string unchanged. Callers treat
// unresolved-looking values as a signal, never as a fatal condition.
package template

import (
	"strconv"
	"strings"
)

// IsReference reports whether value is a string of the form "{{path}}".
func IsReference(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}")
}

// Resolve resolves value against variables. Reference strings resolve to the
// value at their dotted path, preserving the value's type; every other input
// passes through unchanged. Resolve never mutates variables and never fails:
// malformed or unwalkable paths degrade to the original string.
func Resolve(value any, variables map[string]any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	if !strings.HasPrefix(s, "{{") || !strings.HasSuffix(s, "}}") {
		return value
	}

	path := strings.TrimSpace(s[2 : len(s)-2])
	if path == "" {
		return value
	}

	var current any = variables
	for _, segment := range strings.Split(path, ".") {
		next, ok := walkSegment(current, segment)
		if !ok || next == nil {
			return value
		}
		current = next
	}

	return current
}

// ResolveParams resolves every value of a params map, returning a new map.
func ResolveParams(params map[string]any, variables map[string]any) map[string]any {
	resolved := make(map[string]any, len(params))
	for k, v := range params {
		resolved[k] = Resolve(v, variables)
	}
	return resolved
}

// ResolveString resolves value and stringifies the result. Unresolvable
// references come back as the original template string, matching Resolve.
func ResolveString(value string, variables map[string]any) string {
	resolved := Resolve(value, variables)
	if s, ok := resolved.(string); ok {
		return s
	}
	return Stringify(resolved)
}

// walkSegment descends one path segment into a mapping or sequence.
func walkSegment(current any, segment string) (any, bool) {
	switch v := current.(type) {
	case map[string]any:
		val, ok := v[segment]
		return val, ok
	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, false
		}
		return v[idx], true
	default:
		return nil, false
	}
}
