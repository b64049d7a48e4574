package matching

import (
	"strconv"
	"strings"
)

// MatchPath scores path against a stub path. Supported forms:
//   - exact: "/api/users"
//   - named segments: "/api/users/{id}"
//   - wildcards: "/api/users/*" or "/api/*/items"
//
// Returns 0 when the path does not match.
func MatchPath(pattern, path string) int {
	switch {
	case pattern == path:
		return ScorePathExact
	case hasNamedSegments(pattern):
		if _, ok := matchSegments(pattern, path); ok {
			return ScorePathNamedParams
		}
	case strings.Contains(pattern, "*"):
		if strings.HasSuffix(pattern, "/*") && path == strings.TrimSuffix(pattern, "/*") {
			return ScorePathWildcard
		}
		if re, err := globCache.get(pattern); err == nil && re.MatchString(path) {
			return ScorePathWildcard
		}
	}
	return 0
}

// PathVariables extracts {name} segments and * wildcards from path.
// Wildcards are keyed by their position: "0", "1", ... A trailing
// wildcard captures the rest of the path.
func PathVariables(pattern, path string) map[string]string {
	vars, _ := matchSegments(pattern, path)
	return vars
}

// MatchPathPattern matches path against a regular expression and returns its
// named capture groups. Invalid patterns never match.
func MatchPathPattern(pattern, path string) (int, map[string]string) {
	if pattern == "" {
		return 0, nil
	}
	re, err := regexCache.get(pattern)
	if err != nil {
		return 0, nil
	}
	m := re.FindStringSubmatch(path)
	if m == nil {
		return 0, nil
	}
	captures := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i > 0 && name != "" {
			captures[name] = m[i]
		}
	}
	return ScorePathPattern, captures
}

func hasNamedSegments(pattern string) bool {
	return strings.Contains(pattern, "{") && strings.Contains(pattern, "}")
}

func maxPathScore(pattern string) int {
	switch {
	case hasNamedSegments(pattern):
		return ScorePathNamedParams
	case strings.Contains(pattern, "*"):
		return ScorePathWildcard
	default:
		return ScorePathExact
	}
}

// matchSegments walks pattern and path segment by segment.
func matchSegments(pattern, path string) (map[string]string, bool) {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	vars := make(map[string]string)
	wildcard := 0

	for i, seg := range want {
		last := i == len(want)-1
		if i >= len(got) {
			return vars, false
		}
		switch {
		case seg == "*" && last:
			vars[strconv.Itoa(wildcard)] = strings.Join(got[i:], "/")
			return vars, true
		case seg == "*":
			vars[strconv.Itoa(wildcard)] = got[i]
			wildcard++
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			vars[seg[1:len(seg)-1]] = got[i]
		case seg != got[i]:
			return vars, false
		}
	}
	return vars, len(want) == len(got)
}
