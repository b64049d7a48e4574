package matching

import (
	"net/http"
	"net/url"
	"strings"
)

// MatchMethod reports whether method satisfies want. An empty want or "ANY"
// accepts every method; HEAD requests are accepted by GET stubs by the
// engine, not here.
func MatchMethod(want, method string) bool {
	if want == "" || strings.EqualFold(want, "ANY") {
		return true
	}
	return strings.EqualFold(want, method)
}

// MatchHeader reports whether any value of header name matches want.
// want may contain * wildcards; a bare "*" only requires presence.
// Header names are case-insensitive.
func MatchHeader(name, want string, header http.Header) bool {
	values := header.Values(name)
	if len(values) == 0 {
		return false
	}
	return anyValueMatches(want, values)
}

// MatchQueryParam reports whether any value of query parameter name matches
// want, using the same wildcard rules as MatchHeader.
func MatchQueryParam(name, want string, query url.Values) bool {
	values, ok := query[name]
	if !ok {
		return false
	}
	if len(values) == 0 {
		values = []string{""}
	}
	return anyValueMatches(want, values)
}

func anyValueMatches(want string, values []string) bool {
	if want == "*" {
		return true
	}
	wild := strings.Contains(want, "*")
	for _, v := range values {
		if !wild {
			if v == want {
				return true
			}
			continue
		}
		if re, err := globCache.get(want); err == nil && re.MatchString(v) {
			return true
		}
	}
	return false
}
