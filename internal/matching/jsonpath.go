package matching

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// JSONPathResult is the outcome of evaluating a set of JSONPath conditions.
type JSONPathResult struct {
	// Matched counts the satisfied conditions.
	Matched int
	// Failed lists the paths whose condition was not satisfied, sorted.
	Failed []string
	// Values holds the value found for each satisfied path, keyed by a
	// sanitized form of the path ("$.user.name" becomes "user_name").
	Values map[string]any
}

// OK reports whether every condition was satisfied.
func (r JSONPathResult) OK() bool { return r.Matched > 0 && len(r.Failed) == 0 }

// Score is ScoreJSONPathCondition per satisfied condition.
func (r JSONPathResult) Score() int { return r.Matched * ScoreJSONPathCondition }

// MatchJSONPath evaluates conditions against a decoded JSON document.
// An expected value of {"exists": true|false} checks presence only.
// Every condition fails when docOK is false.
func MatchJSONPath(conditions map[string]any, doc any, docOK bool) JSONPathResult {
	res := JSONPathResult{Values: make(map[string]any)}
	for _, path := range slices.Sorted(maps.Keys(conditions)) {
		var found any
		ok := false
		if docOK {
			found, ok = evalJSONPath(path, conditions[path], doc)
		}
		if !ok {
			res.Failed = append(res.Failed, path)
			continue
		}
		res.Matched++
		if found != nil {
			res.Values[jsonPathKey(path)] = found
		}
	}
	return res
}

// MatchJSONPathBody decodes body and evaluates conditions against it.
func MatchJSONPathBody(conditions map[string]any, body []byte) JSONPathResult {
	var doc any
	err := json.Unmarshal(body, &doc)
	return MatchJSONPath(conditions, doc, err == nil)
}

func evalJSONPath(path string, expected, doc any) (any, bool) {
	x, err := jsonPathCache.get(path)
	if err != nil {
		return nil, false
	}
	results := x.Get(doc)

	if want, isExists := existenceCheck(expected); isExists {
		if want && len(results) > 0 {
			return results[0], true
		}
		return nil, !want && len(results) == 0
	}

	for _, r := range results {
		if looselyEqual(r, expected) {
			return r, true
		}
	}
	return nil, false
}

// existenceCheck recognizes {"exists": bool}.
func existenceCheck(expected any) (want, ok bool) {
	m, isMap := expected.(map[string]any)
	if !isMap || len(m) != 1 {
		return false, false
	}
	v, has := m["exists"]
	if !has {
		return false, false
	}
	b, _ := v.(bool)
	return b, true
}

// looselyEqual compares JSON values, treating all numeric types as equal
// when their float64 values are.
func looselyEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if a, ok := asFloat(actual); ok {
		if e, ok := asFloat(expected); ok {
			return a == e
		}
	}
	return reflect.DeepEqual(actual, expected)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// jsonPathKey turns a JSONPath into an identifier-like key.
func jsonPathKey(path string) string {
	path = strings.TrimPrefix(strings.TrimPrefix(path, "$"), ".")
	var b strings.Builder
	for _, c := range path {
		switch c {
		case '.', '[', ']', '*', '@', '?', '(', ')', ',', ' ', '\'', '"':
			s := b.String()
			if len(s) > 0 && s[len(s)-1] != '_' {
				b.WriteByte('_')
			}
		default:
			b.WriteRune(c)
		}
	}
	return strings.TrimRight(b.String(), "_")
}
