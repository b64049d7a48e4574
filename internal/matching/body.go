package matching

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MatchBodyEquals reports whether body is exactly want.
func MatchBodyEquals(want string, body []byte) bool {
	return string(body) == want
}

// MatchBodyContains reports whether body contains substr.
func MatchBodyContains(substr string, body []byte) bool {
	return bytes.Contains(body, []byte(substr))
}

// MatchBodyPattern reports whether body matches the regular expression.
// Invalid patterns never match.
func MatchBodyPattern(pattern string, body []byte) bool {
	re, err := regexCache.get(pattern)
	if err != nil {
		return false
	}
	return re.Match(body)
}

// MatchBodySchema validates body against a JSON Schema. The returned error
// explains the mismatch and is nil when the body conforms.
func MatchBodySchema(schema []byte, body []byte) error {
	compiled, err := schemaCache.get(string(schema))
	if err != nil {
		return err
	}
	doc, err := decodeJSON(body)
	if err != nil {
		return err
	}
	return compiled.Validate(doc)
}

func decodeJSON(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("body is not valid JSON: %w", err)
	}
	return doc, nil
}

// firstLine trims multi-line validator output to something that fits in a
// one-line reason.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
