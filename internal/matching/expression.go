package matching

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// ExpressionEnv builds the variables visible to an expression predicate:
//
//	method   string
//	path     string
//	query    map[string]string (first value per key)
//	headers  map[string]string (canonical names, first value)
//	body     string
//	json     decoded JSON body, nil when the body is not JSON
func ExpressionEnv(r *Request, doc any) map[string]any {
	query := make(map[string]string, len(r.Query))
	for k, vs := range r.Query {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}
	headers := make(map[string]string, len(r.Header))
	for k, vs := range r.Header {
		if len(vs) > 0 {
			headers[k] = vs[0]
		}
	}
	return map[string]any{
		"method":  r.Method,
		"path":    r.Path,
		"query":   query,
		"headers": headers,
		"body":    string(r.Body),
		"json":    doc,
	}
}

// EvalExpression runs a boolean expr-lang predicate against env.
func EvalExpression(src string, env map[string]any) (bool, error) {
	program, err := programCache.get(src)
	if err != nil {
		return false, fmt.Errorf("compile expression: %w", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, want bool", out)
	}
	return b, nil
}
