package stub

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/ohler55/ojg/jp"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError represents a validation failure with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// validMethods are the HTTP methods a stub may match on.
var validMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
	"ANY":     true,
}

// headerNameRegex validates HTTP header names (RFC 7230).
var headerNameRegex = regexp.MustCompile(`^[A-Za-z0-9!#$%&'*+\-.^_\x60|~]+$`)

// MaxDelayMs caps the per-stub response delay.
const MaxDelayMs = 30000

// Validate checks the stub. The ID is not required: the engine assigns one.
func (s *Stub) Validate() error {
	if s.Request == nil {
		return &ValidationError{Field: "request", Message: "request pattern is required"}
	}
	if err := s.Request.Validate(); err != nil {
		return err
	}
	if s.Response == nil {
		return &ValidationError{Field: "response", Message: "response is required"}
	}
	if err := s.Response.Validate(); err != nil {
		return err
	}
	if s.Priority < 0 {
		return &ValidationError{Field: "priority", Message: "priority must be >= 0"}
	}
	return nil
}

// Validate checks the request pattern.
func (p *RequestPattern) Validate() error {
	hasAnyCriteria := p.Method != "" ||
		p.Path != "" ||
		p.PathPattern != "" ||
		len(p.Headers) > 0 ||
		len(p.QueryParams) > 0 ||
		p.BodyContains != "" ||
		p.BodyEquals != "" ||
		p.BodyPattern != "" ||
		len(p.BodyJSONPath) > 0 ||
		len(p.BodySchema) > 0 ||
		p.Expression != ""
	if !hasAnyCriteria {
		return &ValidationError{Field: "request", Message: "at least one matching criterion must be specified"}
	}

	if p.Method != "" && !validMethods[strings.ToUpper(p.Method)] {
		return &ValidationError{Field: "request.method", Message: fmt.Sprintf("invalid HTTP method: %s", p.Method)}
	}

	if p.Path != "" && !strings.HasPrefix(p.Path, "/") {
		return &ValidationError{Field: "request.path", Message: "path must start with /"}
	}

	if p.Path != "" && p.PathPattern != "" {
		return &ValidationError{Field: "request", Message: "cannot specify both path and pathPattern"}
	}

	if p.PathPattern != "" {
		if _, err := regexp.Compile(p.PathPattern); err != nil {
			return &ValidationError{Field: "request.pathPattern", Message: fmt.Sprintf("invalid regex pattern: %s", err)}
		}
	}

	if p.BodyPattern != "" {
		if _, err := regexp.Compile(p.BodyPattern); err != nil {
			return &ValidationError{Field: "request.bodyPattern", Message: fmt.Sprintf("invalid regex pattern: %s", err)}
		}
	}

	for name := range p.Headers {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "request.headers", Message: fmt.Sprintf("invalid header name: %s", name)}
		}
	}

	if p.BodyEquals != "" && p.BodyContains != "" {
		return &ValidationError{Field: "request", Message: "cannot specify both bodyEquals and bodyContains"}
	}

	for path := range p.BodyJSONPath {
		if _, err := jp.ParseString(path); err != nil {
			return &ValidationError{
				Field:   "request.bodyJsonPath",
				Message: fmt.Sprintf("invalid JSONPath expression %q: %s", path, err),
			}
		}
	}

	if len(p.BodySchema) > 0 {
		if _, err := CompileSchema(p.BodySchema); err != nil {
			return &ValidationError{Field: "request.bodySchema", Message: err.Error()}
		}
	}

	if p.Expression != "" {
		if _, err := expr.Compile(p.Expression, expr.AsBool(), expr.AllowUndefinedVariables()); err != nil {
			return &ValidationError{Field: "request.expression", Message: fmt.Sprintf("invalid expression: %s", err)}
		}
	}

	return nil
}

// CompileSchema compiles a draft 2020-12 JSON Schema document.
func CompileSchema(schema []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// Validate checks the response definition.
func (r *ResponseDefinition) Validate() error {
	if r.Status < 100 || r.Status > 599 {
		return &ValidationError{
			Field:   "response.status",
			Message: fmt.Sprintf("status must be between 100-599, got %d", r.Status),
		}
	}

	if r.Body != "" && r.BodyFile != "" {
		return &ValidationError{Field: "response", Message: "cannot specify both body and bodyFile"}
	}

	if r.DelayMs < 0 {
		return &ValidationError{Field: "response.delayMs", Message: "delayMs must be >= 0"}
	}
	if r.DelayMs > MaxDelayMs {
		return &ValidationError{Field: "response.delayMs", Message: "delayMs must be <= 30000 (30 seconds)"}
	}

	for name := range r.Headers {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{Field: "response.headers", Message: fmt.Sprintf("invalid header name: %s", name)}
		}
	}

	return nil
}
