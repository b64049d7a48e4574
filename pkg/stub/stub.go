// Package stub defines HTTP stub mappings: a request pattern the engine matches
// incoming requests against and the response it replays when the pattern matches.
package stub

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Stub is a single request-to-response mapping served by the engine.
type Stub struct {
	// ID is assigned by the engine when the stub is registered.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Name is a human-readable name shown in near-miss diagnostics.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Enabled defaults to true when nil.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Priority breaks ties between stubs with the same match score.
	// Higher priority stubs win.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`

	Request  *RequestPattern     `json:"request" yaml:"request"`
	Response *ResponseDefinition `json:"response" yaml:"response"`

	CreatedAt time.Time `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitzero" yaml:"updatedAt,omitempty"`
}

// IsEnabled reports whether the stub takes part in matching.
func (s *Stub) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Label returns the name used for the stub in diagnostics.
func (s *Stub) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Request != nil {
		path := s.Request.Path
		if path == "" {
			path = s.Request.PathPattern
		}
		if s.Request.Method != "" {
			return s.Request.Method + " " + path
		}
		if path != "" {
			return path
		}
	}
	return s.ID
}

// Clone returns a deep copy of the stub.
func (s *Stub) Clone() *Stub {
	if s == nil {
		return nil
	}
	out := *s
	if s.Enabled != nil {
		enabled := *s.Enabled
		out.Enabled = &enabled
	}
	if s.Request != nil {
		req := *s.Request
		req.Headers = cloneMap(s.Request.Headers)
		req.QueryParams = cloneMap(s.Request.QueryParams)
		if s.Request.BodyJSONPath != nil {
			req.BodyJSONPath = make(map[string]any, len(s.Request.BodyJSONPath))
			for k, v := range s.Request.BodyJSONPath {
				req.BodyJSONPath[k] = v
			}
		}
		out.Request = &req
	}
	if s.Response != nil {
		resp := *s.Response
		resp.Headers = cloneMap(s.Response.Headers)
		out.Response = &resp
	}
	return &out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RequestPattern defines criteria used to match incoming HTTP requests.
// Every populated field must match.
type RequestPattern struct {
	Method       string            `json:"method,omitempty" yaml:"method,omitempty"`
	Path         string            `json:"path,omitempty" yaml:"path,omitempty"`
	PathPattern  string            `json:"pathPattern,omitempty" yaml:"pathPattern,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	QueryParams  map[string]string `json:"queryParams,omitempty" yaml:"queryParams,omitempty"`
	BodyEquals   string            `json:"bodyEquals,omitempty" yaml:"bodyEquals,omitempty"`
	BodyContains string            `json:"bodyContains,omitempty" yaml:"bodyContains,omitempty"`
	BodyPattern  string            `json:"bodyPattern,omitempty" yaml:"bodyPattern,omitempty"`
	BodyJSONPath map[string]any    `json:"bodyJsonPath,omitempty" yaml:"bodyJsonPath,omitempty"`

	// BodySchema is a JSON Schema (draft 2020-12) the request body must satisfy.
	BodySchema json.RawMessage `json:"bodySchema,omitempty" yaml:"-"`

	// Expression is a boolean expr-lang predicate evaluated against the request.
	// Available variables: method, path, query, headers, body, json.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// UnmarshalYAML decodes the pattern and converts an inline bodySchema mapping to JSON.
func (p *RequestPattern) UnmarshalYAML(value *yaml.Node) error {
	type patternAlias RequestPattern
	var alias patternAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*p = RequestPattern(alias)

	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value != "bodySchema" {
			continue
		}
		var schema any
		if err := value.Content[i+1].Decode(&schema); err != nil {
			return fmt.Errorf("failed to decode bodySchema: %w", err)
		}
		raw, err := json.Marshal(schema)
		if err != nil {
			return fmt.Errorf("failed to marshal bodySchema to JSON: %w", err)
		}
		p.BodySchema = raw
	}
	return nil
}

// ResponseDefinition specifies the HTTP response replayed for a matched request.
type ResponseDefinition struct {
	Status   int               `json:"status" yaml:"status"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body     string            `json:"body,omitempty" yaml:"body,omitempty"`
	BodyFile string            `json:"bodyFile,omitempty" yaml:"bodyFile,omitempty"`
	DelayMs  int               `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
}

// UnmarshalJSON accepts the body as a string or as any JSON value.
// A non-string body is stored as its raw JSON text.
func (r *ResponseDefinition) UnmarshalJSON(data []byte) error {
	var proxy struct {
		Status   int               `json:"status"`
		Headers  map[string]string `json:"headers,omitempty"`
		Body     json.RawMessage   `json:"body"`
		BodyFile string            `json:"bodyFile,omitempty"`
		DelayMs  int               `json:"delayMs,omitempty"`
	}
	if err := json.Unmarshal(data, &proxy); err != nil {
		return err
	}

	r.Status = proxy.Status
	r.Headers = proxy.Headers
	r.BodyFile = proxy.BodyFile
	r.DelayMs = proxy.DelayMs
	r.Body = ""

	if len(proxy.Body) == 0 || string(proxy.Body) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(proxy.Body, &s); err == nil {
		r.Body = s
		return nil
	}
	r.Body = string(proxy.Body)
	return nil
}

// UnmarshalYAML accepts the body as a scalar or as a mapping/sequence.
// A mapping or sequence body is stored as JSON text.
func (r *ResponseDefinition) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping node, got %d", value.Kind)
	}

	var proxy struct {
		Status   int               `yaml:"status"`
		Headers  map[string]string `yaml:"headers,omitempty"`
		Body     yaml.Node         `yaml:"body"`
		BodyFile string            `yaml:"bodyFile,omitempty"`
		DelayMs  int               `yaml:"delayMs,omitempty"`
	}
	if err := value.Decode(&proxy); err != nil {
		return err
	}

	r.Status = proxy.Status
	r.Headers = proxy.Headers
	r.BodyFile = proxy.BodyFile
	r.DelayMs = proxy.DelayMs
	r.Body = ""

	switch proxy.Body.Kind {
	case 0:
		return nil
	case yaml.ScalarNode:
		r.Body = proxy.Body.Value
		return nil
	}

	var body any
	if err := proxy.Body.Decode(&body); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body to JSON: %w", err)
	}
	r.Body = string(data)
	return nil
}
