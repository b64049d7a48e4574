package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Builder builds stubs using a fluent API.
//
//	s, err := stub.Get("/users/123").
//	    WillReturn(http.StatusOK).
//	    WithJSON(map[string]string{"id": "123"}).
//	    Build()
type Builder struct {
	stub *Stub
	err  error // first error encountered during building
}

// Request starts a stub matching the given method and path.
// An empty method matches any method.
func Request(method, path string) *Builder {
	return &Builder{
		stub: &Stub{
			Request:  &RequestPattern{Method: method, Path: path},
			Response: &ResponseDefinition{Status: http.StatusOK},
		},
	}
}

// Get starts a stub for GET requests to path.
func Get(path string) *Builder { return Request(http.MethodGet, path) }

// Post starts a stub for POST requests to path.
func Post(path string) *Builder { return Request(http.MethodPost, path) }

// Put starts a stub for PUT requests to path.
func Put(path string) *Builder { return Request(http.MethodPut, path) }

// Delete starts a stub for DELETE requests to path.
func Delete(path string) *Builder { return Request(http.MethodDelete, path) }

// Any starts a stub matching every method on path.
func Any(path string) *Builder { return Request("", path) }

// setError records the first error encountered during building.
func (b *Builder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *Builder) Err() error {
	return b.err
}

// WithName sets the name shown in near-miss diagnostics.
func (b *Builder) WithName(name string) *Builder {
	b.stub.Name = name
	return b
}

// WithDescription sets a description for the stub.
func (b *Builder) WithDescription(description string) *Builder {
	b.stub.Description = description
	return b
}

// WithPriority sets the tie-breaking priority. Higher wins.
func (b *Builder) WithPriority(priority int) *Builder {
	b.stub.Priority = priority
	return b
}

// WithPathPattern replaces the exact path with a regex pattern.
func (b *Builder) WithPathPattern(pattern string) *Builder {
	b.stub.Request.Path = ""
	b.stub.Request.PathPattern = pattern
	return b
}

// WithHeader matches requests carrying the header. The value may use * wildcards.
func (b *Builder) WithHeader(key, value string) *Builder {
	if b.stub.Request.Headers == nil {
		b.stub.Request.Headers = make(map[string]string)
	}
	b.stub.Request.Headers[key] = value
	return b
}

// WithQueryParam matches requests with a specific query parameter value.
func (b *Builder) WithQueryParam(key, value string) *Builder {
	if b.stub.Request.QueryParams == nil {
		b.stub.Request.QueryParams = make(map[string]string)
	}
	b.stub.Request.QueryParams[key] = value
	return b
}

// WithBodyEquals matches requests whose body is exactly body.
func (b *Builder) WithBodyEquals(body string) *Builder {
	b.stub.Request.BodyEquals = body
	return b
}

// WithBodyContains matches requests whose body contains substr.
func (b *Builder) WithBodyContains(substr string) *Builder {
	b.stub.Request.BodyContains = substr
	return b
}

// WithBodyPattern matches requests whose body matches the regex pattern.
func (b *Builder) WithBodyPattern(pattern string) *Builder {
	b.stub.Request.BodyPattern = pattern
	return b
}

// WithJSONPath matches requests whose JSON body has expected at path.
// Pass map[string]any{"exists": true} to check presence only.
func (b *Builder) WithJSONPath(path string, expected any) *Builder {
	if b.stub.Request.BodyJSONPath == nil {
		b.stub.Request.BodyJSONPath = make(map[string]any)
	}
	b.stub.Request.BodyJSONPath[path] = expected
	return b
}

// WithSchema matches requests whose JSON body satisfies schema.
// schema may be a string, []byte, json.RawMessage or any JSON-encodable value.
func (b *Builder) WithSchema(schema any) *Builder {
	switch v := schema.(type) {
	case string:
		b.stub.Request.BodySchema = json.RawMessage(v)
	case []byte:
		b.stub.Request.BodySchema = json.RawMessage(v)
	case json.RawMessage:
		b.stub.Request.BodySchema = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			b.setError(fmt.Errorf("WithSchema: failed to marshal schema: %w", err))
			return b
		}
		b.stub.Request.BodySchema = data
	}
	return b
}

// When adds an expr-lang predicate the request must satisfy.
func (b *Builder) When(expression string) *Builder {
	b.stub.Request.Expression = expression
	return b
}

// WillReturn sets the response status code.
func (b *Builder) WillReturn(status int) *Builder {
	b.stub.Response.Status = status
	return b
}

// WithResponseHeader adds a response header.
func (b *Builder) WithResponseHeader(key, value string) *Builder {
	if b.stub.Response.Headers == nil {
		b.stub.Response.Headers = make(map[string]string)
	}
	b.stub.Response.Headers[key] = value
	return b
}

// WithBody sets the response body.
// Strings and byte slices are used verbatim; other values are JSON encoded.
func (b *Builder) WithBody(body any) *Builder {
	switch v := body.(type) {
	case string:
		b.stub.Response.Body = v
	case []byte:
		b.stub.Response.Body = string(v)
	default:
		return b.WithJSON(v)
	}
	return b
}

// WithJSON sets a JSON response body and its Content-Type.
func (b *Builder) WithJSON(body any) *Builder {
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		return b
	}
	b.stub.Response.Body = string(data)
	return b.WithResponseHeader("Content-Type", "application/json")
}

// WithBodyFile serves the response body from a file.
func (b *Builder) WithBodyFile(path string) *Builder {
	b.stub.Response.BodyFile = path
	return b
}

// WithDelay delays the response.
func (b *Builder) WithDelay(d time.Duration) *Builder {
	b.stub.Response.DelayMs = int(d.Milliseconds())
	return b
}

// Disabled registers the stub without taking part in matching.
func (b *Builder) Disabled() *Builder {
	enabled := false
	b.stub.Enabled = &enabled
	return b
}

// Build validates and returns the stub.
func (b *Builder) Build() (*Stub, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.stub.Validate(); err != nil {
		return nil, err
	}
	return b.stub.Clone(), nil
}

// MustBuild is like Build but panics on error. Intended for test fixtures.
func (b *Builder) MustBuild() *Stub {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
