package stub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestResponseDefinition_UnmarshalJSON_ObjectBody(t *testing.T) {
	var r ResponseDefinition
	if err := json.Unmarshal([]byte(`{"status":200,"body":{"id":1}}`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != 200 {
		t.Errorf("expected status 200, got %d", r.Status)
	}
	if r.Body != `{"id":1}` {
		t.Errorf("expected raw JSON body, got %q", r.Body)
	}
}

func TestResponseDefinition_UnmarshalJSON_StringBody(t *testing.T) {
	var r ResponseDefinition
	if err := json.Unmarshal([]byte(`{"status":201,"body":"hello"}`), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Body != "hello" {
		t.Errorf("expected body %q, got %q", "hello", r.Body)
	}
}

func TestResponseDefinition_UnmarshalYAML_MappingBody(t *testing.T) {
	src := `
status: 200
headers:
  Content-Type: application/json
body:
  name: alice
  tags: [a, b]
`
	var r ResponseDefinition
	if err := yaml.Unmarshal([]byte(src), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("expected JSON body, got %q: %v", r.Body, err)
	}
	if body["name"] != "alice" {
		t.Errorf("expected name alice, got %v", body["name"])
	}
	if r.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected content type header to survive decoding")
	}
}

func TestResponseDefinition_UnmarshalYAML_ScalarBody(t *testing.T) {
	var r ResponseDefinition
	if err := yaml.Unmarshal([]byte("status: 404\nbody: not here\n"), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != 404 || r.Body != "not here" {
		t.Errorf("unexpected response: %+v", r)
	}
}

func TestRequestPattern_UnmarshalYAML_Schema(t *testing.T) {
	src := `
method: POST
path: /orders
bodySchema:
  type: object
  required: [sku]
`
	var p RequestPattern
	if err := yaml.Unmarshal([]byte(src), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.BodySchema) == 0 {
		t.Fatal("expected bodySchema to be converted to JSON")
	}
	if _, err := CompileSchema(p.BodySchema); err != nil {
		t.Errorf("expected schema to compile: %v", err)
	}
}

func TestStub_Validate(t *testing.T) {
	valid := func() *Stub {
		return &Stub{
			Request:  &RequestPattern{Method: "GET", Path: "/ok"},
			Response: &ResponseDefinition{Status: 200},
		}
	}

	tests := []struct {
		name   string
		mutate func(s *Stub)
		field  string
	}{
		{"valid", func(*Stub) {}, ""},
		{"missing request", func(s *Stub) { s.Request = nil }, "request"},
		{"missing response", func(s *Stub) { s.Response = nil }, "response"},
		{"no criteria", func(s *Stub) { s.Request = &RequestPattern{} }, "request"},
		{"bad method", func(s *Stub) { s.Request.Method = "FETCH" }, "request.method"},
		{"relative path", func(s *Stub) { s.Request.Path = "ok" }, "request.path"},
		{"path and pattern", func(s *Stub) { s.Request.PathPattern = "^/ok$" }, "request"},
		{"bad path pattern", func(s *Stub) { s.Request.Path = ""; s.Request.PathPattern = "(" }, "request.pathPattern"},
		{"bad header", func(s *Stub) { s.Request.Headers = map[string]string{"bad header": "x"} }, "request.headers"},
		{"equals and contains", func(s *Stub) { s.Request.BodyEquals = "a"; s.Request.BodyContains = "a" }, "request"},
		{"bad jsonpath", func(s *Stub) { s.Request.BodyJSONPath = map[string]any{"$[": 1} }, "request.bodyJsonPath"},
		{"bad schema", func(s *Stub) { s.Request.BodySchema = json.RawMessage(`{"type": `) }, "request.bodySchema"},
		{"bad expression", func(s *Stub) { s.Request.Expression = "method ==" }, "request.expression"},
		{"bad status", func(s *Stub) { s.Response.Status = 42 }, "response.status"},
		{"body and file", func(s *Stub) { s.Response.Body = "x"; s.Response.BodyFile = "x.json" }, "response"},
		{"negative delay", func(s *Stub) { s.Response.DelayMs = -1 }, "response.delayMs"},
		{"huge delay", func(s *Stub) { s.Response.DelayMs = MaxDelayMs + 1 }, "response.delayMs"},
		{"negative priority", func(s *Stub) { s.Priority = -1 }, "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid stub, got %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q (%s)", tt.field, verr.Field, verr.Message)
			}
		})
	}
}

func TestStub_Label(t *testing.T) {
	s := &Stub{ID: "abc", Request: &RequestPattern{Method: "GET", Path: "/close"}}
	if got := s.Label(); got != "GET /close" {
		t.Errorf("expected %q, got %q", "GET /close", got)
	}
	s.Name = "close stub"
	if got := s.Label(); got != "close stub" {
		t.Errorf("expected name to win, got %q", got)
	}
}

func TestStub_CloneIsDeep(t *testing.T) {
	orig := Get("/a").WithHeader("X-A", "1").WithResponseHeader("X-B", "2").MustBuild()
	c := orig.Clone()
	c.Request.Headers["X-A"] = "changed"
	c.Response.Headers["X-B"] = "changed"
	if orig.Request.Headers["X-A"] != "1" || orig.Response.Headers["X-B"] != "2" {
		t.Error("expected clone to not share header maps with the original")
	}
}

func TestBuilder_Defaults(t *testing.T) {
	s, err := Get("/users").Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Request.Method != http.MethodGet || s.Request.Path != "/users" {
		t.Errorf("unexpected request pattern: %+v", s.Request)
	}
	if s.Response.Status != http.StatusOK {
		t.Errorf("expected default status 200, got %d", s.Response.Status)
	}
	if !s.IsEnabled() {
		t.Error("expected stub to be enabled by default")
	}
}

func TestBuilder_Fluent(t *testing.T) {
	s, err := Post("/orders").
		WithName("create order").
		WithPriority(5).
		WithHeader("Authorization", "Bearer *").
		WithQueryParam("dry", "true").
		WithJSONPath("$.sku", "A-1").
		WithSchema(map[string]any{"type": "object"}).
		When(`method == "POST"`).
		WillReturn(http.StatusCreated).
		WithJSON(map[string]int{"id": 7}).
		WithDelay(15 * time.Millisecond).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "create order" || s.Priority != 5 {
		t.Errorf("unexpected metadata: %+v", s)
	}
	if s.Response.Status != http.StatusCreated || s.Response.Body != `{"id":7}` {
		t.Errorf("unexpected response: %+v", s.Response)
	}
	if s.Response.Headers["Content-Type"] != "application/json" {
		t.Error("expected WithJSON to set Content-Type")
	}
	if s.Response.DelayMs != 15 {
		t.Errorf("expected delay 15ms, got %d", s.Response.DelayMs)
	}
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	_, err := Get("/x").WithJSON(make(chan int)).WithSchema(func() {}).Build()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "WithJSON") {
		t.Errorf("expected first error to be reported, got %v", err)
	}
}

func TestBuilder_ValidationError(t *testing.T) {
	_, err := Request("FETCH", "/x").Build()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestBuilder_PathPattern(t *testing.T) {
	s := Get("/ignored").WithPathPattern(`^/users/(?P<id>\d+)$`).MustBuild()
	if s.Request.Path != "" || s.Request.PathPattern == "" {
		t.Errorf("expected path pattern to replace path: %+v", s.Request)
	}
}
