package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockscope/pkg/stub"
)

func get(path string) *Request {
	return NewRequest("GET", path, "", nil, nil)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		pattern *stub.RequestPattern
		req     *Request
		want    int
	}{
		{
			name:    "method and exact path",
			pattern: &stub.RequestPattern{Method: "GET", Path: "/users"},
			req:     get("/users"),
			want:    ScoreMethod + ScorePathExact,
		},
		{
			name:    "any method",
			pattern: &stub.RequestPattern{Method: "ANY", Path: "/users"},
			req:     NewRequest("DELETE", "/users", "", nil, nil),
			want:    ScoreAnyMethod + ScorePathExact,
		},
		{
			name:    "empty method is not scored",
			pattern: &stub.RequestPattern{Path: "/users"},
			req:     NewRequest("PUT", "/users", "", nil, nil),
			want:    ScorePathExact,
		},
		{
			name:    "method mismatch",
			pattern: &stub.RequestPattern{Method: "POST", Path: "/users"},
			req:     get("/users"),
			want:    0,
		},
		{
			name: "headers and query",
			pattern: &stub.RequestPattern{
				Method:      "GET",
				Path:        "/search",
				Headers:     map[string]string{"Accept": "application/*"},
				QueryParams: map[string]string{"q": "go"},
			},
			req:  NewRequest("GET", "/search", "q=go", map[string][]string{"Accept": {"application/json"}}, nil),
			want: ScoreMethod + ScorePathExact + ScoreHeader + ScoreQueryParam,
		},
		{
			name: "body schema and expression",
			pattern: &stub.RequestPattern{
				Method:     "POST",
				Path:       "/orders",
				BodySchema: []byte(`{"type":"object","required":["sku"]}`),
				Expression: `json.sku == "A-1"`,
			},
			req:  NewRequest("POST", "/orders", "", nil, []byte(`{"sku":"A-1"}`)),
			want: ScoreMethod + ScorePathExact + ScoreBodySchema + ScoreExpression,
		},
		{
			name:    "path and pattern together never match",
			pattern: &stub.RequestPattern{Path: "/a", PathPattern: "^/a$"},
			req:     get("/a"),
			want:    0,
		},
		{
			name:    "nil pattern",
			pattern: nil,
			req:     get("/a"),
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.pattern, tt.req).Score)
		})
	}
}

func TestScore_Captures(t *testing.T) {
	res := Score(&stub.RequestPattern{Path: "/users/{id}"}, get("/users/42"))
	require.True(t, res.Matched())
	assert.Equal(t, "42", res.PathCaptures["id"])

	res = Score(&stub.RequestPattern{PathPattern: `^/orders/(?P<order>\d+)$`}, get("/orders/7"))
	require.True(t, res.Matched())
	assert.Equal(t, "7", res.PathCaptures["order"])

	res = Score(&stub.RequestPattern{
		Method:       "POST",
		BodyJSONPath: map[string]any{"$.user.id": 5},
	}, NewRequest("POST", "/", "", nil, []byte(`{"user":{"id":5}}`)))
	require.True(t, res.Matched())
	assert.Equal(t, 5.0, res.JSONPathMatches["user_id"])
}

func TestSelect(t *testing.T) {
	generic := stub.Get("/users/*").MustBuild()
	generic.ID = "generic"
	specific := stub.Get("/users/42").MustBuild()
	specific.ID = "specific"
	disabled := stub.Get("/users/42").WithHeader("X-Only", "*").Disabled().MustBuild()
	disabled.ID = "disabled"

	s, res := Select([]*stub.Stub{generic, disabled, specific}, get("/users/42"))
	require.NotNil(t, s)
	assert.Equal(t, "specific", s.ID)
	assert.Equal(t, ScoreMethod+ScorePathExact, res.Score)

	s, _ = Select([]*stub.Stub{generic, specific}, get("/users/7"))
	require.NotNil(t, s)
	assert.Equal(t, "generic", s.ID)

	s, _ = Select([]*stub.Stub{generic, specific}, get("/orders"))
	assert.Nil(t, s)
}

func TestSelect_PriorityBreaksTies(t *testing.T) {
	low := stub.Get("/same").MustBuild()
	low.ID = "low"
	high := stub.Get("/same").WithPriority(10).MustBuild()
	high.ID = "high"

	s, _ := Select([]*stub.Stub{low, high}, get("/same"))
	require.NotNil(t, s)
	assert.Equal(t, "high", s.ID)

	first := stub.Get("/same").MustBuild()
	first.ID = "first"
	second := stub.Get("/same").MustBuild()
	second.ID = "second"
	s, _ = Select([]*stub.Stub{first, second}, get("/same"))
	require.NotNil(t, s)
	assert.Equal(t, "first", s.ID)
}
