package matching

import (
	"strings"
	"testing"

	"github.com/getmockd/mockscope/pkg/stub"
)

func TestMatchBreakdown_MethodMatchesPathDoesNot(t *testing.T) {
	p := &stub.RequestPattern{Method: "GET", Path: "/close"}
	nm := MatchBreakdown(p, get("/unregistered"))

	if nm.Score != ScoreMethod {
		t.Errorf("expected score %d, got %d", ScoreMethod, nm.Score)
	}
	if nm.MaxPossibleScore != ScoreMethod+ScorePathExact {
		t.Errorf("expected max %d, got %d", ScoreMethod+ScorePathExact, nm.MaxPossibleScore)
	}
	if nm.MatchPercentage != ScoreMethod*100/(ScoreMethod+ScorePathExact) {
		t.Errorf("unexpected percentage %d", nm.MatchPercentage)
	}
	want := `method matched, but path expected "/close", got "/unregistered"`
	if nm.Reason != want {
		t.Errorf("expected reason %q, got %q", want, nm.Reason)
	}
}

func TestMatchBreakdown_DoesNotShortCircuit(t *testing.T) {
	p := &stub.RequestPattern{
		Method:      "POST",
		Path:        "/orders",
		Headers:     map[string]string{"X-Tenant": "acme"},
		QueryParams: map[string]string{"dry": "true"},
	}
	nm := MatchBreakdown(p, NewRequest("GET", "/orders", "dry=true", nil, nil))

	if len(nm.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(nm.Fields))
	}
	wantMatched := map[string]bool{"method": false, "path": true, "headers": false, "queryParams": true}
	for _, f := range nm.Fields {
		if f.Matched != wantMatched[f.Field] {
			t.Errorf("field %s: matched=%v, want %v", f.Field, f.Matched, wantMatched[f.Field])
		}
	}
	if nm.Score != ScorePathExact+ScoreQueryParam {
		t.Errorf("unexpected score %d", nm.Score)
	}
	if !strings.HasPrefix(nm.Reason, "path and queryParams matched, but method expected") {
		t.Errorf("unexpected reason %q", nm.Reason)
	}
}

func TestCollectNearMisses(t *testing.T) {
	closeStub := stub.Get("/close").MustBuild()
	closeStub.ID = "close"
	post := stub.Post("/elsewhere").MustBuild()
	post.ID = "unrelated"
	headerStub := stub.Get("/unregistered").WithHeader("X-Key", "secret").MustBuild()
	headerStub.ID = "header"
	off := stub.Get("/unregistered").Disabled().MustBuild()
	off.ID = "off"

	got := CollectNearMisses([]*stub.Stub{closeStub, post, headerStub, off}, get("/unregistered"), 0)

	if len(got) != 2 {
		t.Fatalf("expected 2 near misses, got %d: %+v", len(got), got)
	}
	if got[0].StubID != "header" || got[1].StubID != "close" {
		t.Errorf("unexpected order: %s, %s", got[0].StubID, got[1].StubID)
	}
	if got[1].StubName != "GET /close" {
		t.Errorf("expected stub label as name, got %q", got[1].StubName)
	}
	if !strings.Contains(got[0].Reason, `header X-Key expected "secret", got "(missing)"`) {
		t.Errorf("unexpected reason %q", got[0].Reason)
	}
}

func TestCollectNearMisses_NoStubs(t *testing.T) {
	if got := CollectNearMisses(nil, get("/x"), 3); len(got) != 0 {
		t.Errorf("expected no near misses, got %v", got)
	}
}

func TestCollectNearMisses_Limit(t *testing.T) {
	var stubs []*stub.Stub
	for _, p := range []string{"/a", "/b", "/c", "/d"} {
		stubs = append(stubs, stub.Get(p).MustBuild())
	}
	if got := CollectNearMisses(stubs, get("/z"), 2); len(got) != 2 {
		t.Errorf("expected limit of 2, got %d", len(got))
	}
}

func TestGenerateReason(t *testing.T) {
	tests := []struct {
		name   string
		fields []FieldResult
		want   string
	}{
		{"empty", nil, "no fields to compare"},
		{
			"all matched",
			[]FieldResult{{Field: "method", Matched: true}},
			"all specified fields matched",
		},
		{
			"nothing matched",
			[]FieldResult{{Field: "method", Expected: "POST", Actual: "GET"}},
			`method expected "POST", got "GET"`,
		},
		{
			"three matched",
			[]FieldResult{
				{Field: "method", Matched: true},
				{Field: "path", Matched: true},
				{Field: "headers", Matched: true},
				{Field: "bodyContains", Expected: "sku"},
			},
			`method, path, and headers matched, but body expected to contain "sku"`,
		},
		{
			"expression",
			[]FieldResult{{Field: "expression", Expected: "json.qty > 1"}},
			`expression "json.qty > 1" was not satisfied`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateReason(tt.fields); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
