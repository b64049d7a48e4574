package matching

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/getmockd/mockscope/pkg/stub"
)

// Result is the outcome of scoring one pattern against a request.
// A zero Score means no match.
type Result struct {
	Score           int
	PathCaptures    map[string]string
	JSONPathMatches map[string]any
}

// Matched reports whether the pattern accepted the request.
func (r Result) Matched() bool { return r.Score > 0 }

// Score evaluates every criterion p specifies against r. All criteria must
// match; the score is the sum of their weights.
func Score(p *stub.RequestPattern, r *Request) Result {
	fields, ev, ok := evaluate(p, r, false)
	if !ok || len(fields) == 0 {
		return Result{}
	}
	res := Result{PathCaptures: ev.captures, JSONPathMatches: ev.jsonValues}
	for _, f := range fields {
		res.Score += f.Score
	}
	return res
}

// Select returns the enabled stub that best matches r, or nil. Higher scores
// win; equal scores fall back to higher priority, then to order in stubs.
func Select(stubs []*stub.Stub, r *Request) (*stub.Stub, Result) {
	var (
		best    *stub.Stub
		bestRes Result
	)
	for _, s := range stubs {
		if s == nil || !s.IsEnabled() || s.Request == nil {
			continue
		}
		res := Score(s.Request, r)
		if !res.Matched() {
			continue
		}
		if best == nil || res.Score > bestRes.Score ||
			(res.Score == bestRes.Score && s.Priority > best.Priority) {
			best, bestRes = s, res
		}
	}
	return best, bestRes
}

// evaluation carries per-request state shared by the checks.
type evaluation struct {
	req        *Request
	captures   map[string]string
	jsonValues map[string]any

	decoded bool
	doc     any
	docOK   bool
}

func (e *evaluation) decodeBody() (any, bool) {
	if !e.decoded {
		e.decoded = true
		e.docOK = json.Unmarshal(e.req.Body, &e.doc) == nil
	}
	return e.doc, e.docOK
}

// check evaluates one criterion. It returns false when p does not specify it.
type check func(p *stub.RequestPattern, e *evaluation) (FieldResult, bool)

var checks = []check{
	checkMethod,
	checkPath,
	checkPathPattern,
	checkHeaders,
	checkQuery,
	checkBodyEquals,
	checkBodyContains,
	checkBodyPattern,
	checkBodySchema,
	checkJSONPath,
	checkExpression,
}

// evaluate runs the checks in order. With exhaustive false it stops at the
// first mismatch.
func evaluate(p *stub.RequestPattern, r *Request, exhaustive bool) ([]FieldResult, *evaluation, bool) {
	ev := &evaluation{req: r}
	if p == nil || r == nil || (p.Path != "" && p.PathPattern != "") {
		return nil, ev, false
	}
	var fields []FieldResult
	ok := true
	for _, c := range checks {
		f, applies := c(p, ev)
		if !applies {
			continue
		}
		fields = append(fields, f)
		if !f.Matched {
			ok = false
			if !exhaustive {
				break
			}
		}
	}
	return fields, ev, ok
}

func scored(matched bool, score int) int {
	if matched {
		return score
	}
	return 0
}

func checkMethod(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if p.Method == "" {
		return FieldResult{}, false
	}
	weight := ScoreMethod
	if strings.EqualFold(p.Method, "ANY") {
		weight = ScoreAnyMethod
	}
	matched := MatchMethod(p.Method, e.req.Method)
	return FieldResult{
		Field:    "method",
		Matched:  matched,
		Score:    scored(matched, weight),
		MaxScore: weight,
		Expected: strings.ToUpper(p.Method),
		Actual:   e.req.Method,
	}, true
}

func checkPath(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if p.Path == "" {
		return FieldResult{}, false
	}
	score := MatchPath(p.Path, e.req.Path)
	if score > 0 && score != ScorePathExact {
		e.captures = PathVariables(p.Path, e.req.Path)
	}
	return FieldResult{
		Field:    "path",
		Matched:  score > 0,
		Score:    score,
		MaxScore: maxPathScore(p.Path),
		Expected: p.Path,
		Actual:   e.req.Path,
	}, true
}

func checkPathPattern(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if p.PathPattern == "" {
		return FieldResult{}, false
	}
	score, captures := MatchPathPattern(p.PathPattern, e.req.Path)
	if score > 0 {
		e.captures = captures
	}
	return FieldResult{
		Field:    "pathPattern",
		Matched:  score > 0,
		Score:    score,
		MaxScore: ScorePathPattern,
		Expected: p.PathPattern,
		Actual:   e.req.Path,
	}, true
}

func checkHeaders(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if len(p.Headers) == 0 {
		return FieldResult{}, false
	}
	return keyedField("headers", p.Headers, ScoreHeader,
		func(k, v string) bool { return MatchHeader(k, v, e.req.Header) },
		func(k string) string { return e.req.Header.Get(k) },
	), true
}

func checkQuery(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if len(p.QueryParams) == 0 {
		return FieldResult{}, false
	}
	return keyedField("queryParams", p.QueryParams, ScoreQueryParam,
		func(k, v string) bool { return MatchQueryParam(k, v, e.req.Query) },
		func(k string) string { return e.req.Query.Get(k) },
	), true
}

func checkBodyEquals(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if p.BodyEquals == "" {
		return FieldResult{}, false
	}
	matched := MatchBodyEquals(p.BodyEquals, e.req.Body)
	return FieldResult{
		Field:    "bodyEquals",
		Matched:  matched,
		Score:    scored(matched, ScoreBodyEquals),
		MaxScore: ScoreBodyEquals,
		Expected: truncate(p.BodyEquals, 200),
		Actual:   truncate(string(e.req.Body), 200),
	}, true
}

func checkBodyContains(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if p.BodyContains == "" {
		return FieldResult{}, false
	}
	matched := MatchBodyContains(p.BodyContains, e.req.Body)
	return FieldResult{
		Field:    "bodyContains",
		Matched:  matched,
		Score:    scored(matched, ScoreBodyContains),
		MaxScore: ScoreBodyContains,
		Expected: p.BodyContains,
		Actual:   truncate(string(e.req.Body), 200),
	}, true
}

func checkBodyPattern(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if p.BodyPattern == "" {
		return FieldResult{}, false
	}
	matched := MatchBodyPattern(p.BodyPattern, e.req.Body)
	return FieldResult{
		Field:    "bodyPattern",
		Matched:  matched,
		Score:    scored(matched, ScoreBodyPattern),
		MaxScore: ScoreBodyPattern,
		Expected: p.BodyPattern,
		Actual:   truncate(string(e.req.Body), 200),
	}, true
}

func checkBodySchema(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if len(p.BodySchema) == 0 {
		return FieldResult{}, false
	}
	err := MatchBodySchema(p.BodySchema, e.req.Body)
	f := FieldResult{
		Field:    "bodySchema",
		Matched:  err == nil,
		Score:    scored(err == nil, ScoreBodySchema),
		MaxScore: ScoreBodySchema,
	}
	if err != nil {
		f.Actual = firstLine(err.Error())
	}
	return f, true
}

func checkJSONPath(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if len(p.BodyJSONPath) == 0 {
		return FieldResult{}, false
	}
	doc, ok := e.decodeBody()
	res := MatchJSONPath(p.BodyJSONPath, doc, ok)
	if res.OK() {
		e.jsonValues = res.Values
	}
	f := FieldResult{
		Field:    "bodyJSONPath",
		Matched:  res.OK(),
		Score:    res.Score(),
		MaxScore: len(p.BodyJSONPath) * ScoreJSONPathCondition,
		Expected: p.BodyJSONPath,
	}
	if !ok {
		f.Actual = "(body is not JSON)"
	}
	for _, path := range res.Failed {
		f.Details = append(f.Details, KeyDetail{
			Key:      path,
			Expected: fmt.Sprint(p.BodyJSONPath[path]),
			Actual:   "(not satisfied)",
		})
	}
	return f, true
}

func checkExpression(p *stub.RequestPattern, e *evaluation) (FieldResult, bool) {
	if p.Expression == "" {
		return FieldResult{}, false
	}
	doc, _ := e.decodeBody()
	matched, err := EvalExpression(p.Expression, ExpressionEnv(e.req, doc))
	f := FieldResult{
		Field:    "expression",
		Matched:  matched,
		Score:    scored(matched, ScoreExpression),
		MaxScore: ScoreExpression,
		Expected: p.Expression,
		Actual:   matched,
	}
	if err != nil {
		f.Actual = err.Error()
	}
	return f, true
}

// keyedField scores a map of expectations, each worth weight.
func keyedField(name string, want map[string]string, weight int, match func(k, v string) bool, actual func(k string) string) FieldResult {
	f := FieldResult{Field: name, Matched: true, MaxScore: len(want) * weight}
	for _, k := range slices.Sorted(maps.Keys(want)) {
		ok := match(k, want[k])
		got := actual(k)
		if got == "" {
			got = "(missing)"
		}
		if ok {
			f.Score += weight
		} else {
			f.Matched = false
		}
		f.Details = append(f.Details, KeyDetail{Key: k, Expected: want[k], Actual: got, Matched: ok})
	}
	return f
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
