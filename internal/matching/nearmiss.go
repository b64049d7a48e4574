package matching

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/getmockd/mockscope/pkg/stub"
)

// DefaultNearMissLimit is how many near misses CollectNearMisses keeps when
// the caller passes a non-positive limit.
const DefaultNearMissLimit = 3

// FieldResult is the outcome of one criterion of a pattern.
type FieldResult struct {
	Field    string      `json:"field"`
	Matched  bool        `json:"matched"`
	Score    int         `json:"score"`
	MaxScore int         `json:"maxScore"`
	Expected any         `json:"expected,omitempty"`
	Actual   any         `json:"actual,omitempty"`
	Details  []KeyDetail `json:"details,omitempty"`
}

// KeyDetail is the outcome for one key of a keyed criterion such as headers.
type KeyDetail struct {
	Key      string `json:"key"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Matched  bool   `json:"matched"`
}

// NearMiss describes a stub that partially matched a request.
type NearMiss struct {
	StubID           string        `json:"stubId"`
	StubName         string        `json:"stubName,omitempty"`
	Score            int           `json:"score"`
	MaxPossibleScore int           `json:"maxPossibleScore"`
	MatchPercentage  int           `json:"matchPercentage"`
	Fields           []FieldResult `json:"fields"`
	Reason           string        `json:"reason"`

	// Request is the unmatched request as "METHOD /path?query". Set by
	// callers that replay journaled requests.
	Request string `json:"request,omitempty"`
}

// MatchBreakdown evaluates every criterion of p against r without stopping
// at the first mismatch.
func MatchBreakdown(p *stub.RequestPattern, r *Request) *NearMiss {
	fields, _, _ := evaluate(p, r, true)
	nm := &NearMiss{Fields: fields}
	for _, f := range fields {
		nm.Score += f.Score
		nm.MaxPossibleScore += f.MaxScore
	}
	if nm.MaxPossibleScore > 0 {
		nm.MatchPercentage = nm.Score * 100 / nm.MaxPossibleScore
	}
	nm.Reason = GenerateReason(fields)
	return nm
}

// CollectNearMisses returns up to limit enabled stubs that partially matched
// r, best first. Stubs that matched nothing at all are left out.
func CollectNearMisses(stubs []*stub.Stub, r *Request, limit int) []NearMiss {
	if limit <= 0 {
		limit = DefaultNearMissLimit
	}
	var out []NearMiss
	for _, s := range stubs {
		if s == nil || !s.IsEnabled() || s.Request == nil {
			continue
		}
		nm := MatchBreakdown(s.Request, r)
		if nm.Score == 0 {
			continue
		}
		nm.StubID = s.ID
		nm.StubName = s.Label()
		out = append(out, *nm)
	}
	slices.SortStableFunc(out, func(a, b NearMiss) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(b.MatchPercentage, a.MatchPercentage)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GenerateReason explains in one line why a breakdown did not fully match.
func GenerateReason(fields []FieldResult) string {
	if len(fields) == 0 {
		return "no fields to compare"
	}
	var (
		matched []string
		miss    *FieldResult
	)
	for i := range fields {
		switch {
		case fields[i].Matched:
			matched = append(matched, fields[i].Field)
		case miss == nil:
			miss = &fields[i]
		}
	}
	if miss == nil {
		return "all specified fields matched"
	}
	if len(matched) == 0 {
		return describeMismatch(miss)
	}
	return joinFields(matched) + " matched, but " + describeMismatch(miss)
}

func describeMismatch(f *FieldResult) string {
	switch f.Field {
	case "method":
		return fmt.Sprintf("method expected %q, got %q", f.Expected, f.Actual)
	case "path", "pathPattern":
		return fmt.Sprintf("path expected %q, got %q", f.Expected, f.Actual)
	case "headers":
		if d, ok := firstFailed(f.Details); ok {
			return fmt.Sprintf("header %s expected %q, got %q", d.Key, d.Expected, d.Actual)
		}
		return "header mismatch"
	case "queryParams":
		if d, ok := firstFailed(f.Details); ok {
			return fmt.Sprintf("query param %s expected %q, got %q", d.Key, d.Expected, d.Actual)
		}
		return "query parameter mismatch"
	case "bodyEquals":
		return fmt.Sprintf("body expected exact match %q", f.Expected)
	case "bodyContains":
		return fmt.Sprintf("body expected to contain %q", f.Expected)
	case "bodyPattern":
		return fmt.Sprintf("body expected to match pattern %q", f.Expected)
	case "bodySchema":
		return fmt.Sprintf("body does not satisfy schema: %v", f.Actual)
	case "bodyJSONPath":
		if d, ok := firstFailed(f.Details); ok {
			return fmt.Sprintf("body JSONPath %s expected %s", d.Key, d.Expected)
		}
		return "body JSONPath condition not satisfied"
	case "expression":
		return fmt.Sprintf("expression %q was not satisfied", f.Expected)
	default:
		return f.Field + " did not match"
	}
}

func firstFailed(details []KeyDetail) (KeyDetail, bool) {
	for _, d := range details {
		if !d.Matched {
			return d, true
		}
	}
	return KeyDetail{}, false
}

func joinFields(fields []string) string {
	switch n := len(fields); n {
	case 1:
		return fields[0]
	case 2:
		return fields[0] + " and " + fields[1]
	default:
		return strings.Join(fields[:n-1], ", ") + ", and " + fields[n-1]
	}
}
