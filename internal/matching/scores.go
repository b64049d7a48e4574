package matching

// Path scores. Exact paths outrank regex patterns, which outrank templates
// and wildcards.
const (
	ScorePathExact       = 15
	ScorePathPattern     = 14
	ScorePathNamedParams = 12
	ScorePathWildcard    = 10
)

// Method, header, and query scores.
const (
	ScoreMethod     = 10
	ScoreAnyMethod  = 1
	ScoreHeader     = 10
	ScoreQueryParam = 5
)

// Body scores.
const (
	ScoreBodyEquals   = 25
	ScoreBodyPattern  = 22
	ScoreBodyContains = 20
	ScoreBodySchema   = 18

	// ScoreJSONPathCondition is awarded per satisfied JSONPath condition.
	ScoreJSONPathCondition = 15
)

// ScoreExpression is awarded when an expression predicate evaluates to true.
const ScoreExpression = 12
