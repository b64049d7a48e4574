// Package matching scores recorded HTTP requests against stub request patterns.
//
// Matching works on a Request snapshot rather than a live *http.Request so the
// same code serves two callers: the engine's handler, which picks the best stub
// for an incoming request, and the verification path, which replays journaled
// unmatched requests to explain why no stub accepted them (near misses).
//
// Scoring is additive. Every criterion a pattern specifies must match; each
// matched criterion contributes a weight from scores.go, so more specific
// patterns outrank generic ones. Ties are broken by stub priority.
//
// MatchBreakdown evaluates every criterion without short-circuiting and is the
// basis of CollectNearMisses.
package matching
