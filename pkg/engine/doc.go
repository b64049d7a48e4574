// Package engine is the mock HTTP server: it holds stubs, matches incoming
// requests against them, journals every request and explains misses with
// near-miss scoring.
//
// A Server binds its ports on Start and releases them on Stop. Both are
// idempotent, so a lifecycle manager can call them per test scope without
// tracking state itself. Administrative endpoints live under /__admin and are
// never journaled.
package engine
