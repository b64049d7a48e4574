package testing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getmockd/mockscope/pkg/requestlog"
	"github.com/getmockd/mockscope/pkg/scope"
)

// Journal lists the requests a server received. *engine.Server
// implements it.
type Journal interface {
	Requests(filter *requestlog.Filter) []*requestlog.Entry
}

// AssertCalled asserts that method path was requested at least once.
// path may use {name} segments.
func AssertCalled(t testing.TB, j Journal, method, path string) bool {
	t.Helper()

	if n := len(Calls(j, method, path)); n == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
		return false
	}
	return true
}

// AssertCalledTimes asserts that method path was requested exactly times
// times.
func AssertCalledTimes(t testing.TB, j Journal, method, path string, times int) bool {
	t.Helper()

	if n := len(Calls(j, method, path)); n != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, n)
		return false
	}
	return true
}

// AssertNotCalled asserts that method path was never requested.
func AssertNotCalled(t testing.TB, j Journal, method, path string) bool {
	t.Helper()

	if n := len(Calls(j, method, path)); n > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, n)
		return false
	}
	return true
}

// AssertNoUnmatched asserts that every request j received matched a stub,
// independent of scope settings. The failure names the closest stubs.
func AssertNoUnmatched(t testing.TB, j scope.Journal) bool {
	t.Helper()

	if err := (&scope.Gate{}).VerifyJournal(context.Background(), j, ""); err != nil {
		t.Errorf("%v", err)
		return false
	}
	return true
}

// AssertJSONBody asserts that the newest method path request carried a
// JSON body equal to expected.
func AssertJSONBody(t testing.TB, j Journal, method, path, expected string) bool {
	t.Helper()

	calls := Calls(j, method, path)
	if len(calls) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
		return false
	}
	return assert.JSONEq(t, expected, calls[0].Body, "body of %s %s", method, path)
}

// Calls returns the method path requests, newest first.
func Calls(j Journal, method, path string) []*requestlog.Entry {
	var out []*requestlog.Entry
	for _, e := range j.Requests(&requestlog.Filter{Method: method}) {
		if matchesPath(e.Path, path) {
			out = append(out, e)
		}
	}
	return out
}

// matchesPath compares paths segment by segment; {name} in expected
// matches any one segment.
func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}

	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")
	if len(actualParts) != len(expectedParts) {
		return false
	}

	for i, exp := range expectedParts {
		if strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}") {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}
	return true
}
