package scope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/mockscope/pkg/engine"
	"github.com/getmockd/mockscope/pkg/requestlog"
)

// Causes of a ConfigurationError.
var (
	ErrMultipleConfigurations = errors.New("configuration binding only valid once per scope")
	ErrAlreadyRegistered      = errors.New("scope already has registered servers")
	ErrDuplicateHandle        = errors.New("server handle registered twice")
	ErrNilServer              = errors.New("server handle without a server")
	ErrNilScope               = errors.New("nil scope")
	ErrInvalidBinding         = errors.New("invalid binding")
)

// ErrUnmatchedRequests matches both unmatched request errors.
var ErrUnmatchedRequests = errors.New("unmatched requests")

// ConfigurationError is a declaration problem found when a scope is
// entered. It is reported before the test body runs.
type ConfigurationError struct {
	Scope  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	if e.Scope == "" {
		return "invalid scope configuration: " + reason
	}
	return fmt.Sprintf("invalid configuration for scope %q: %s", e.Scope, reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configError(s Scope, err error, format string, args ...any) *ConfigurationError {
	ce := &ConfigurationError{Err: err}
	if s != nil {
		ce.Scope = s.ID()
	}
	if format != "" {
		ce.Reason = fmt.Sprintf(format, args...)
	}
	return ce
}

// UnmatchedRequestError reports requests no stub matched and that have no
// near miss either.
type UnmatchedRequestError struct {
	Server   string
	Requests []*requestlog.Entry
}

func (e *UnmatchedRequestError) Error() string {
	var b strings.Builder
	if len(e.Requests) == 1 {
		fmt.Fprintf(&b, "a request was unmatched by any stub%s: %s", on(e.Server), e.Requests[0])
		return b.String()
	}
	fmt.Fprintf(&b, "%d requests were unmatched by any stub%s:", len(e.Requests), on(e.Server))
	for _, r := range e.Requests {
		b.WriteString("\n  ")
		b.WriteString(r.String())
	}
	return b.String()
}

func (e *UnmatchedRequestError) Is(target error) bool { return target == ErrUnmatchedRequests }

// UnmatchedNearMissError reports unmatched requests that came close to a
// stub. NearMisses are grouped by request, closest first.
type UnmatchedNearMissError struct {
	Server     string
	Requests   []*requestlog.Entry
	NearMisses []engine.NearMiss
}

func (e *UnmatchedNearMissError) Error() string {
	closest := e.Closest()
	n := max(len(e.Requests), len(closest))
	var b strings.Builder
	if n == 1 && len(closest) == 1 {
		fmt.Fprintf(&b, "a request was unmatched by any stub%s. Closest stub: %s", on(e.Server), describe(closest[0]))
		return b.String()
	}
	fmt.Fprintf(&b, "%d requests were unmatched by any stub%s. Closest stubs:", n, on(e.Server))
	for _, nm := range closest {
		b.WriteString("\n  ")
		b.WriteString(describe(nm))
	}
	return b.String()
}

func (e *UnmatchedNearMissError) Is(target error) bool { return target == ErrUnmatchedRequests }

// Closest returns the best near miss of each request.
func (e *UnmatchedNearMissError) Closest() []engine.NearMiss {
	var out []engine.NearMiss
	seen := make(map[string]bool)
	for _, nm := range e.NearMisses {
		if seen[nm.Request] {
			continue
		}
		seen[nm.Request] = true
		out = append(out, nm)
	}
	return out
}

func describe(nm engine.NearMiss) string {
	name := nm.StubName
	if name == "" {
		name = nm.StubID
	}
	s := fmt.Sprintf("%s (%d%% match)", name, nm.MatchPercentage)
	if nm.Request != "" {
		s = nm.Request + " -> " + s
	}
	if nm.Reason != "" {
		s += ": " + nm.Reason
	}
	return s
}

func on(server string) string {
	if server == "" {
		return ""
	}
	return " on " + server
}
