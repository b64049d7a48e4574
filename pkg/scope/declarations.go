package scope

import (
	"context"
	"net"
	"strconv"

	"github.com/getmockd/mockscope/pkg/config"
	"github.com/getmockd/mockscope/pkg/engine"
	"github.com/getmockd/mockscope/pkg/requestlog"
)

// Journal is the part of a server the verification gate reads.
type Journal interface {
	// FindUnmatchedRequests returns requests no stub served, oldest first.
	FindUnmatchedRequests(ctx context.Context) ([]*requestlog.Entry, error)
	// FindNearMissesForUnmatched returns the closest partial matches of
	// those requests.
	FindNearMissesForUnmatched(ctx context.Context) ([]engine.NearMiss, error)
}

// Server is a mock server the controller can run. *engine.Server
// implements it.
type Server interface {
	Journal
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	Port() int
}

var _ Server = (*engine.Server)(nil)

// Handle is one server tracked by the registry, with an optional override
// of the scope's fail-on-unmatched setting.
type Handle struct {
	srv             Server
	failOnUnmatched *bool
	created         bool
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// FailOnUnmatched overrides, for this handle only, whether unmatched
// requests fail verification.
func FailOnUnmatched(fail bool) HandleOption {
	return func(h *Handle) {
		h.failOnUnmatched = &fail
	}
}

// Managed wraps a server the caller built. The controller registers,
// starts and stops it, but never reconfigures it.
func Managed(srv Server, opts ...HandleOption) *Handle {
	h := &Handle{srv: srv}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Server returns the wrapped server.
func (h *Handle) Server() Server { return h.srv }

// Engine returns the wrapped server as an *engine.Server, or nil when it
// is some other implementation.
func (h *Handle) Engine() *engine.Server {
	e, _ := h.srv.(*engine.Server)
	return e
}

// FailOnUnmatchedOverride returns the per-handle override and whether one
// is set.
func (h *Handle) FailOnUnmatchedOverride() (fail, ok bool) {
	if h.failOnUnmatched == nil {
		return false, false
	}
	return *h.failOnUnmatched, true
}

// Created reports whether the controller constructed the server rather
// than receiving it through Managed.
func (h *Handle) Created() bool { return h.created }

// Port is the server's HTTP port.
func (h *Handle) Port() int { return h.srv.Port() }

// URL is the base URL clients use to reach the server.
func (h *Handle) URL() string {
	if e := h.Engine(); e != nil {
		return e.URL()
	}
	return "http://" + net.JoinHostPort("localhost", strconv.Itoa(h.srv.Port()))
}

func (h *Handle) String() string { return h.URL() }

// Settings are the scope-level policies, resolved nearest first.
type Settings struct {
	FailOnUnmatchedRequests bool `yaml:"failOnUnmatchedRequests" json:"failOnUnmatchedRequests"`
}

// DefaultSettings fails verification on any unmatched request.
func DefaultSettings() Settings {
	return Settings{FailOnUnmatchedRequests: true}
}

// Declarations are what one scope declares for itself. None of it is
// inherited by child scopes.
type Declarations struct {
	// Managed servers were built by the caller. When any are present the
	// scope's configurations and injection targets are ignored.
	Managed []*Handle
	// InjectionTargets all receive the one server the controller builds
	// for the scope. A target that returns an error fails preparation.
	InjectionTargets []func(*Handle) error
	// Configurations configures the built server. At most one is allowed.
	Configurations []*config.ServerConfiguration
	// Settings, when set, applies to this scope and its descendants unless
	// a nearer scope declares its own.
	Settings *Settings
}

// WithSettings returns settings as a pointer for Declarations.Settings.
func WithSettings(failOnUnmatched bool) *Settings {
	return &Settings{FailOnUnmatchedRequests: failOnUnmatched}
}
