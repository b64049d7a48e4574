package testing

import (
	"context"
	"testing"

	"github.com/getmockd/mockscope/pkg/engine"
	"github.com/getmockd/mockscope/pkg/scope"
)

// Extension drives a scope.Controller from tests. One Extension is
// usually shared by a whole package; it is safe for parallel tests.
type Extension struct {
	ctrl *scope.Controller
}

// New returns an extension with a controller built from opts.
func New(opts ...scope.Option) *Extension {
	return &Extension{ctrl: scope.NewController(opts...)}
}

// Controller returns the underlying controller.
func (e *Extension) Controller() *scope.Controller {
	return e.ctrl
}

// Enter enters a scope named after t under parent and starts its servers.
// Declaration errors and start failures are fatal; the controller has
// already stopped anything it started by then. At cleanup the scope is
// exited and verification failures are reported with t.Errorf.
func (e *Extension) Enter(t testing.TB, parent scope.Scope, decl *scope.Declarations) scope.Scope {
	t.Helper()

	node := scope.NewNode(t.Name(), parent, decl)
	if _, err := e.ctrl.OnEnterScope(t.Context(), node); err != nil {
		t.Fatalf("mockscope: %v", err)
		return node
	}
	t.Cleanup(func() {
		// t.Context is already canceled when cleanups run.
		if err := e.ctrl.OnExitScope(context.Background(), node); err != nil {
			t.Errorf("mockscope: %v", err)
		}
	})
	return node
}

// EnterInstance binds the tagged fields of instance (see scope.Bind) and
// enters the resulting scope.
func (e *Extension) EnterInstance(t testing.TB, parent scope.Scope, instance any) scope.Scope {
	t.Helper()

	decl, err := scope.Bind(instance)
	if err != nil {
		t.Fatalf("mockscope: %v", err)
		return scope.NewNode(t.Name(), parent, nil)
	}
	return e.Enter(t, parent, decl)
}

// Servers returns the handles reachable from s, nearest scope first.
func (e *Extension) Servers(s scope.Scope) []*scope.Handle {
	return e.ctrl.Registry().CollectReachable(s)
}

// Server returns the nearest reachable engine, or nil.
func (e *Extension) Server(s scope.Scope) *engine.Server {
	for _, h := range e.Servers(s) {
		if srv := h.Engine(); srv != nil {
			return srv
		}
	}
	return nil
}
