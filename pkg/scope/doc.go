// Package scope manages mock server lifecycles across a tree of test scopes.
//
// A host (a test framework adapter, or Bind for tagged structs) describes
// each unit of test execution as a Scope with its own Declarations. The
// Controller turns those declarations into registered server handles,
// starts them when a scope is entered, stops them when it is exited, and
// then runs the verification Gate over every handle the exiting scope can
// reach: its own and those of its ancestors.
//
// Handles are reachable from descendants but never inherited as
// declarations. A handle declared by an outer scope is started once on
// entry to that scope, and every inner scope that exits while it is
// reachable checks its journal.
//
// The simple case needs no declarations at all:
//
//	ctrl := scope.NewController()
//	root := scope.NewNode("TestCheckout", nil, nil)
//	if _, err := ctrl.OnEnterScope(ctx, root); err != nil { ... }
//	defer func() { err = ctrl.OnExitScope(ctx, root) }()
//
// The entered scope gets one default server, and the process-wide client
// target points at it.
package scope
