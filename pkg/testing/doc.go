// Package testing runs mockscope servers from Go tests.
//
// An Extension maps each test (and each subtest) onto a scope: Enter
// starts the servers the test declares, or one default server when nothing
// is declared and nothing is inherited, and registers a cleanup that stops
// them and fails the test when they received requests no stub matched.
//
// # Basic Usage
//
//	var ext = mstesting.New()
//
//	func TestCheckout(t *testing.T) {
//	    s := ext.Enter(t, nil, nil)
//	    srv := ext.Server(s)
//
//	    srv.StubFor(stub.Get("/cart").WithJSON(cart).MustBuild())
//
//	    resp, err := http.Get(srv.URL() + "/cart")
//	    ...
//	    mstesting.AssertCalled(t, srv, "GET", "/cart")
//	}
//
// # Nested Scopes
//
// Subtests pass their parent's scope. Servers declared by the parent are
// reachable from the subtest, keep running across subtests, and are
// checked each time a subtest exits:
//
//	func TestPayments(t *testing.T) {
//	    gateway := engine.NewServer(nil)
//	    root := ext.Enter(t, nil, &scope.Declarations{
//	        Managed: []*scope.Handle{scope.Managed(gateway)},
//	    })
//	    t.Run("refund", func(t *testing.T) {
//	        ext.Enter(t, root, nil)
//	        ...
//	    })
//	}
//
// # Tagged Fixtures
//
// EnterInstance reads `mockscope` struct tags instead of explicit
// declarations:
//
//	type fixture struct {
//	    API *engine.Server `mockscope:"inject"`
//	}
//
//	func TestOrders(t *testing.T) {
//	    var fx fixture
//	    ext.EnterInstance(t, nil, &fx)
//	    ...
//	}
package testing
