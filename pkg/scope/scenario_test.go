package scope

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockscope/pkg/client"
	"github.com/getmockd/mockscope/pkg/engine"
	"github.com/getmockd/mockscope/pkg/stub"
)

func get(t *testing.T, url string) int {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := testClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// enterDefault enters a scope under a real-engine controller and returns
// its only reachable handle.
func enterDefault(t *testing.T, ctrl *Controller, s Scope) *Handle {
	t.Helper()
	_, err := ctrl.OnEnterScope(context.Background(), s)
	require.NoError(t, err)
	handles := ctrl.Registry().CollectReachable(s)
	require.Len(t, handles, 1)
	require.NotNil(t, handles[0].Engine())
	return handles[0]
}

func TestScenario_DefaultServerServesStub(t *testing.T) {
	t.Cleanup(func() { client.ConfigureFor("localhost", client.DefaultPort) })
	ctrl := NewController()
	s := NewNode("scenario-a", nil, nil)

	h := enterDefault(t, ctrl, s)
	assert.True(t, h.Server().IsRunning())
	assert.Equal(t, h.URL(), client.BaseURL(), "client target follows the started server")

	_, err := h.Engine().StubFor(stub.Get("/").MustBuild())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(t, client.BaseURL()+"/"))

	require.NoError(t, ctrl.OnExitScope(context.Background(), s))
	assert.False(t, h.Server().IsRunning())
}

func TestScenario_UnmatchedRequestFails(t *testing.T) {
	ctrl := NewController(WithTarget(nil))
	s := NewNode("scenario-b", nil, &Declarations{Settings: WithSettings(true)})

	h := enterDefault(t, ctrl, s)
	assert.Equal(t, http.StatusNotFound, get(t, h.URL()+"/unregistered"))

	err := ctrl.OnExitScope(context.Background(), s)
	var ue *UnmatchedRequestError
	require.ErrorAs(t, err, &ue)
	require.Len(t, ue.Requests, 1)
	assert.Equal(t, "GET /unregistered", ue.Requests[0].String())
	assert.Contains(t, err.Error(), "unmatched")
}

func TestScenario_NearMissFails(t *testing.T) {
	ctrl := NewController(WithTarget(nil))
	s := NewNode("scenario-c", nil, &Declarations{Settings: WithSettings(true)})

	h := enterDefault(t, ctrl, s)
	_, err := h.Engine().StubFor(stub.Get("/close").MustBuild())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get(t, h.URL()+"/unregistered"))

	err = ctrl.OnExitScope(context.Background(), s)
	var nme *UnmatchedNearMissError
	require.ErrorAs(t, err, &nme)
	closest := nme.Closest()
	require.Len(t, closest, 1)
	assert.Equal(t, "GET /close", closest[0].StubName)
	assert.Contains(t, err.Error(), "unmatched")
	assert.Contains(t, err.Error(), "Closest")
	assert.Contains(t, err.Error(), "/close")
}

func TestScenario_PerServerOverride(t *testing.T) {
	ctrl := NewController(WithTarget(nil))
	servers := make([]*engine.Server, 4)
	handles := make([]*Handle, 4)
	for i := range servers {
		servers[i] = engine.NewServer(nil)
		handles[i] = Managed(servers[i])
	}
	handles[3] = Managed(servers[3], FailOnUnmatched(false))

	s := NewNode("scenario-d", nil, &Declarations{Managed: handles})
	_, err := ctrl.OnEnterScope(context.Background(), s)
	require.NoError(t, err)
	for _, srv := range servers {
		assert.True(t, srv.IsRunning())
	}

	assert.Equal(t, http.StatusNotFound, get(t, servers[3].URL()+"/unregistered"))
	assert.NoError(t, ctrl.OnExitScope(context.Background(), s))
	for _, srv := range servers {
		assert.False(t, srv.IsRunning())
	}
}

func TestScenario_MultiLevel(t *testing.T) {
	ctrl := NewController(WithTarget(nil))
	ctx := context.Background()

	outer := engine.NewServer(nil)
	parent := NewNode("outer", nil, &Declarations{Managed: []*Handle{Managed(outer)}})
	_, err := ctrl.OnEnterScope(ctx, parent)
	require.NoError(t, err)

	inner := engine.NewServer(nil)
	child := NewNode("inner", parent, &Declarations{Managed: []*Handle{Managed(inner)}})
	_, err = ctrl.OnEnterScope(ctx, child)
	require.NoError(t, err)
	assert.True(t, outer.IsRunning())
	assert.True(t, inner.IsRunning())

	require.NoError(t, ctrl.OnExitScope(ctx, child))
	assert.False(t, inner.IsRunning())
	assert.True(t, outer.IsRunning())

	require.NoError(t, ctrl.OnExitScope(ctx, parent))
	assert.False(t, outer.IsRunning())
}
