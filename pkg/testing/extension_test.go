package testing

import (
	"context"
	"errors"
	"net/http"
	stdtesting "testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockscope/pkg/config"
	"github.com/getmockd/mockscope/pkg/engine"
	"github.com/getmockd/mockscope/pkg/scope"
	"github.com/getmockd/mockscope/pkg/stub"
)

var ext = New(scope.WithTarget(nil))

func TestEnter_DefaultServer(t *stdtesting.T) {
	s := ext.Enter(t, nil, nil)
	assert.Equal(t, t.Name(), s.ID())

	srv := ext.Server(s)
	require.NotNil(t, srv)
	assert.True(t, srv.IsRunning())
	require.Len(t, ext.Servers(s), 1)

	_, err := srv.StubFor(stub.Get("/").MustBuild())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, send(t, http.MethodGet, srv.URL()+"/", ""))
	AssertCalled(t, srv, http.MethodGet, "/")
}

func TestEnter_StopsAtCleanup(t *stdtesting.T) {
	var srv *engine.Server
	t.Run("inner", func(t *stdtesting.T) {
		s := ext.Enter(t, nil, nil)
		srv = ext.Server(s)
		assert.True(t, srv.IsRunning())
	})
	require.NotNil(t, srv)
	assert.False(t, srv.IsRunning())
}

func TestEnter_SubtestsShareParentServer(t *stdtesting.T) {
	outer := engine.NewServer(nil)
	root := ext.Enter(t, nil, &scope.Declarations{Managed: []*scope.Handle{scope.Managed(outer)}})

	for _, name := range []string{"first", "second"} {
		t.Run(name, func(t *stdtesting.T) {
			s := ext.Enter(t, root, nil)
			assert.Same(t, outer, ext.Server(s))
			assert.True(t, outer.IsRunning())
		})
	}
	assert.True(t, outer.IsRunning(), "parent servers outlive subtests")
}

func TestEnter_UnmatchedFailsAtCleanup(t *stdtesting.T) {
	rec := newRecorder(t, "unmatched")
	s := ext.Enter(rec, nil, nil)
	srv := ext.Server(s)
	_, err := srv.StubFor(stub.Get("/close").MustBuild())
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, send(t, http.MethodGet, srv.URL()+"/unregistered", ""))
	rec.finish()

	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "unmatched")
	assert.Contains(t, rec.errors[0], "Closest")
	assert.False(t, srv.IsRunning())
}

func TestEnter_SettingsTolerateUnmatched(t *stdtesting.T) {
	rec := newRecorder(t, "tolerated")
	s := ext.Enter(rec, nil, &scope.Declarations{Settings: scope.WithSettings(false)})
	send(t, http.MethodGet, ext.Server(s).URL()+"/anything", "")
	rec.finish()
	assert.Empty(t, rec.errors)
}

func TestEnter_ConfigurationErrorIsFatal(t *stdtesting.T) {
	rec := newRecorder(t, "twice")
	ext.Enter(rec, nil, &scope.Declarations{Configurations: []*config.ServerConfiguration{
		config.DefaultServerConfiguration(),
		config.DefaultServerConfiguration(),
	}})
	require.Len(t, rec.fatals, 1)
	assert.Contains(t, rec.fatals[0], "configuration binding only valid once per scope")
	assert.Empty(t, rec.cleanups)
}

// failingServer is an engine whose Start always fails.
type failingServer struct{ *engine.Server }

func (failingServer) Start(context.Context) error { return errors.New("port unavailable") }

func TestEnter_StartFailureStopsStartedServers(t *stdtesting.T) {
	rec := newRecorder(t, "partial")
	good := engine.NewServer(nil)
	s := ext.Enter(rec, nil, &scope.Declarations{Managed: []*scope.Handle{
		scope.Managed(good),
		scope.Managed(failingServer{engine.NewServer(nil)}),
	}})

	require.Len(t, rec.fatals, 1)
	assert.Contains(t, rec.fatals[0], "port unavailable")
	assert.False(t, good.IsRunning(), "a server started before the failure is stopped")
	assert.Empty(t, ext.Servers(s))

	retry := newRecorder(t, "partial")
	again := ext.Enter(retry, nil, nil)
	require.Empty(t, retry.fatals)
	srv := ext.Server(again)
	require.NotNil(t, srv)
	assert.NotSame(t, good, srv, "a retry does not inherit the failed registration")
	assert.True(t, srv.IsRunning())
	retry.finish()
	assert.False(t, srv.IsRunning())
	assert.False(t, good.IsRunning())
}

type fixture struct {
	API    *engine.Server `mockscope:"inject"`
	Handle *scope.Handle  `mockscope:"inject"`
}

func TestEnterInstance(t *stdtesting.T) {
	var fx fixture
	s := ext.EnterInstance(t, nil, &fx)
	require.NotNil(t, fx.API)
	assert.Same(t, fx.API, fx.Handle.Engine())
	assert.Same(t, fx.API, ext.Server(s))
	assert.True(t, fx.API.IsRunning())
}

func TestEnterInstance_BindError(t *stdtesting.T) {
	rec := newRecorder(t, "bad")
	ext.EnterInstance(rec, nil, fixture{})
	require.Len(t, rec.fatals, 1)
	assert.Contains(t, rec.fatals[0], "invalid binding")
}

func TestServer_NoneReachable(t *stdtesting.T) {
	assert.Nil(t, ext.Server(scope.NewNode("never-entered", nil, nil)))
	assert.NotNil(t, ext.Controller())
}
