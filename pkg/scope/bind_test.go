package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockscope/pkg/config"
	"github.com/getmockd/mockscope/pkg/engine"
)

type injectFixture struct {
	Config   *config.ServerConfiguration `mockscope:"config"`
	Handle   *Handle                     `mockscope:"inject"`
	Engine   *engine.Server              `mockscope:"inject"`
	Server   Server                      `mockscope:"inject"`
	Settings Settings                    `mockscope:"settings"`
	Ignored  string
}

func TestBind_Inject(t *testing.T) {
	fx := &injectFixture{Config: config.DefaultServerConfiguration().WithHTTPPort(0)}
	d, err := Bind(fx)
	require.NoError(t, err)
	require.Len(t, d.Configurations, 1)
	require.Len(t, d.InjectionTargets, 3)
	require.NotNil(t, d.Settings)
	assert.False(t, d.Settings.FailOnUnmatchedRequests)

	ctrl := NewController(WithTarget(nil))
	s := NewNode(t.Name(), nil, d)
	_, err = ctrl.OnEnterScope(context.Background(), s)
	require.NoError(t, err)

	require.NotNil(t, fx.Handle)
	assert.Same(t, fx.Engine, fx.Handle.Engine())
	assert.Equal(t, fx.Handle.Server(), fx.Server)
	assert.True(t, fx.Engine.IsRunning())

	require.NoError(t, ctrl.OnExitScope(context.Background(), s))
	assert.False(t, fx.Engine.IsRunning())
}

type managedFixture struct {
	A *engine.Server `mockscope:"managed"`
	B *Handle        `mockscope:"managed"`
	S *Settings      `mockscope:"settings"`
}

func TestBind_Managed(t *testing.T) {
	b := Managed(&fakeServer{}, FailOnUnmatched(false))
	d, err := Bind(&managedFixture{A: engine.NewServer(nil), B: b, S: WithSettings(true)})
	require.NoError(t, err)
	require.Len(t, d.Managed, 2)
	assert.NotNil(t, d.Managed[0].Engine())
	assert.Same(t, b, d.Managed[1])
	assert.True(t, d.Settings.FailOnUnmatchedRequests)
}

func TestBind_Errors(t *testing.T) {
	tests := []struct {
		name     string
		instance any
	}{
		{name: "not a pointer", instance: managedFixture{}},
		{name: "nil pointer", instance: (*managedFixture)(nil)},
		{name: "nil managed", instance: &managedFixture{}},
		{name: "unexported", instance: &struct {
			srv *engine.Server `mockscope:"inject"`
		}{}},
		{name: "unknown tag", instance: &struct {
			X *Handle `mockscope:"borrowed"`
		}{}},
		{name: "wrong inject type", instance: &struct {
			X string `mockscope:"inject"`
		}{}},
		{name: "wrong config type", instance: &struct {
			X int `mockscope:"config"`
		}{}},
		{name: "settings twice", instance: &struct {
			A Settings `mockscope:"settings"`
			B Settings `mockscope:"settings"`
		}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(tt.instance)
			assert.ErrorIs(t, err, ErrInvalidBinding)
		})
	}
}

func TestBind_TwoConfigsFailOnEnter(t *testing.T) {
	d, err := Bind(&struct {
		A config.ServerConfiguration  `mockscope:"config"`
		B *config.ServerConfiguration `mockscope:"config"`
	}{A: *config.DefaultServerConfiguration(), B: config.DefaultServerConfiguration()})
	require.NoError(t, err)

	ctrl := NewController(WithTarget(nil))
	_, err = ctrl.OnEnterScope(context.Background(), NewNode(t.Name(), nil, d))
	assert.ErrorIs(t, err, ErrMultipleConfigurations)
}

func TestBind_UnsetConfigValueIgnored(t *testing.T) {
	d, err := Bind(&struct {
		Config config.ServerConfiguration `mockscope:"config"`
		Handle *Handle                    `mockscope:"inject"`
	}{})
	require.NoError(t, err)
	assert.Empty(t, d.Configurations, "a zero configuration would enable dynamic HTTPS")

	d, err = Bind(&struct {
		Config config.ServerConfiguration `mockscope:"config"`
	}{Config: *config.DefaultServerConfiguration().WithHTTPPort(18090)})
	require.NoError(t, err)
	require.Len(t, d.Configurations, 1)
	assert.Equal(t, 18090, d.Configurations[0].HTTPPort)
}

func TestBind_InjectTypeMismatch(t *testing.T) {
	fx := &struct {
		Engine *engine.Server `mockscope:"inject"`
	}{}
	d, err := Bind(fx)
	require.NoError(t, err)

	ctrl, ff, _ := newFakeController()
	s := NewNode(t.Name(), nil, d)
	_, err = ctrl.OnEnterScope(context.Background(), s)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, t.Name(), ce.Scope)
	assert.ErrorIs(t, err, ErrInvalidBinding)
	assert.Contains(t, err.Error(), "*scope.fakeServer")
	assert.Nil(t, fx.Engine)

	require.Len(t, ff.Built(), 1)
	assert.False(t, ff.Built()[0].IsRunning(), "nothing starts after a failed injection")
	assert.Zero(t, ctrl.Registry().Len())
}
