package engine

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockscope/pkg/config"
	"github.com/getmockd/mockscope/pkg/stub"
)

func TestServer_StartStopIdempotent(t *testing.T) {
	s := NewServer(nil)
	ctx := context.Background()

	assert.False(t, s.IsRunning())
	assert.Equal(t, 0, s.Port())

	require.NoError(t, s.Start(ctx))
	port := s.Port()
	assert.Positive(t, port)
	assert.True(t, s.IsRunning())

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, port, s.Port(), "second start must not rebind")

	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, port, s.Port(), "port is kept after stop")
}

func TestServer_RestartKeepsStubs(t *testing.T) {
	s := NewServer(nil, WithStubs(stub.Get("/ping").WithBody("pong").MustBuild()))
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Stop(ctx) })

	resp, body := do(t, http.MethodGet, s.URL()+"/ping", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", body)
}

func TestServer_FixedPortInUse(t *testing.T) {
	first := startServer(t, nil)

	second := NewServer(config.DefaultServerConfiguration().WithHTTPPort(first.Port()))
	err := second.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind HTTP port")
	assert.False(t, second.IsRunning())
}

func TestServer_HTTPS(t *testing.T) {
	cfg := config.DefaultServerConfiguration().WithHTTPSPort(config.PortDynamic)
	s := startServer(t, cfg, WithStubs(stub.Get("/secure").WithBody("ok").MustBuild()))

	require.Positive(t, s.HTTPSPort())
	assert.NotEqual(t, s.Port(), s.HTTPSPort())
	require.NotNil(t, s.CertPool())

	client := &http.Client{Transport: &http.Transport{
		DisableKeepAlives: true,
		TLSClientConfig:   &tls.Config{RootCAs: s.CertPool(), MinVersion: tls.VersionTLS12},
	}}
	resp, err := client.Get(s.HTTPSURL() + "/secure")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestServer_HTTPSDisabled(t *testing.T) {
	s := NewServer(nil)
	assert.Equal(t, config.PortDisabled, s.HTTPSPort())
	assert.Empty(t, s.HTTPSURL())
	assert.Nil(t, s.CertPool())
}

func TestServer_URL(t *testing.T) {
	s := NewServer(config.DefaultServerConfiguration().WithHost("0.0.0.0").WithHTTPPort(18080))
	assert.Equal(t, "http://localhost:18080", s.URL())

	s = NewServer(config.DefaultServerConfiguration().WithHost("127.0.0.1").WithHTTPPort(18081))
	assert.Equal(t, "http://127.0.0.1:18081", s.URL())
}

func TestServer_ConfigIsCopied(t *testing.T) {
	cfg := config.DefaultServerConfiguration()
	s := NewServer(cfg)
	cfg.Host = "changed"

	assert.Equal(t, config.DefaultHost, s.Config().Host)
	s.Config().Host = "also changed"
	assert.Equal(t, config.DefaultHost, s.Config().Host)
}

func TestServer_StubOperations(t *testing.T) {
	s := NewServer(nil)

	_, err := s.StubFor(nil)
	require.ErrorIs(t, err, ErrNilStub)

	_, err = s.StubFor(&stub.Stub{Request: &stub.RequestPattern{Path: "/x"}, Response: &stub.ResponseDefinition{Status: 42}})
	var ve *stub.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "response.status", ve.Field)

	created, err := s.StubFor(stub.Get("/a").MustBuild())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	created.Request.Path = "/mutated"
	got, err := s.GetStub(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "/a", got.Request.Path, "returned stubs are copies")

	replacement := stub.Get("/b").MustBuild()
	replacement.ID = created.ID
	replaced, err := s.StubFor(replacement)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, replaced.CreatedAt)
	assert.Len(t, s.Stubs(), 1)

	require.NoError(t, s.RemoveStub(created.ID))
	assert.ErrorIs(t, s.RemoveStub(created.ID), ErrStubNotFound)
	_, err = s.GetStub(created.ID)
	assert.ErrorIs(t, err, ErrStubNotFound)
}

func TestServer_WithStubsSkipsInvalid(t *testing.T) {
	s := NewServer(nil, WithStubs(
		stub.Get("/ok").MustBuild(),
		nil,
		&stub.Stub{Request: &stub.RequestPattern{Path: "/bad"}},
	))
	require.Len(t, s.Stubs(), 1)
	assert.Equal(t, "/ok", s.Stubs()[0].Request.Path)
}

func TestServer_Reset(t *testing.T) {
	s := NewServer(nil, WithStubs(stub.Get("/a").MustBuild()))
	url := serveHandler(t, s)
	do(t, http.MethodGet, url+"/a", "")
	require.Len(t, s.Requests(nil), 1)

	s.Reset()
	assert.Empty(t, s.Stubs())
	assert.Empty(t, s.Requests(nil))
}
