package client

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/getmockd/mockscope/pkg/stub"
)

// DefaultPort is the port the default target uses until ConfigureFor is
// called.
const DefaultPort = 8080

var (
	defaultMu     sync.RWMutex
	defaultClient = New(baseURL("localhost", DefaultPort))
)

func baseURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// ConfigureFor points the default client at host:port. The last call wins.
func ConfigureFor(host string, port int) {
	c := New(baseURL(host, port))
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
}

// Default returns the current default client.
func Default() *Client {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultClient
}

// BaseURL is the default client's target.
func BaseURL() string {
	return Default().BaseURL()
}

// StubFor registers s with the default target.
func StubFor(ctx context.Context, s *stub.Stub) (*stub.Stub, error) {
	return Default().StubFor(ctx, s)
}
