package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/mockscope/internal/storage"
	"github.com/getmockd/mockscope/pkg/config"
	"github.com/getmockd/mockscope/pkg/logging"
	"github.com/getmockd/mockscope/pkg/metrics"
	"github.com/getmockd/mockscope/pkg/requestlog"
	"github.com/getmockd/mockscope/pkg/stub"
)

// ShutdownTimeout bounds how long Stop waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// Server is one mock HTTP(S) server.
type Server struct {
	cfg     *config.ServerConfiguration
	log     *slog.Logger
	metrics *metrics.Metrics
	stubs   storage.StubStore
	journal requestlog.Store
	handler *Handler
	router  http.Handler

	initial []*stub.Stub

	mu          sync.RWMutex
	running     bool
	startTime   time.Time
	httpServer  *http.Server
	httpsServer *http.Server
	httpPort    int
	httpsPort   int
	certPool    *x509.CertPool
	serving     sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStubs registers stubs when the server is created. Invalid stubs are
// logged and skipped.
func WithStubs(stubs ...*stub.Stub) ServerOption {
	return func(s *Server) {
		s.initial = append(s.initial, stubs...)
	}
}

// WithMetrics replaces the server's own metrics.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithBaseDir sets the directory relative bodyFile paths resolve against.
func WithBaseDir(dir string) ServerOption {
	return func(s *Server) {
		s.handler.baseDir = dir
	}
}

// NewServer creates a stopped server. A nil cfg uses the defaults; cfg is
// copied, so later changes to it have no effect.
func NewServer(cfg *config.ServerConfiguration, opts ...ServerOption) *Server {
	cfg = cfg.Clone()
	maxEntries := cfg.MaxLogEntries
	if maxEntries <= 0 {
		maxEntries = config.DefaultMaxLogEntries
	}

	s := &Server{
		cfg:     cfg,
		log:     logging.Nop(),
		metrics: metrics.New(),
		stubs:   storage.NewMemoryStore(),
		journal: requestlog.NewMemoryStore(maxEntries),
	}
	s.handler = newHandler(s)
	for _, opt := range opts {
		opt(s)
	}
	s.handler.log = s.log.With("subcomponent", "handler")
	s.router = s.newRouter()

	for _, st := range s.initial {
		if _, err := s.StubFor(st); err != nil {
			s.log.Warn("failed to add stub at startup", "stub", label(st), "error", err)
		}
	}
	s.initial = nil
	return s
}

func label(st *stub.Stub) string {
	if st == nil {
		return "<nil>"
	}
	return st.Label()
}

// Start binds the configured ports and begins serving. Starting a running
// server is a no-op.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	httpLn, err := listen(ctx, s.cfg.Host, s.cfg.HTTPPort)
	if err != nil {
		return fmt.Errorf("failed to bind HTTP port: %w", err)
	}

	var httpsLn net.Listener
	if s.cfg.HTTPSEnabled() {
		tlsCfg, pool, err := buildTLSConfig(s.cfg)
		if err != nil {
			_ = httpLn.Close()
			return fmt.Errorf("failed to setup TLS: %w", err)
		}
		ln, err := listen(ctx, s.cfg.Host, s.cfg.HTTPSPort)
		if err != nil {
			_ = httpLn.Close()
			return fmt.Errorf("failed to bind HTTPS port: %w", err)
		}
		httpsLn = tls.NewListener(ln, tlsCfg)
		s.certPool = pool
	}

	s.httpPort = boundPort(httpLn)
	s.httpServer = s.newHTTPServer()
	s.serve(s.httpServer, httpLn, "HTTP")

	s.httpsServer = nil
	s.httpsPort = 0
	if httpsLn != nil {
		s.httpsPort = boundPort(httpsLn)
		s.httpsServer = s.newHTTPServer()
		s.serve(s.httpsServer, httpsLn, "HTTPS")
	}

	s.running = true
	s.startTime = time.Now()
	s.metrics.EngineStarted()
	s.log.Info("engine started", "http_port", s.httpPort, "https_port", s.httpsPort)
	return nil
}

func listen(ctx context.Context, host string, port int) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

func boundPort(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
	}
}

func (s *Server) serve(srv *http.Server, ln net.Listener, name string) {
	s.serving.Add(1)
	go func() {
		defer s.serving.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(name+" server error", "error", err)
		}
	}()
}

// Stop shuts the listeners down, waiting up to ShutdownTimeout for in-flight
// requests. Stubs and the journal survive a stop. Stopping a stopped server
// is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	var errs []error
	shutdown := func(name string, srv *http.Server) {
		if srv == nil {
			return
		}
		if err := srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
			errs = append(errs, fmt.Errorf("%s shutdown: %w", name, err))
		}
	}
	shutdown("HTTP", s.httpServer)
	shutdown("HTTPS", s.httpsServer)
	s.serving.Wait()

	s.running = false
	s.log.Info("engine stopped", "http_port", s.httpPort, "https_port", s.httpsPort)
	return errors.Join(errs...)
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Port returns the bound HTTP port, or the last one bound after Stop. It is
// 0 before the first Start when the port is dynamic.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.httpPort == 0 {
		return s.cfg.HTTPPort
	}
	return s.httpPort
}

// HTTPSPort returns the bound HTTPS port, or -1 when HTTPS is disabled.
func (s *Server) HTTPSPort() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.cfg.HTTPSEnabled() {
		return config.PortDisabled
	}
	if s.httpsPort == 0 {
		return s.cfg.HTTPSPort
	}
	return s.httpsPort
}

// URL is the HTTP base URL, e.g. http://localhost:8080.
func (s *Server) URL() string {
	return "http://" + net.JoinHostPort(s.dialHost(), strconv.Itoa(s.Port()))
}

// HTTPSURL is the HTTPS base URL, or "" when HTTPS is disabled.
func (s *Server) HTTPSURL() string {
	if !s.cfg.HTTPSEnabled() {
		return ""
	}
	return "https://" + net.JoinHostPort(s.dialHost(), strconv.Itoa(s.HTTPSPort()))
}

func (s *Server) dialHost() string {
	switch s.cfg.Host {
	case "", "0.0.0.0", "::":
		return "localhost"
	}
	return s.cfg.Host
}

// CertPool trusts the certificate served on the HTTPS port. It is nil until
// an HTTPS listener has been started.
func (s *Server) CertPool() *x509.CertPool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.certPool
}

// Uptime is the time since the last Start, or 0 when stopped.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startTime)
}

// Config returns a copy of the server configuration.
func (s *Server) Config() *config.ServerConfiguration {
	return s.cfg.Clone()
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Handler returns the server's full HTTP handler, admin API included.
// It serves requests without Start, which is how httptest-based tests use it.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Reset removes every stub and clears the journal.
func (s *Server) Reset() {
	s.ResetStubs()
	s.ResetRequests()
}
