package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getmockd/mockscope/pkg/client"
	"github.com/getmockd/mockscope/pkg/config"
	"github.com/getmockd/mockscope/pkg/engine"
	"github.com/getmockd/mockscope/pkg/logging"
)

// ServerFactory builds the server for a scope that does not bring its own.
// cfg is never nil.
type ServerFactory func(cfg *config.ServerConfiguration, log *slog.Logger) Server

// TargetFunc points the process-wide client at a started server.
type TargetFunc func(host string, port int)

// NewEngine is the default ServerFactory.
func NewEngine(cfg *config.ServerConfiguration, log *slog.Logger) Server {
	return engine.NewServer(cfg, engine.WithLogger(log))
}

// Controller runs the entry and exit protocols of scopes. It is safe for
// concurrent use by sibling scopes.
type Controller struct {
	log       *slog.Logger
	defaults  Settings
	newServer ServerFactory
	target    TargetFunc
	gate      *Gate
	registry  *Registry

	mu       sync.Mutex
	prepared map[string]bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		c.log = logging.OrNop(log)
	}
}

// WithDefaults sets the settings used when no scope declares any.
func WithDefaults(s Settings) Option {
	return func(c *Controller) {
		c.defaults = s
	}
}

// WithServerFactory replaces NewEngine.
func WithServerFactory(f ServerFactory) Option {
	return func(c *Controller) {
		if f != nil {
			c.newServer = f
		}
	}
}

// WithTarget replaces client.ConfigureFor as the hook called after each
// start. A nil func disables it.
func WithTarget(f TargetFunc) Option {
	return func(c *Controller) {
		c.target = f
	}
}

// WithGate replaces the verification gate.
func WithGate(g *Gate) Option {
	return func(c *Controller) {
		if g != nil {
			c.gate = g
		}
	}
}

// NewController returns a controller that fails on unmatched requests
// unless told otherwise.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		log:       logging.Nop(),
		defaults:  DefaultSettings(),
		newServer: NewEngine,
		target:    client.ConfigureFor,
		registry:  NewRegistry(),
		prepared:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gate == nil {
		c.gate = &Gate{Logger: c.log}
	}
	return c
}

// Registry exposes the handles the controller tracks.
func (c *Controller) Registry() *Registry { return c.registry }

// Defaults are the settings used when no scope declares any.
func (c *Controller) Defaults() Settings { return c.defaults }

// OnPrepareInstance registers the servers s declares. Managed servers are
// registered as they are. Otherwise, if s has injection targets, one
// server is built from the scope's configuration (or the defaults) and
// handed to every target. It runs once per scope; later calls are no-ops.
func (c *Controller) OnPrepareInstance(ctx context.Context, s Scope) error {
	if s == nil {
		return configError(nil, ErrNilScope, "")
	}
	id := s.ID()
	c.mu.Lock()
	if c.prepared[id] {
		c.mu.Unlock()
		return nil
	}
	c.prepared[id] = true
	c.mu.Unlock()

	if err := c.prepare(s); err != nil {
		c.mu.Lock()
		delete(c.prepared, id)
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Controller) prepare(s Scope) error {
	if managed := ResolveDeclaredHandles(s, KindManaged); len(managed) > 0 {
		handles := make([]*Handle, 0, len(managed))
		for _, b := range managed {
			handles = append(handles, b.Handle)
		}
		if err := c.registry.Register(s, handles); err != nil {
			return err
		}
		c.log.Debug("registered managed servers", "scope", s.ID(), "count", len(handles))
		return nil
	}

	cfg, err := ResolveConfiguration(s)
	if err != nil {
		return err
	}
	targets := ResolveDeclaredHandles(s, KindInject)
	if len(targets) == 0 {
		return nil
	}
	h := c.build(cfg)
	for _, b := range targets {
		if err := b.Inject(h); err != nil {
			return configError(s, err, "")
		}
	}
	if err := c.registry.Register(s, []*Handle{h}); err != nil {
		return err
	}
	c.log.Debug("registered injected server", "scope", s.ID(), "targets", len(targets))
	return nil
}

func (c *Controller) build(cfg *config.ServerConfiguration) *Handle {
	if cfg == nil {
		cfg = config.DefaultServerConfiguration()
	}
	return &Handle{srv: c.newServer(cfg.Clone(), c.log), created: true}
}

// OnEnterScope prepares s if the host has not, falls back to one default
// server when nothing is reachable from s, and starts the servers
// registered at s that are not running. After each start the client
// target moves to that server. It returns the settings in effect for s.
//
// If entry fails after s was prepared, the servers at s are stopped and s
// is forgotten before the error is returned; the host need not exit it.
func (c *Controller) OnEnterScope(ctx context.Context, s Scope) (Settings, error) {
	if s == nil {
		return c.defaults, configError(nil, ErrNilScope, "")
	}
	settings := ResolveSettings(s, c.defaults)

	if err := c.OnPrepareInstance(ctx, s); err != nil {
		return settings, err
	}

	if len(c.registry.CollectReachable(s)) == 0 {
		if err := c.registry.Register(s, []*Handle{c.build(nil)}); err != nil {
			c.abandon(ctx, s)
			return settings, err
		}
		c.log.Debug("registered default server", "scope", s.ID())
	}

	for _, h := range c.registry.Lookup(s) {
		if h.srv.IsRunning() {
			continue
		}
		if err := h.srv.Start(ctx); err != nil {
			c.abandon(ctx, s)
			return settings, fmt.Errorf("failed to start server for scope %q: %w", s.ID(), err)
		}
		if c.target != nil {
			c.target("localhost", h.srv.Port())
		}
		c.log.Debug("server started", "scope", s.ID(), "port", h.srv.Port())
	}
	return settings, nil
}

// abandon undoes a failed entry: it stops whatever runs at s and forgets s.
func (c *Controller) abandon(ctx context.Context, s Scope) {
	ctx = context.WithoutCancel(ctx)
	for _, h := range c.registry.Lookup(s) {
		if !h.srv.IsRunning() {
			continue
		}
		if err := h.srv.Stop(ctx); err != nil {
			c.log.Warn("failed to stop server after failed entry", "scope", s.ID(), "error", err)
		}
	}
	c.forget(s)
}

// OnExitScope stops the servers registered at s, then verifies every
// server reachable from s with the settings in effect for s. Ancestors
// are not exited. Afterwards s is forgotten, so its ID may be entered
// again.
func (c *Controller) OnExitScope(ctx context.Context, s Scope) error {
	if s == nil {
		return configError(nil, ErrNilScope, "")
	}
	defer c.forget(s)

	var stopErrs []error
	for _, h := range c.registry.Lookup(s) {
		if !h.srv.IsRunning() {
			continue
		}
		if err := h.srv.Stop(ctx); err != nil {
			stopErrs = append(stopErrs, fmt.Errorf("failed to stop server for scope %q: %w", s.ID(), err))
			continue
		}
		c.log.Debug("server stopped", "scope", s.ID(), "port", h.srv.Port())
	}
	if err := errors.Join(stopErrs...); err != nil {
		return err
	}

	settings := ResolveSettings(s, c.defaults)
	return c.gate.Verify(ctx, c.registry.CollectReachable(s), settings)
}

func (c *Controller) forget(s Scope) {
	c.registry.Forget(s)
	c.mu.Lock()
	delete(c.prepared, s.ID())
	c.mu.Unlock()
}
