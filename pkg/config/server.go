package config

import (
	"errors"
	"fmt"
	"time"
)

// Port policies.
const (
	PortDynamic  = 0
	PortDisabled = -1
)

// Defaults for a new ServerConfiguration.
const (
	DefaultHost          = "localhost"
	DefaultReadTimeout   = 30 * time.Second
	DefaultWriteTimeout  = 30 * time.Second
	DefaultMaxLogEntries = 1000
	DefaultMaxBodySize   = 10 << 20
)

// TLSConfig points at a PEM certificate and key. When both are empty and
// HTTPS is enabled, the engine generates a self-signed certificate.
type TLSConfig struct {
	CertFile string `yaml:"certFile,omitempty" json:"certFile,omitempty"`
	KeyFile  string `yaml:"keyFile,omitempty" json:"keyFile,omitempty"`
}

// ServerConfiguration configures one engine.
type ServerConfiguration struct {
	Host      string `yaml:"host" json:"host"`
	HTTPPort  int    `yaml:"port" json:"port"`
	HTTPSPort int    `yaml:"httpsPort" json:"httpsPort"`

	ReadTimeout  time.Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout" json:"writeTimeout"`

	// MaxLogEntries bounds the request journal.
	MaxLogEntries int `yaml:"maxLogEntries" json:"maxLogEntries"`
	// MaxBodySize bounds request bodies the engine reads, in bytes.
	MaxBodySize int64 `yaml:"maxBodySize" json:"maxBodySize"`

	TLS TLSConfig `yaml:"tls,omitempty" json:"tls,omitzero"`
}

// DefaultServerConfiguration binds localhost on a dynamic HTTP port with
// HTTPS disabled.
func DefaultServerConfiguration() *ServerConfiguration {
	return &ServerConfiguration{
		Host:          DefaultHost,
		HTTPPort:      PortDynamic,
		HTTPSPort:     PortDisabled,
		ReadTimeout:   DefaultReadTimeout,
		WriteTimeout:  DefaultWriteTimeout,
		MaxLogEntries: DefaultMaxLogEntries,
		MaxBodySize:   DefaultMaxBodySize,
	}
}

// WithHost returns a copy bound to host.
func (c *ServerConfiguration) WithHost(host string) *ServerConfiguration {
	cp := c.Clone()
	cp.Host = host
	return cp
}

// WithHTTPPort returns a copy listening on port (0 for dynamic).
func (c *ServerConfiguration) WithHTTPPort(port int) *ServerConfiguration {
	cp := c.Clone()
	cp.HTTPPort = port
	return cp
}

// WithHTTPSPort returns a copy with the HTTPS policy set to port
// (PortDisabled, PortDynamic or fixed).
func (c *ServerConfiguration) WithHTTPSPort(port int) *ServerConfiguration {
	cp := c.Clone()
	cp.HTTPSPort = port
	return cp
}

// HTTPSEnabled reports whether an HTTPS listener is configured.
func (c *ServerConfiguration) HTTPSEnabled() bool {
	return c.HTTPSPort != PortDisabled
}

// Clone returns a copy. A nil receiver yields the defaults.
func (c *ServerConfiguration) Clone() *ServerConfiguration {
	if c == nil {
		return DefaultServerConfiguration()
	}
	cp := *c
	return &cp
}

// Validate checks ports and limits.
func (c *ServerConfiguration) Validate() error {
	var errs []error
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 0-65535", c.HTTPPort))
	}
	if c.HTTPSPort < PortDisabled || c.HTTPSPort > 65535 {
		errs = append(errs, fmt.Errorf("httpsPort %d out of range -1-65535", c.HTTPSPort))
	}
	if c.HTTPPort > 0 && c.HTTPPort == c.HTTPSPort {
		errs = append(errs, fmt.Errorf("port and httpsPort are both %d", c.HTTPPort))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("tls.certFile and tls.keyFile must be set together"))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.MaxLogEntries < 0 {
		errs = append(errs, errors.New("maxLogEntries must not be negative"))
	}
	if c.MaxBodySize < 0 {
		errs = append(errs, errors.New("maxBodySize must not be negative"))
	}
	return errors.Join(errs...)
}
