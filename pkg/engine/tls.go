package engine

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/getmockd/mockscope/internal/certs"
	"github.com/getmockd/mockscope/pkg/config"
)

// buildTLSConfig loads the configured certificate, or issues a self-signed
// one for the server's host when none is configured. The returned pool
// trusts a generated certificate and is nil for a loaded one.
func buildTLSConfig(cfg *config.ServerConfiguration) (*tls.Config, *x509.CertPool, error) {
	if cfg.TLS.CertFile != "" {
		cert, err := certs.Load(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, nil, err
		}
		return newTLSConfig(cert), nil, nil
	}

	gen, err := certs.SelfSigned(cfg.Host)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate certificate: %w", err)
	}
	return newTLSConfig(gen.Certificate), gen.Pool(), nil
}

func newTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}
