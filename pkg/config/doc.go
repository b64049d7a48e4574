// Package config provides engine configuration, the mockscope.yaml settings
// file, environment overrides and the stub file loader.
//
// ServerConfiguration describes one engine: host, HTTP and HTTPS port
// policy, timeouts and limits. The port policy is:
//
//	HTTPPort   0 dynamic, >0 fixed
//	HTTPSPort -1 disabled, 0 dynamic, >0 fixed
//
// Settings is the file-level view used by the CLI and by test helpers:
//
//	failOnUnmatchedRequests: true
//	server:
//	  host: localhost
//	  port: 0
//	  httpsPort: -1
//	log:
//	  level: info
//	  format: text
//	stubs:
//	  - stubs/**/*.yaml
//
// Precedence is defaults, then the file, then MOCKSCOPE_* environment
// variables, then command line flags. Settings.Sources records the origin of
// every value.
//
// Stub files hold a single stub or a list and may reference environment
// variables as ${NAME} or ${NAME:-default}.
package config
