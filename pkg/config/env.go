package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvConfig          = "MOCKSCOPE_CONFIG"
	EnvHost            = "MOCKSCOPE_HOST"
	EnvPort            = "MOCKSCOPE_PORT"
	EnvHTTPSPort       = "MOCKSCOPE_HTTPS_PORT"
	EnvFailOnUnmatched = "MOCKSCOPE_FAIL_ON_UNMATCHED"
	EnvMaxLogEntries   = "MOCKSCOPE_MAX_LOG_ENTRIES"
	EnvLogLevel        = "MOCKSCOPE_LOG_LEVEL"
	EnvLogFormat       = "MOCKSCOPE_LOG_FORMAT"
)

// ApplyEnv overrides s with any MOCKSCOPE_* variables that are set.
// Malformed numbers and booleans are reported together.
func ApplyEnv(s *Settings) error {
	if s.Server == nil {
		s.Server = DefaultServerConfiguration()
	}
	var errs []error

	if v := os.Getenv(EnvHost); v != "" {
		s.Server.Host = v
		s.Set("server.host", SourceEnv)
	}
	envInt(EnvPort, "server.port", &s.Server.HTTPPort, s, &errs)
	envInt(EnvHTTPSPort, "server.httpsPort", &s.Server.HTTPSPort, s, &errs)
	envInt(EnvMaxLogEntries, "server.maxLogEntries", &s.Server.MaxLogEntries, s, &errs)

	if v := os.Getenv(EnvFailOnUnmatched); v != "" {
		b, err := ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvFailOnUnmatched, err))
		} else {
			s.FailOnUnmatchedRequests = b
			s.Set("failOnUnmatchedRequests", SourceEnv)
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.Log.Level = v
		s.Set("log.level", SourceEnv)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		s.Log.Format = v
		s.Set("log.format", SourceEnv)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return s.Server.Validate()
}

func envInt(name, key string, dst *int, s *Settings, errs *[]error) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", name, v))
		return
	}
	*dst = n
	s.Set(key, SourceEnv)
}

// ParseBool accepts true/false, 1/0, yes/no and on/off in any case.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", v)
}
