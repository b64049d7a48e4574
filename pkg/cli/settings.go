package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/mockscope/pkg/config"
)

// settingsFlags are the flags that override mockscope.yaml.
type settingsFlags struct {
	configPath      string
	host            string
	port            int
	httpsPort       int
	stubs           []string
	logLevel        string
	logFormat       string
	failOnUnmatched bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "settings file (default ./mockscope.yaml or $MOCKSCOPE_CONFIG)")
	fs.StringVar(&f.host, "host", config.DefaultHost, "host to bind")
	fs.IntVarP(&f.port, "port", "p", config.PortDynamic, "HTTP port, 0 for a free port")
	fs.IntVar(&f.httpsPort, "https-port", config.PortDisabled, "HTTPS port, 0 for a free port, -1 to disable")
	fs.StringArrayVarP(&f.stubs, "stubs", "s", nil, "stub file or glob, may be repeated")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format (text, json)")
	fs.BoolVar(&f.failOnUnmatched, "fail-on-unmatched", true, "treat unmatched requests as failures")
}

// load resolves settings from file and environment, then applies the
// flags the user set explicitly.
func (f *settingsFlags) load(cmd *cobra.Command) (*config.Settings, error) {
	s, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("host") {
		s.Server.Host = f.host
		s.Set("server.host", config.SourceFlag)
	}
	if changed("port") {
		s.Server.HTTPPort = f.port
		s.Set("server.port", config.SourceFlag)
	}
	if changed("https-port") {
		s.Server.HTTPSPort = f.httpsPort
		s.Set("server.httpsPort", config.SourceFlag)
	}
	if changed("stubs") {
		s.Stubs = append(s.Stubs, f.stubs...)
		s.Set("stubs", config.SourceFlag)
	}
	if changed("log-level") {
		s.Log.Level = f.logLevel
		s.Set("log.level", config.SourceFlag)
	}
	if changed("log-format") {
		s.Log.Format = f.logFormat
		s.Set("log.format", config.SourceFlag)
	}
	if changed("fail-on-unmatched") {
		s.FailOnUnmatchedRequests = f.failOnUnmatched
		s.Set("failOnUnmatchedRequests", config.SourceFlag)
	}

	if err := s.Server.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
