package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockscope/pkg/config"
)

// effectiveSettings is what the config command prints.
type effectiveSettings struct {
	File     string            `yaml:"file,omitempty"`
	Settings *config.Settings  `yaml:"settings"`
	Sources  map[string]string `yaml:"sources,omitempty"`
}

func newConfigCmd() *cobra.Command {
	var sf settingsFlags
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings and where they came from",
		Long: `Print the settings serve would use, as YAML, after the settings file,
MOCKSCOPE_* environment variables and flags have been applied. The
sources map names the origin (file, env or flag) of every value that is
not a default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := sf.load(cmd)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(effectiveSettings{File: s.Path, Settings: s, Sources: s.Sources})
			if err != nil {
				return fmt.Errorf("encoding settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	sf.register(cmd)
	return cmd
}
