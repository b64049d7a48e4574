package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "unknown"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// NewRootCmd builds the command tree. Each call returns fresh commands
// and flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mockscope",
		Short: "mockscope runs scoped HTTP mock servers",
		Long: `mockscope runs HTTP mock servers and fails when they receive requests
no stub matched.

Settings are read from mockscope.yaml (or --config, or $MOCKSCOPE_CONFIG),
then overridden by MOCKSCOPE_* environment variables, then by flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newVerifyCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mockscope %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
