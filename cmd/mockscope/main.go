// mockscope CLI - run and verify standalone mock servers
package main

import (
	"os"

	"github.com/getmockd/mockscope/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.BuildDate = Version, Commit, BuildDate
	os.Exit(cli.Main())
}
