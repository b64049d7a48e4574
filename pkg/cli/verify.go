package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockscope/pkg/client"
	"github.com/getmockd/mockscope/pkg/scope"
)

func newVerifyCmd() *cobra.Command {
	var (
		url     string
		timeout time.Duration
		reset   bool
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Fail if a running server received unmatched requests",
		Long: `Fetch the unmatched requests and their near misses from a running
server and exit 1 if there are any. Suitable for CI scripts.`,
		Example: `  mockscope verify --url http://localhost:8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c := client.New(url, client.WithTimeout(timeout))
			if err := (&scope.Gate{}).VerifyJournal(ctx, c, c.BaseURL()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "no unmatched requests on %s\n", c.BaseURL())

			if reset {
				if err := c.Reset(ctx); err != nil {
					return fmt.Errorf("reset: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&url, "url", "u", client.BaseURL(), "server base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "timeout for the admin calls")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear stubs and journal after a passing check")
	return cmd
}
