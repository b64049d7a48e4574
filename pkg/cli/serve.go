package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockscope/pkg/config"
	"github.com/getmockd/mockscope/pkg/engine"
	"github.com/getmockd/mockscope/pkg/logging"
	"github.com/getmockd/mockscope/pkg/scope"
)

func newServeCmd() *cobra.Command {
	var (
		sf           settingsFlags
		verifyOnExit bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a mock server until interrupted",
		Long: `Run a mock server with the stubs from the settings file and --stubs
until SIGINT or SIGTERM. The admin API is served under /__admin.

With --verify-on-exit the server fails at shutdown if it received
requests no stub matched, unless failOnUnmatchedRequests is false.`,
		Example: `  mockscope serve --port 8080 --stubs 'stubs/**/*.yaml'
  mockscope serve --config ci.yaml --verify-on-exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, &sf, verifyOnExit)
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&verifyOnExit, "verify-on-exit", false, "fail at shutdown if unmatched requests were received")
	return cmd
}

func runServe(cmd *cobra.Command, sf *settingsFlags, verifyOnExit bool) error {
	settings, err := sf.load(cmd)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(settings.Log.Level),
		Format: logging.ParseFormat(settings.Log.Format),
		Output: cmd.ErrOrStderr(),
	})

	stubs, err := config.LoadStubs(settings.Stubs, settings.BaseDir())
	if err != nil {
		return fmt.Errorf("loading stubs: %w", err)
	}

	srv := engine.NewServer(settings.Server,
		engine.WithLogger(log),
		engine.WithStubs(stubs...),
		engine.WithBaseDir(settings.BaseDir()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mockscope serving on %s with %d stub(s)\n", srv.URL(), len(srv.Stubs()))
	if u := srv.HTTPSURL(); u != "" {
		fmt.Fprintf(out, "HTTPS on %s\n", u)
	}
	fmt.Fprintf(out, "admin API at %s%s\n", srv.URL(), engine.AdminPrefix)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), engine.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if verifyOnExit && settings.FailOnUnmatchedRequests {
		return (&scope.Gate{Logger: log}).VerifyJournal(shutdownCtx, srv, srv.URL())
	}
	return nil
}
