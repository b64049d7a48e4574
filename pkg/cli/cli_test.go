package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/getmockd/mockscope/pkg/engine"
	"github.com/getmockd/mockscope/pkg/stub"
)

// TestMain lets testscript run the CLI in-process as "mockscope".
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"mockscope": Main,
	}))
}

var testClient = &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			srv := engine.NewServer(nil, engine.WithStubs(stub.Get("/close").MustBuild()))
			if err := srv.Start(context.Background()); err != nil {
				return err
			}
			env.Defer(func() { _ = srv.Stop(context.Background()) })
			env.Setenv("ENGINE_URL", srv.URL())
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"httpget": cmdHTTPGet,
		},
	})
}

// cmdHTTPGet sends a GET and prints the status code.
func cmdHTTPGet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! httpget")
	}
	if len(args) != 1 {
		ts.Fatalf("usage: httpget url")
	}
	resp, err := testClient.Get(args[0])
	ts.Check(err)
	_ = resp.Body.Close()
	fmt.Fprintf(ts.Stdout(), "%d\n", resp.StatusCode)
}
