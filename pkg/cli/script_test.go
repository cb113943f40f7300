package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/getmockd/oasmock/internal/testutil"
	"github.com/getmockd/oasmock/pkg/engine"
	"github.com/getmockd/oasmock/pkg/engine/api"
	"github.com/getmockd/oasmock/pkg/service"
)

// TestMain lets testscript run the oasmock command in a subprocess of the test binary.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"oasmock": Main,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			srv, err := startPetstore(env.T())
			if err != nil {
				return err
			}
			env.Defer(func() { _ = srv.Stop(context.Background()) })
			env.Setenv("ENGINE_URL", "http://"+srv.Addr().String())
			env.Setenv("ADMIN_URL", "http://"+srv.AdminAddr().String())
			env.Setenv(EnvAdminURL, "http://"+srv.AdminAddr().String())
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"httpget": cmdHTTPGet,
		},
	})
}

// startPetstore runs a server with the petstore service on free ports.
func startPetstore(t testing.TB) (*engine.Server, error) {
	reg := service.NewRegistry()
	svc := service.New("petstore", testutil.Petstore(t), service.WithTracker(reg.Requests()))
	if err := reg.Add(svc); err != nil {
		return nil, err
	}
	srv := engine.NewServer(
		engine.ServerConfig{Addr: "127.0.0.1:0", AdminAddr: "127.0.0.1:0"},
		engine.NewHandler(reg, engine.WithSeed(1)),
		engine.WithAdmin(api.New(reg)),
	)
	if err := srv.Start(); err != nil {
		return nil, err
	}
	return srv, nil
}

// cmdHTTPGet fetches a URL and prints the status code and body.
func cmdHTTPGet(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) != 1 {
		ts.Fatalf("usage: httpget url")
	}
	resp, err := http.Get(args[0])
	if err != nil {
		ts.Fatalf("GET %s: %v", args[0], err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	_, _ = fmt.Fprintf(ts.Stdout(), "%d\n%s\n", resp.StatusCode, body)
	if failed := resp.StatusCode >= 400; failed != neg {
		ts.Fatalf("GET %s: unexpected status %d", args[0], resp.StatusCode)
	}
}
