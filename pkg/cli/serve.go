package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/config"
	"github.com/getmockd/oasmock/pkg/engine"
	"github.com/getmockd/oasmock/pkg/engine/api"
	"github.com/getmockd/oasmock/pkg/loader"
	"github.com/getmockd/oasmock/pkg/service"
	"github.com/getmockd/oasmock/pkg/validator"
)

var (
	servePort          int
	serveAdminPort     int
	serveStrict        bool
	serveSeed          uint64
	serveCodePolicy    string
	serveVerify        bool
	serveValidateSpecs bool
	serveWatch         bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock server and its control API",
	Long: `Start the mock server and its control API.

Every service found in the services directories is loaded. Services that fail to load are
reported and skipped. The server stops on SIGINT or SIGTERM.`,
	Example: `  # Serve ./services on the default ports
  oasmock serve

  # Serve two directories with strict directive checking
  oasmock serve --services-dir ./services --services-dir ./vendor/services --strict

  # Reload services when their files change
  oasmock serve --watch

  # Reproducible payloads, no control API
  oasmock serve --seed 42 --admin-port 0`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", config.DefaultPort, "Mock server port")
	serveCmd.Flags().IntVar(&serveAdminPort, "admin-port", config.DefaultAdminPort, "Control API port (0 disables it)")
	serveCmd.Flags().BoolVar(&serveStrict, "strict", false, "Reject malformed directives instead of ignoring them")
	serveCmd.Flags().Uint64Var(&serveSeed, "seed", 0, "Seed for generated payloads")
	serveCmd.Flags().StringVar(&serveCodePolicy, "code-policy", validator.AllCodes.String(), "Status codes a state without $code applies to: all, primary")
	serveCmd.Flags().BoolVar(&serveVerify, "verify", false, "Check generated payloads against their schema")
	serveCmd.Flags().BoolVar(&serveValidateSpecs, "validate-specs", false, "Validate OpenAPI documents while loading")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload services when their files change")
	rootCmd.AddCommand(serveCmd)
}

// applyServeFlags overrides cfg with the serve flags set on the command line.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = servePort
	}
	if flags.Changed("admin-port") {
		cfg.AdminPort = serveAdminPort
	}
	if flags.Changed("strict") {
		cfg.Strict = serveStrict
	}
	if flags.Changed("seed") {
		cfg.Seed = serveSeed
	}
	if flags.Changed("code-policy") {
		cfg.CodePolicy = serveCodePolicy
	}
	if flags.Changed("verify") {
		cfg.VerifyResponses = serveVerify
	}
	if flags.Changed("validate-specs") {
		cfg.ValidateSpecs = serveValidateSpecs
	}
	if flags.Changed("watch") {
		cfg.Watch = serveWatch
	}
	return cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}
	log := newLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := loadRegistry(ctx, cfg, log)
	if err != nil {
		return err
	}
	if registry.Len() == 0 {
		log.Warn("no services loaded", "directories", cfg.ServicesDirectories)
	}

	handler := engine.NewHandler(registry,
		engine.WithSeed(cfg.Seed),
		engine.WithVerify(cfg.VerifyResponses),
		engine.WithHandlerLogger(log),
	)
	serverCfg := engine.ServerConfig{Addr: fmt.Sprintf(":%d", cfg.Port)}
	opts := []engine.ServerOption{engine.WithLogger(log)}
	if cfg.AdminPort != 0 {
		control := api.New(registry)
		control.SetLogger(log)
		serverCfg.AdminAddr = fmt.Sprintf(":%d", cfg.AdminPort)
		opts = append(opts, engine.WithAdmin(control))
	}

	if cfg.Watch {
		go watchServices(ctx, cfg, registry, log)
	}

	srv := engine.NewServer(serverCfg, handler, opts...)
	log.Info("serving services", "services", registry.Len(), "port", cfg.Port, "admin_port", cfg.AdminPort, "strict", cfg.Strict, "watch", cfg.Watch)
	return srv.Run(ctx)
}

// watchServices swaps in freshly parsed services whenever the services directories change.
func watchServices(ctx context.Context, cfg *config.Config, registry *service.Registry, log *slog.Logger) {
	fs := loader.New(cfg.ServicesDirectories...)
	fs.SetLogger(log)
	err := loader.NewWatcher(fs).Run(ctx, func(ctx context.Context, result *loader.LoadResult) {
		// Parse errors are already logged per service.
		_ = registry.Reload(ctx, result.Defs, parseOptions(cfg))
	})
	if err != nil {
		log.Error("file watcher stopped", "error", err)
	}
}
