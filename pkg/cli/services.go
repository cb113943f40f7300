package cli

import (
	"context"
	"log/slog"

	"github.com/getmockd/oasmock/pkg/config"
	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/loader"
	"github.com/getmockd/oasmock/pkg/requestlog"
	"github.com/getmockd/oasmock/pkg/service"
)

// parseOptions builds the service options selected by cfg.
func parseOptions(cfg *config.Config) service.ParseOptions {
	return service.ParseOptions{
		Validate: cfg.ValidateSpecs,
		Options: []service.Option{
			service.WithCompiler(dsl.Compiler{Mode: cfg.Mode()}),
			service.WithCodePolicy(cfg.Policy()),
		},
	}
}

// readDefinitions reads every service definition of the configured services directories.
func readDefinitions(cfg *config.Config, log *slog.Logger) (*loader.LoadResult, error) {
	fs := loader.New(cfg.ServicesDirectories...)
	fs.SetLogger(log)
	return fs.Load()
}

// loadRegistry reads and parses every service. Services that fail to load are logged and
// skipped.
func loadRegistry(ctx context.Context, cfg *config.Config, log *slog.Logger) (*service.Registry, error) {
	result, err := readDefinitions(cfg, log)
	if err != nil {
		return nil, err
	}
	for _, loadErr := range result.Errors {
		log.Warn("failed to read service directory", "path", loadErr.Path, "error", loadErr.Error())
	}

	reg := service.NewRegistry(
		service.WithLogger(log),
		service.WithRequestLog(requestlog.NewInMemory(cfg.MaxLogEntries)),
	)
	// Parse errors are already logged per service.
	_ = reg.Load(ctx, result.Defs, parseOptions(cfg))
	return reg, nil
}
