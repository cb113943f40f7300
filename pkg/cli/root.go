package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/config"
	"github.com/getmockd/oasmock/pkg/logging"
)

// EnvAdminURL overrides the default control API URL.
const EnvAdminURL = "OASMOCK_ADMIN_URL"

var (
	// Persistent flags available to all subcommands
	configPath  string
	logLevel    string
	logFormat   string
	servicesDir []string
	adminURL    string
	jsonOutput  bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oasmock",
	Short: "oasmock serves stateful mock responses generated from OpenAPI documents",
	Long: `oasmock answers HTTP requests with payloads generated from the OpenAPI documents of
its services. Tests shape the answers by setting states: constraints such as a status code,
an array size or fixed property values that apply to one endpoint or to all of them.

Every directory below a services directory is one service and holds one document named
index.yaml, openapi.yaml or spec.yaml.

Configuration can be provided via flags, environment variables, or a configuration file.
By default, oasmock looks for oasmock.yaml in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	os.Exit(Main())
}

// Main runs the root command with os.Args and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+FormatError(err))
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: oasmock.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json")
	rootCmd.PersistentFlags().StringSliceVar(&servicesDir, "services-dir", nil, "Services directory or glob pattern (repeatable)")
	rootCmd.PersistentFlags().StringVar(&adminURL, "admin-url", defaultAdminURL(), "Control API base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}

func defaultAdminURL() string {
	if v := os.Getenv(EnvAdminURL); v != "" {
		return v
	}
	return "http://localhost:" + strconv.Itoa(config.DefaultAdminPort)
}

// loadConfig resolves the configuration file, environment and persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if len(servicesDir) > 0 {
		cfg.ServicesDirectories = servicesDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates the operational logger. Logs go to stderr so stdout stays parseable.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	})
}
