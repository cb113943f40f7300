package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/cli/internal/output"
	"github.com/getmockd/oasmock/pkg/service"
)

// RouteOutput is one row of the routes command.
type RouteOutput struct {
	Service            string `json:"service"`
	Method             string `json:"method"`
	Endpoint           string `json:"endpoint"`
	NormalizedEndpoint string `json:"normalizedEndpoint"`
	OperationID        string `json:"operationId,omitempty"`
}

var routesCmd = &cobra.Command{
	Use:   "routes [service]",
	Short: "List the operations of the services",
	Long: `List method, path template and normalized endpoint of every operation.

The normalized endpoint is the form state keys are stored under: lower-cased with every
parameter replaced by {}.`,
	Example: `  oasmock routes
  oasmock routes petstore --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cmd.Context(), cfg, newLogger(cmd, cfg))
	if err != nil {
		return err
	}

	services := registry.Services()
	if len(args) == 1 {
		svc, err := registry.Get(args[0])
		if err != nil {
			return err
		}
		services = []*service.Service{svc}
	}

	rows := []RouteOutput{}
	for _, svc := range services {
		for _, r := range svc.Routes() {
			rows = append(rows, RouteOutput{
				Service:            svc.Name(),
				Method:             r.Method,
				Endpoint:           r.Endpoint.SchemaEndpoint,
				NormalizedEndpoint: r.Endpoint.NormalizedEndpoint,
				OperationID:        r.OperationID,
			})
		}
	}

	w := cmd.OutOrStdout()
	return printResult(w, rows, func() {
		tw := output.Table(w, "service", "method", "endpoint", "normalized endpoint", "operation")
		for _, r := range rows {
			op := r.OperationID
			if op == "" {
				op = "-"
			}
			output.Row(tw, r.Service, r.Method, r.Endpoint, r.NormalizedEndpoint, op)
		}
		_ = tw.Flush()
	})
}
