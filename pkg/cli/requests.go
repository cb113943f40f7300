package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/cli/internal/output"
	"github.com/getmockd/oasmock/pkg/engine/api"
)

var requestsFilter api.RequestFilter

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"logs"},
	Short:   "List the calls tracked by a running server",
	Long: `List the calls tracked by a running server, newest first.

--where takes a boolean expression over the entry fields, for example
'ResponseStatus >= 400 && Method == "POST"'. --body-path takes a JSONPath evaluated against
the JSON response body; with --body-value one selected value must equal it.`,
	Example: `  oasmock requests --service petstore
  oasmock requests --where 'ResponseStatus == 404' --json
  oasmock requests --body-path '$.name' --body-value '"Fluffy"'`,
	Args: cobra.NoArgs,
	RunE: runRequests,
}

var requestsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete tracked calls",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cleared, err := api.NewClient(adminURL).ClearRequests(requestsFilter.Service)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		return printResult(w, api.ClearResponse{Cleared: cleared}, func() {
			fmt.Fprintf(w, "Cleared %d requests\n", cleared)
		})
	},
}

func init() {
	f := requestsCmd.PersistentFlags()
	f.StringVarP(&requestsFilter.Service, "service", "s", "", "Filter by service")
	requestsCmd.Flags().StringVarP(&requestsFilter.Method, "method", "m", "", "Filter by HTTP method")
	requestsCmd.Flags().StringVar(&requestsFilter.Path, "path", "", "Filter by path prefix")
	requestsCmd.Flags().IntVar(&requestsFilter.Status, "status", 0, "Filter by response status")
	requestsCmd.Flags().StringVar(&requestsFilter.Where, "where", "", "Filter by expression over entry fields")
	requestsCmd.Flags().StringVar(&requestsFilter.BodyPath, "body-path", "", "Filter by JSONPath over the response body")
	requestsCmd.Flags().StringVar(&requestsFilter.BodyValue, "body-value", "", "Value the --body-path selection must equal (JSON literal or string)")
	requestsCmd.Flags().IntVarP(&requestsFilter.Limit, "limit", "n", 20, "Maximum number of requests")
	requestsCmd.Flags().IntVar(&requestsFilter.Offset, "offset", 0, "Number of requests to skip")

	requestsCmd.AddCommand(requestsClearCmd)
	rootCmd.AddCommand(requestsCmd)
}

func runRequests(cmd *cobra.Command, args []string) error {
	result, err := api.NewClient(adminURL).ListRequests(&requestsFilter)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	return printResult(w, result, func() {
		if result.Count == 0 {
			fmt.Fprintln(w, "No requests tracked")
			return
		}
		tw := output.Table(w, "time", "service", "method", "path", "status", "operation")
		for _, e := range result.Requests {
			service, operation := e.Service, e.Operation
			if service == "" {
				service = "-"
			}
			if operation == "" {
				operation = "-"
			}
			output.Row(tw, e.Timestamp.Format("15:04:05.000"), service, e.Method, e.Path, e.ResponseStatus, operation)
		}
		_ = tw.Flush()
		fmt.Fprintf(w, "\nShowing %d of %d requests\n", result.Count, result.Total)
	})
}
