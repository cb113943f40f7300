package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/cli/internal/output"
	"github.com/getmockd/oasmock/pkg/engine/api"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the states of every service and the tracked calls",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.NewClient(adminURL).Reset(); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		return printResult(w, map[string]string{"status": "reset"}, func() {
			fmt.Fprintln(w, "Reset all services")
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check if a running server is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := api.NewClient(adminURL).Health()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		return printResult(w, health, func() {
			fmt.Fprintf(w, "%s (%d services)\n", output.Title(health.Status), health.Services)
		})
	},
}

func init() {
	rootCmd.AddCommand(resetCmd, healthCmd)
}
