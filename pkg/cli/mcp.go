package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/internal/mcpserver"
	"github.com/getmockd/oasmock/pkg/engine/api"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the control API as MCP tools over stdio",
	Long: `Serve the control API of a running oasmock server as MCP (Model Context Protocol) tools
over stdio. MCP clients launch this command and talk to it on stdin and stdout.

Tools: list_services, list_routes, get_state, set_state, reset_state, list_requests,
clear_requests and reset.`,
	Example: `  # MCP client configuration
  {"command": "oasmock", "args": ["mcp", "--admin-url", "http://localhost:8081"]}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if isTerminal(cmd.InOrStdin()) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for an MCP client on stdin (Ctrl+C to stop)")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return mcpserver.New(api.NewClient(adminURL), Version).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
