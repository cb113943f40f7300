package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/oasmock/pkg/cli/internal/output"
	"github.com/getmockd/oasmock/pkg/engine/api"
	"github.com/getmockd/oasmock/pkg/state"
)

var (
	stateFile     string
	stateMethod   string
	stateEndpoint string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage the states of a running server",
}

var stateSetCmd = &cobra.Command{
	Use:   "set <service>",
	Short: "Apply a state to a service",
	Long: `Apply a state to a service of a running server.

The file is YAML or JSON. It either holds a full state update:

  method: get
  endpoint: /pets/{petId}
  state:
    $code: 404
    message: not here

or only the state object, in which case --method and --endpoint select the target.`,
	Example: `  oasmock state set petstore -f not-found.yaml
  oasmock state set petstore -f - --endpoint /pets <<< '{"$size": 3}'`,
	Args: cobra.ExactArgs(1),
	RunE: runStateSet,
}

var stateGetCmd = &cobra.Command{
	Use:   "get <service>",
	Short: "Show the states of a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		states, err := api.NewClient(adminURL).States(args[0])
		if err != nil {
			return err
		}
		return printStates(cmd.OutOrStdout(), states)
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset <service>",
	Short: "Remove every state of a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.NewClient(adminURL).ResetState(args[0]); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		return printResult(w, map[string]string{"service": args[0], "status": "reset"}, func() {
			fmt.Fprintf(w, "Reset state of %s\n", args[0])
		})
	},
}

func init() {
	stateSetCmd.Flags().StringVarP(&stateFile, "file", "f", "", "State file, or - for stdin")
	stateSetCmd.Flags().StringVarP(&stateMethod, "method", "m", "", "HTTP method the state applies to (default: any)")
	stateSetCmd.Flags().StringVarP(&stateEndpoint, "endpoint", "e", "", "Path or path template the state applies to (default: every endpoint)")
	_ = stateSetCmd.MarkFlagRequired("file")

	stateCmd.AddCommand(stateSetCmd, stateGetCmd, stateResetCmd)
	rootCmd.AddCommand(stateCmd)
}

func runStateSet(cmd *cobra.Command, args []string) error {
	data, err := readStateFile(cmd.InOrStdin(), stateFile)
	if err != nil {
		return err
	}
	input, err := parseStateInput(data)
	if err != nil {
		return err
	}
	if stateMethod != "" {
		input.Method = stateMethod
	}
	if stateEndpoint != "" {
		input.Endpoint = stateEndpoint
	}

	states, err := api.NewClient(adminURL).SetState(args[0], input)
	if err != nil {
		return err
	}
	return printStates(cmd.OutOrStdout(), states)
}

func readStateFile(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		if isTerminal(stdin) {
			return nil, errors.New("no state piped on stdin; pipe a state document or pass -f <file>")
		}
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// parseStateInput decodes a state update. A document without a top-level "state" key is the
// state object itself.
func parseStateInput(data []byte) (state.Input, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return state.Input{}, errors.New("state file is empty")
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return state.Input{}, fmt.Errorf("invalid state file: %w", err)
	}
	if doc == nil {
		return state.Input{}, errors.New("state file must hold an object")
	}

	nested, ok := doc["state"]
	if !ok {
		return state.Input{State: doc}, nil
	}
	obj, ok := nested.(map[string]any)
	if !ok {
		return state.Input{}, errors.New("state must be an object")
	}
	input := state.Input{State: obj}
	if input.Method, ok = stringField(doc, "method"); !ok {
		return state.Input{}, errors.New("method must be a string")
	}
	if input.Endpoint, ok = stringField(doc, "endpoint"); !ok {
		return state.Input{}, errors.New("endpoint must be a string")
	}
	return input, nil
}

func stringField(doc map[string]any, key string) (string, bool) {
	v, present := doc[key]
	if !present || v == nil {
		return "", true
	}
	s, ok := v.(string)
	return s, ok
}

func printStates(w io.Writer, states *api.StateListResponse) error {
	return printResult(w, states, func() {
		if len(states.States) == 0 {
			fmt.Fprintf(w, "No states set for %s\n", states.Service)
			return
		}
		tw := output.Table(w, "method", "endpoint", "state")
		for _, e := range states.States {
			output.Row(tw, strings.ToUpper(e.Method), e.Endpoint, compactJSON(e.State))
		}
		_ = tw.Flush()
	})
}
