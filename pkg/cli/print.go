package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/getmockd/oasmock/pkg/cli/internal/output"
)

// printResult outputs a command result.
//
// When --json is active, ONLY the JSON encoding of data is written to w. textFn is called only
// in text mode.
func printResult(w io.Writer, data any, textFn func()) error {
	if jsonOutput {
		return output.JSON(w, data)
	}
	textFn()
	return nil
}

// compactJSON renders v on one line for table cells.
func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return string(data)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
