package cli

import (
	"errors"
	"fmt"

	"github.com/getmockd/oasmock/pkg/engine/api"
)

// FormatError renders err for the terminal, adding the hint of errors that carry one and
// suggestions for an unreachable control API.
func FormatError(err error) string {
	if api.IsConnectionError(err) {
		return fmt.Sprintf(`%s

Suggestions:
  • Start the server: oasmock serve
  • Check that the control API is enabled (adminPort) and listening on the expected port
  • Pass the control API URL with --admin-url or %s`, err.Error(), EnvAdminURL)
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Hint != "" {
		return fmt.Sprintf("%s\n  Hint: %s", err.Error(), apiErr.Hint)
	}
	var h interface{ Hint() string }
	if errors.As(err, &h) && h.Hint() != "" {
		return fmt.Sprintf("%s\n  Hint: %s", err.Error(), h.Hint())
	}
	return err.Error()
}
