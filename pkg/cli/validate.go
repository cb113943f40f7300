package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/service"
)

// ServiceReport is the validation outcome of one service directory.
type ServiceReport struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Valid  bool   `json:"valid"`
	Routes int    `json:"routes"`
	Error  string `json:"error,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// ValidateOutput is the JSON output of validate.
type ValidateOutput struct {
	Valid    bool            `json:"valid"`
	Services []ServiceReport `json:"services"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse every service and report problems",
	Long: `Parse every service of the services directories without starting the server.

A service is valid when its directory holds exactly one spec file that loads, including its
external references. With --validate-specs the OpenAPI document is validated as well.`,
	Example: `  oasmock validate
  oasmock validate --services-dir ./services --json`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var validateSpecs bool

func init() {
	validateCmd.Flags().BoolVar(&validateSpecs, "validate-specs", false, "Validate OpenAPI documents")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("validate-specs") {
		cfg.ValidateSpecs = validateSpecs
	}
	log := newLogger(cmd, cfg)

	result, err := readDefinitions(cfg, log)
	if err != nil {
		return err
	}

	out := ValidateOutput{Valid: true, Services: []ServiceReport{}}
	for _, loadErr := range result.Errors {
		out.Valid = false
		out.Services = append(out.Services, ServiceReport{Path: loadErr.Path, Error: loadErr.Error()})
	}
	opts := parseOptions(cfg)
	for _, def := range result.Defs {
		report := ServiceReport{Name: def.DirectoryName, Path: def.AbsolutePath}
		svc, err := service.Parse(cmd.Context(), def, opts)
		if err != nil {
			out.Valid = false
			report.Error = err.Error()
			var h interface{ Hint() string }
			if errors.As(err, &h) {
				report.Hint = h.Hint()
			}
		} else {
			report.Valid = true
			report.Routes = len(svc.Routes())
		}
		out.Services = append(out.Services, report)
	}

	w := cmd.OutOrStdout()
	err = printResult(w, out, func() {
		for _, s := range out.Services {
			switch {
			case s.Valid:
				fmt.Fprintf(w, "✓ %s (%d routes)\n", s.Name, s.Routes)
			case s.Name == "":
				fmt.Fprintf(w, "✗ %s\n", s.Error)
			default:
				fmt.Fprintf(w, "✗ %s: %s\n", s.Name, s.Error)
				if s.Hint != "" {
					fmt.Fprintf(w, "  Hint: %s\n", s.Hint)
				}
			}
		}
		if len(out.Services) == 0 {
			fmt.Fprintln(w, "No services found.")
		}
	})
	if err != nil {
		return err
	}
	if !out.Valid {
		invalid := 0
		for _, s := range out.Services {
			if !s.Valid {
				invalid++
			}
		}
		return fmt.Errorf("validation failed: %d of %d services invalid", invalid, len(out.Services))
	}
	return nil
}
