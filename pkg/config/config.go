package config

import (
	"fmt"
	"strings"

	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/validator"
)

// Defaults applied by Default.
const (
	DefaultPort          = 8080
	DefaultAdminPort     = 8081
	DefaultServicesDir   = "services"
	DefaultMaxLogEntries = 1000
)

// Config is the oasmock configuration.
type Config struct {
	// Port is the port of the mock server.
	Port int `yaml:"port" json:"port"`

	// AdminPort is the port of the control API. Zero disables it.
	AdminPort int `yaml:"adminPort" json:"adminPort"`

	// ServicesDirectories hold one directory per service. Entries may be doublestar patterns.
	ServicesDirectories []string `yaml:"servicesDirectories" json:"servicesDirectories"`

	// Strict rejects malformed directives instead of ignoring them.
	Strict bool `yaml:"strict" json:"strict"`

	// CodePolicy selects the status codes a state without $code applies to: "all" or "primary".
	CodePolicy string `yaml:"codePolicy" json:"codePolicy"`

	// Seed makes generated payloads reproducible.
	Seed uint64 `yaml:"seed" json:"seed"`

	// MaxLogEntries bounds the request log.
	MaxLogEntries int `yaml:"maxLogEntries" json:"maxLogEntries"`

	// ValidateSpecs runs OpenAPI document validation while loading services.
	ValidateSpecs bool `yaml:"validateSpecs" json:"validateSpecs"`

	// VerifyResponses checks every generated payload against its schema before writing it.
	VerifyResponses bool `yaml:"verifyResponses" json:"verifyResponses"`

	// Watch reloads services when files in the services directories change.
	Watch bool `yaml:"watch" json:"watch"`

	Log LogConfig `yaml:"log" json:"log"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port:                DefaultPort,
		AdminPort:           DefaultAdminPort,
		ServicesDirectories: []string{DefaultServicesDir},
		CodePolicy:          validator.AllCodes.String(),
		MaxLogEntries:       DefaultMaxLogEntries,
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
	}
}

// Mode returns the DSL mode selected by Strict.
func (c *Config) Mode() dsl.Mode {
	return dsl.ModeFor(c.Strict)
}

// Policy returns the parsed CodePolicy.
func (c *Config) Policy() validator.CodePolicy {
	p, err := validator.ParseCodePolicy(c.CodePolicy)
	if err != nil {
		return validator.AllCodes
	}
	return p
}

// validLogLevels are the accepted log.level values; empty means info.
var validLogLevels = map[string]bool{
	"":        true,
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

var validLogFormats = map[string]bool{
	"":                         true,
	string(logging.FormatText): true,
	string(logging.FormatJSON): true,
}

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if err := validatePort("port", c.Port, false); err != nil {
		return err
	}
	if err := validatePort("adminPort", c.AdminPort, true); err != nil {
		return err
	}
	if c.AdminPort != 0 && c.AdminPort == c.Port {
		return &ValidationError{Field: "adminPort", Message: "must differ from port"}
	}
	if len(c.ServicesDirectories) == 0 {
		return &ValidationError{Field: "servicesDirectories", Message: "at least one directory is required"}
	}
	for i, dir := range c.ServicesDirectories {
		if dir == "" {
			return &ValidationError{Field: fmt.Sprintf("servicesDirectories[%d]", i), Message: "must not be empty"}
		}
	}
	if _, err := validator.ParseCodePolicy(c.CodePolicy); err != nil {
		return &ValidationError{Field: "codePolicy", Message: err.Error()}
	}
	if c.MaxLogEntries < 0 {
		return &ValidationError{Field: "maxLogEntries", Message: "must not be negative"}
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return &ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		return &ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	return nil
}

func validatePort(field string, port int, allowZero bool) error {
	if port == 0 && allowZero {
		return nil
	}
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: fmt.Sprintf("port %d out of range 1-65535", port)}
	}
	return nil
}
