package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrEmptyFile    = errors.New("configuration file is empty")
)

// Environment variables that override configuration fields.
const (
	EnvConfig            = "OASMOCK_CONFIG"
	EnvServicesDirectory = "OASMOCK_SERVICES_DIRECTORY"
	EnvStrict            = "OASMOCK_STRICT"
	EnvPort              = "OASMOCK_PORT"
	EnvAdminPort         = "OASMOCK_ADMIN_PORT"
	EnvLogLevel          = "OASMOCK_LOG_LEVEL"
)

// DiscoveryOrder lists the file names looked up in the working directory.
var DiscoveryOrder = []string{
	"oasmock.yaml",
	"oasmock.yml",
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LoadFile reads the configuration at path on top of Default, then applies environment
// overrides and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the configuration at path, or the discovered file when path is empty. Without any
// file the defaults are used. Environment overrides apply in every case.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Discover()
	}
	if path != "" {
		return LoadFile(path)
	}
	cfg := Default()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data on top of Default after expanding environment references.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := ExpandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return cfg, nil
}

// Discover returns the path named by OASMOCK_CONFIG or the first file of DiscoveryOrder found
// in the working directory, or "".
func Discover() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range DiscoveryOrder {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ApplyEnv applies the OASMOCK_* overrides to cfg.
func ApplyEnv(cfg *Config) error {
	if dirs := os.Getenv(EnvServicesDirectory); dirs != "" {
		cfg.ServicesDirectories = filepath.SplitList(dirs)
	}
	if v := os.Getenv(EnvStrict); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStrict, err)
		}
		cfg.Strict = strict
	}
	if err := envInt(EnvPort, &cfg.Port); err != nil {
		return err
	}
	if err := envInt(EnvAdminPort, &cfg.AdminPort); err != nil {
		return err
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = n
	return nil
}

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}
