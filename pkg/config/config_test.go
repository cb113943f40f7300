package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/oasmock/pkg/dsl"
	"github.com/getmockd/oasmock/pkg/validator"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oasmock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, []string{DefaultServicesDir}, cfg.ServicesDirectories)
	assert.Equal(t, dsl.Relaxed, cfg.Mode())
	assert.Equal(t, validator.AllCodes, cfg.Policy())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("SPECS_ROOT", "/srv/specs")
	path := writeConfig(t, `
port: 9000
adminPort: 9001
servicesDirectories:
  - ${SPECS_ROOT}/services
  - ${MISSING_DIR:-./more}
strict: true
codePolicy: primary
seed: 7
log:
  level: debug
  format: json
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 9001, cfg.AdminPort)
	assert.Equal(t, []string{"/srv/specs/services", "./more"}, cfg.ServicesDirectories)
	assert.Equal(t, dsl.Strict, cfg.Mode())
	assert.Equal(t, validator.PrimaryCode, cfg.Policy())
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, DefaultMaxLogEntries, cfg.MaxLogEntries)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "7000")
	t.Setenv(EnvStrict, "true")
	t.Setenv(EnvServicesDirectory, "/a"+string(os.PathListSeparator)+"/b")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadFile(writeConfig(t, "port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"/a", "/b"}, cfg.ServicesDirectories)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		env     map[string]string
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: ErrFileNotFound,
		},
		{
			name:    "empty",
			path:    func(t *testing.T) string { return writeConfig(t, "  \n") },
			wantErr: ErrEmptyFile,
		},
		{
			name:    "invalid yaml",
			path:    func(t *testing.T) string { return writeConfig(t, "port: [") },
			wantErr: ErrInvalidYAML,
		},
		{
			name:    "port range",
			path:    func(t *testing.T) string { return writeConfig(t, "port: 70000\n") },
			wantMsg: "invalid port: port 70000 out of range 1-65535",
		},
		{
			name:    "same ports",
			path:    func(t *testing.T) string { return writeConfig(t, "port: 9000\nadminPort: 9000\n") },
			wantMsg: "invalid adminPort: must differ from port",
		},
		{
			name:    "code policy",
			path:    func(t *testing.T) string { return writeConfig(t, "codePolicy: some\n") },
			wantMsg: "invalid codePolicy",
		},
		{
			name:    "log level",
			path:    func(t *testing.T) string { return writeConfig(t, "log:\n  level: loud\n") },
			wantMsg: `invalid log.level: unknown level "loud"`,
		},
		{
			name:    "bad env",
			path:    func(t *testing.T) string { return writeConfig(t, "port: 9000\n") },
			env:     map[string]string{EnvAdminPort: "abc"},
			wantMsg: "invalid OASMOCK_ADMIN_PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile(tt.path(t))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_Discover(t *testing.T) {
	path := writeConfig(t, "port: 9100\n")
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("OASMOCK_TEST_VAR", "value")

	tests := []struct {
		input string
		want  string
	}{
		{"${OASMOCK_TEST_VAR}", "value"},
		{"${OASMOCK_TEST_UNSET:-fallback}", "fallback"},
		{"${OASMOCK_TEST_UNSET}", ""},
		{"plain", "plain"},
		{"$OASMOCK_TEST_VAR", "$OASMOCK_TEST_VAR"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnvVars(tt.input))
		})
	}
}
