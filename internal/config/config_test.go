package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Repo = "acme/stack"
	return cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stackprov.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Empty(t, cfg.Repo)
	assert.Equal(t, "Ubuntu", cfg.Requirement.Distro)
	assert.Equal(t, uint64(24), cfg.Requirement.MajorVersion)
	assert.Equal(t, uint64(20), cfg.Runtime.NodeMajor)
	assert.Equal(t, []string{"pm2"}, cfg.Runtime.GlobalPackages)
	assert.Equal(t, "ALLOWED_DOMAIN", cfg.Server.ConfigKey)
	assert.Equal(t, []string{"core", "server"}, cfg.Supervisor.Apps)
	require.NotNil(t, cfg.Timeouts)
	assert.NoError(t, validConfig().Validate())
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STACKPROV_REPO", "acme/stack")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "acme/stack", cfg.Repo)
	assert.Equal(t, "/opt/stack", cfg.InstallDir)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
repo: acme/stack
install_dir: /srv/app
runtime:
  node_major: 22
  global_packages: [pm2, "yarn@1.22.22"]
server:
  config_key: PUBLIC_HOST
supervisor:
  apps: [server]
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "acme/stack", cfg.Repo)
	assert.Equal(t, "/srv/app", cfg.InstallDir)
	assert.Equal(t, uint64(22), cfg.Runtime.NodeMajor)
	assert.Equal(t, []string{"pm2", "yarn@1.22.22"}, cfg.Runtime.GlobalPackages)
	assert.Equal(t, "PUBLIC_HOST", cfg.Server.ConfigKey)
	assert.Equal(t, ".env", cfg.Server.EnvFile, "unset keys keep their defaults")
	assert.Equal(t, []string{"server"}, cfg.Supervisor.Apps)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().InstallDir, cfg.InstallDir)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "repository: acme/stack\n"))
	assert.ErrorContains(t, err, "repository")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("STACKPROV_REPO", "other/stack")
	t.Setenv("STACKPROV_NODE_MAJOR", "22")
	t.Setenv("GITHUB_TOKEN", "ghp_secret")
	t.Setenv("STACKPROV_METRICS_TEXTFILE", "/var/lib/node_exporter/stackprov.prom")

	cfg, err := Load(writeConfig(t, "repo: acme/stack\n"))

	require.NoError(t, err)
	assert.Equal(t, "other/stack", cfg.Repo)
	assert.Equal(t, uint64(22), cfg.Runtime.NodeMajor)
	assert.Equal(t, "ghp_secret", cfg.Release.Token)
	assert.Equal(t, "/var/lib/node_exporter/stackprov.prom", cfg.Metrics.Textfile)
}

func TestLoad_TokenNotReadFromFile(t *testing.T) {
	_, err := Load(writeConfig(t, "release:\n  token: abc\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad repo", func(c *Config) { c.Repo = "acme" }, "owner/name"},
		{"empty install dir", func(c *Config) { c.InstallDir = "" }, "install_dir"},
		{"empty distro", func(c *Config) { c.Requirement.Distro = " " }, "distro"},
		{"zero major", func(c *Config) { c.Requirement.MajorVersion = 0 }, "major_version"},
		{"zero node major", func(c *Config) { c.Runtime.NodeMajor = 0 }, "node_major"},
		{"setup url without placeholder", func(c *Config) { c.Runtime.SetupURL = "https://deb.nodesource.com/setup_lts.x" }, "%d"},
		{"bad global package", func(c *Config) { c.Runtime.GlobalPackages = []string{"pm2; rm -rf /"} }, "global package"},
		{"bad echo url", func(c *Config) { c.Identity.EchoURL = "icanhazip.com" }, "echo_url"},
		{"bad api url", func(c *Config) { c.Release.APIBaseURL = "ftp://example.com" }, "api_base_url"},
		{"absolute core dir", func(c *Config) { c.Core.Dir = "/core" }, "relative"},
		{"escaping asset dest", func(c *Config) { c.Core.BinaryAssetDest = "../x" }, "inside the install directory"},
		{"short sha256", func(c *Config) { c.Core.BinaryAssetSHA256 = "abcd" }, "64 hex"},
		{"bad config key", func(c *Config) { c.Server.ConfigKey = "ALLOWED-DOMAIN" }, "config_key"},
		{"descriptor path", func(c *Config) { c.Supervisor.Descriptor = "conf/ecosystem.config.js" }, "descriptor"},
		{"no apps", func(c *Config) { c.Supervisor.Apps = nil }, "at least one app"},
		{"no pm2 user", func(c *Config) { c.Supervisor.User = "" }, "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_AssetRestoreOptional(t *testing.T) {
	cfg := validConfig()
	cfg.Core.BinaryAssetURL = ""
	cfg.Core.BinaryAssetDest = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoadTimeouts_Defaults(t *testing.T) {
	for _, v := range []string{"STACKPROV_TIMEOUT_HTTP", "STACKPROV_TIMEOUT_DOWNLOAD", "STACKPROV_TIMEOUT_LOOKUP", "STACKPROV_RETRY_MAX_ATTEMPTS", "STACKPROV_RETRY_INITIAL_DELAY"} {
		t.Setenv(v, "")
	}

	timeouts := LoadTimeouts()

	assert.Equal(t, 30*time.Second, timeouts.HTTP)
	assert.Equal(t, 10*time.Minute, timeouts.Download)
	assert.Equal(t, 10*time.Second, timeouts.Lookup)
	assert.Equal(t, 0, timeouts.RetryMaxAttempts)
	assert.Equal(t, time.Second, timeouts.RetryInitialDelay)
}

func TestLoadTimeouts_CustomValues(t *testing.T) {
	t.Setenv("STACKPROV_TIMEOUT_HTTP", "5s")
	t.Setenv("STACKPROV_TIMEOUT_DOWNLOAD", "1h")
	t.Setenv("STACKPROV_RETRY_MAX_ATTEMPTS", "4")

	timeouts := LoadTimeouts()

	assert.Equal(t, 5*time.Second, timeouts.HTTP)
	assert.Equal(t, time.Hour, timeouts.Download)
	assert.Equal(t, 4, timeouts.RetryMaxAttempts)
}

func TestLoadTimeouts_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STACKPROV_TIMEOUT_HTTP", "soon")
	t.Setenv("STACKPROV_TIMEOUT_LOOKUP", "-1s")
	t.Setenv("STACKPROV_RETRY_MAX_ATTEMPTS", "-3")

	timeouts := LoadTimeouts()

	assert.Equal(t, 30*time.Second, timeouts.HTTP)
	assert.Equal(t, 10*time.Second, timeouts.Lookup)
	assert.Equal(t, 0, timeouts.RetryMaxAttempts)
}
