package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration from defaults, the file at path and the
// environment. An empty path means DefaultPath, which may be absent; an
// explicit path must exist. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	if err := cfg.mergeFile(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg.ApplyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to unmarshal yaml %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
//
// Environment Variables:
//   - STACKPROV_REPO
//   - STACKPROV_INSTALL_DIR
//   - STACKPROV_NODE_MAJOR
//   - STACKPROV_ECHO_URL
//   - STACKPROV_API_URL
//   - STACKPROV_METRICS_TEXTFILE
//   - GITHUB_TOKEN
func (c *Config) ApplyEnv() {
	setString(&c.Repo, "STACKPROV_REPO")
	setString(&c.InstallDir, "STACKPROV_INSTALL_DIR")
	setString(&c.Identity.EchoURL, "STACKPROV_ECHO_URL")
	setString(&c.Release.APIBaseURL, "STACKPROV_API_URL")
	setString(&c.Metrics.Textfile, "STACKPROV_METRICS_TEXTFILE")
	setString(&c.Release.Token, "GITHUB_TOKEN")

	if v := os.Getenv("STACKPROV_NODE_MAJOR"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Runtime.NodeMajor = n
		}
	}

	c.Timeouts = LoadTimeouts()
}

func setString(dst *string, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		*dst = v
	}
}
