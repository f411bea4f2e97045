package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	repoRegex      = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	envKeyRegex    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	npmPackageName = regexp.MustCompile(`^(@[a-z0-9][a-z0-9._~-]*/)?[a-z0-9][a-z0-9._~-]*(@[A-Za-z0-9._^~<>=*-]+)?$`)
)

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.Repo == "" {
		return fmt.Errorf("repo is required (owner/name)")
	}
	if !repoRegex.MatchString(c.Repo) {
		return fmt.Errorf("repo must be owner/name, got %q", c.Repo)
	}
	if c.InstallDir == "" {
		return fmt.Errorf("install_dir is required")
	}

	if err := c.validateRequirement(); err != nil {
		return fmt.Errorf("requirement validation failed: %w", err)
	}
	if err := c.validateRuntime(); err != nil {
		return fmt.Errorf("runtime validation failed: %w", err)
	}
	if err := validateURL("identity.echo_url", c.Identity.EchoURL); err != nil {
		return err
	}
	if err := validateURL("release.api_base_url", c.Release.APIBaseURL); err != nil {
		return err
	}
	if err := c.validateCore(); err != nil {
		return fmt.Errorf("core validation failed: %w", err)
	}
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := c.validateSupervisor(); err != nil {
		return fmt.Errorf("supervisor validation failed: %w", err)
	}
	return nil
}

func (c *Config) validateRequirement() error {
	if strings.TrimSpace(c.Requirement.Distro) == "" {
		return fmt.Errorf("distro is required")
	}
	if c.Requirement.MajorVersion == 0 {
		return fmt.Errorf("major_version must be positive")
	}
	return nil
}

func (c *Config) validateRuntime() error {
	if c.Runtime.NodeMajor == 0 {
		return fmt.Errorf("node_major must be positive")
	}
	if strings.Count(c.Runtime.SetupURL, "%d") != 1 {
		return fmt.Errorf("setup_url must contain exactly one %%d for the major version, got %q", c.Runtime.SetupURL)
	}
	if err := validateURL("setup_url", fmt.Sprintf(c.Runtime.SetupURL, c.Runtime.NodeMajor)); err != nil {
		return err
	}
	for _, pkg := range c.Runtime.GlobalPackages {
		if !npmPackageName.MatchString(pkg) {
			return fmt.Errorf("invalid global package %q", pkg)
		}
	}
	return nil
}

func (c *Config) validateCore() error {
	if err := validateRelDir("dir", c.Core.Dir); err != nil {
		return err
	}
	if c.Core.BinaryAssetURL == "" {
		return nil
	}
	if err := validateURL("binary_asset_url", c.Core.BinaryAssetURL); err != nil {
		return err
	}
	if err := validateRelDir("binary_asset_dest", c.Core.BinaryAssetDest); err != nil {
		return err
	}
	if sum := c.Core.BinaryAssetSHA256; sum != "" {
		if b, err := hex.DecodeString(sum); err != nil || len(b) != 32 {
			return fmt.Errorf("binary_asset_sha256 must be 64 hex characters")
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if err := validateRelDir("dir", c.Server.Dir); err != nil {
		return err
	}
	if err := validateRelDir("env_file", c.Server.EnvFile); err != nil {
		return err
	}
	if !envKeyRegex.MatchString(c.Server.ConfigKey) {
		return fmt.Errorf("config_key %q is not a valid variable name", c.Server.ConfigKey)
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.Descriptor == "" || strings.ContainsRune(c.Supervisor.Descriptor, '/') {
		return fmt.Errorf("descriptor must be a file name, got %q", c.Supervisor.Descriptor)
	}
	if len(c.Supervisor.Apps) == 0 {
		return fmt.Errorf("at least one app is required")
	}
	for _, app := range c.Supervisor.Apps {
		if err := validateRelDir("apps", app); err != nil {
			return err
		}
	}
	if c.Supervisor.InitSystem == "" {
		return fmt.Errorf("init_system is required")
	}
	if c.Supervisor.User == "" {
		return fmt.Errorf("user is required")
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}
	return nil
}

// validateRelDir requires a path inside the install directory.
func validateRelDir(field, p string) error {
	if p == "" {
		return fmt.Errorf("%s is required", field)
	}
	if filepath.IsAbs(p) {
		return fmt.Errorf("%s must be relative, got %q", field, p)
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%s must stay inside the install directory, got %q", field, p)
	}
	return nil
}
