// Package config defines the installer configuration.
//
// Values are resolved in layers: built-in defaults, then an optional
// YAML file (stackprov.yaml), then STACKPROV_* environment variables.
// Command-line flags are applied last by the caller, which then calls
// [Config.Validate].
package config
