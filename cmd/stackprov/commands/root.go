// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// Root returns the root command for the stackprov CLI.
//
// Errors are printed once by main, so cobra's own error and usage output
// is silenced.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stackprov",
		Short:         "Provision a Node.js application stack on an Ubuntu host",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(Install())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(ValidateIP())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// ExitCode maps the result of a command to the process exit status.
// A failed run reports 130 when a signal arrived before it returned, even
// if the command did not notice the cancellation. A run that completed
// reports 0 regardless of late signals.
func ExitCode(err error, interrupted bool) int {
	switch {
	case err == nil:
		return ExitOK
	case interrupted || errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}
