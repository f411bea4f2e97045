package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stackprov/cmd/stackprov/handlers"
)

// ValidateIP returns the command that checks a dotted-quad IPv4 address
// with the same rules the installer applies to operator input.
func ValidateIP() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-ip <address>",
		Short: "Check whether an address is a valid IPv4 dotted quad",
		Long: `Check whether an address is a valid IPv4 dotted quad.

The address must have exactly four decimal octets from 0 to 255,
separated by dots, without leading zeros or surrounding whitespace.
Exits with status 1 when the address is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ValidateIP(cmd.OutOrStdout(), args[0])
		},
	}
}
