package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stackprov/cmd/stackprov/handlers"
)

// Doctor returns the command for diagnosing the host.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: stackprov.yaml if present)
//	--json: Output in JSON format
func Doctor() *cobra.Command {
	var configPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the host and the installed stack",
		Long: `Diagnose the host and the installed stack without changing anything.

Reports:
  - Operating system and architecture, and whether they are supported
  - Whether the command runs as root
  - Base tools and the Node.js runtime
  - The public address written to the server configuration
  - Processes known to pm2

Examples:
  # Diagnose this host
  stackprov doctor

  # Get the report in JSON format
  stackprov doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), configPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: stackprov.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
